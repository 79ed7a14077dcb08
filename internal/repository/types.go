package repository

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page          int
	PageSize      int
	Search        string
	Categories    []string
	Genders       []string
	Colors        []string
	Sizes         []string
	PriceMin      string
	PriceMax      string
	Sort          string
	OnlyPublished bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Keyword  string
}
