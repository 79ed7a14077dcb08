package cache

import (
	"context"
	"fmt"
	"time"
)

// ProductDetailTTL 商品详情缓存时长
const ProductDetailTTL = 5 * time.Minute

// ProductDetailKey 商品详情缓存键
func ProductDetailKey(productID uint) string {
	return fmt.Sprintf("product:detail:%d", productID)
}

// InvalidateProduct 删除商品详情缓存
func (s *Store) InvalidateProduct(ctx context.Context, productID uint) error {
	if productID == 0 {
		return nil
	}
	return s.Del(ctx, ProductDetailKey(productID))
}
