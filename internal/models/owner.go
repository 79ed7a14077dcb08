package models

import "fmt"

// OwnerKind 购物车/订单归属身份类型
type OwnerKind uint8

const (
	// OwnerNone 零值，表示无效身份
	OwnerNone OwnerKind = iota
	// OwnerUser 已登录用户
	OwnerUser
	// OwnerGuest 匿名访客
	OwnerGuest
)

// String 返回身份类型名
func (k OwnerKind) String() string {
	switch k {
	case OwnerUser:
		return "user"
	case OwnerGuest:
		return "guest"
	default:
		return "none"
	}
}

// Owner 归属身份：User(id) 或 Guest(id)
// 字段不导出，只能通过 UserOwner/GuestOwner 构造，不存在“两者皆有”的状态
type Owner struct {
	kind OwnerKind
	id   uint
}

// UserOwner 构造用户身份，id 为 0 时返回无效身份
func UserOwner(id uint) Owner {
	if id == 0 {
		return Owner{}
	}
	return Owner{kind: OwnerUser, id: id}
}

// GuestOwner 构造访客身份，id 为 0 时返回无效身份
func GuestOwner(id uint) Owner {
	if id == 0 {
		return Owner{}
	}
	return Owner{kind: OwnerGuest, id: id}
}

// OwnerFromColumns 由存储层的两个可空外键还原身份
func OwnerFromColumns(userID, guestID *uint) Owner {
	switch {
	case userID != nil && guestID != nil:
		return Owner{}
	case userID != nil:
		return UserOwner(*userID)
	case guestID != nil:
		return GuestOwner(*guestID)
	default:
		return Owner{}
	}
}

// Kind 身份类型
func (o Owner) Kind() OwnerKind { return o.kind }

// ID 身份 ID
func (o Owner) ID() uint { return o.id }

// Valid 是否有效
func (o Owner) Valid() bool { return o.kind != OwnerNone && o.id != 0 }

// IsUser 是否为已登录用户
func (o Owner) IsUser() bool { return o.kind == OwnerUser }

// IsGuest 是否为访客
func (o Owner) IsGuest() bool { return o.kind == OwnerGuest }

// Columns 映射为存储层的 user_id / guest_id
func (o Owner) Columns() (userID *uint, guestID *uint) {
	id := o.id
	switch o.kind {
	case OwnerUser:
		return &id, nil
	case OwnerGuest:
		return nil, &id
	default:
		return nil, nil
	}
}

// Equal 比较两个身份
func (o Owner) Equal(other Owner) bool {
	return o.Valid() && o.kind == other.kind && o.id == other.id
}

// String 日志友好的表示
func (o Owner) String() string {
	return fmt.Sprintf("%s:%d", o.kind, o.id)
}
