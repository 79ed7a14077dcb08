package service

import (
	"strings"

	"github.com/nike-storefront/internal/constants"
)

// orderStatusPredecessors 目标状态 -> 允许的前置状态，订单状态只能单向推进
var orderStatusPredecessors = map[string][]string{
	constants.OrderStatusPaid:      {constants.OrderStatusPending},
	constants.OrderStatusShipped:   {constants.OrderStatusPaid},
	constants.OrderStatusDelivered: {constants.OrderStatusShipped},
	constants.OrderStatusCancelled: {constants.OrderStatusPending, constants.OrderStatusPaid},
}

// normalizeOrderStatus 规范化状态值
func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsValidOrderStatus 是否为已知订单状态
func IsValidOrderStatus(status string) bool {
	switch normalizeOrderStatus(status) {
	case constants.OrderStatusPending,
		constants.OrderStatusPaid,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// cancellableStatuses 允许取消的状态
func cancellableStatuses() []string {
	return orderStatusPredecessors[constants.OrderStatusCancelled]
}

// isCancellable 订单当前状态是否允许取消
func isCancellable(status string) bool {
	for _, s := range cancellableStatuses() {
		if s == normalizeOrderStatus(status) {
			return true
		}
	}
	return false
}

// statusTimestampColumn 进入该状态时需要写入的时间列
func statusTimestampColumn(status string) string {
	switch status {
	case constants.OrderStatusPaid:
		return "paid_at"
	case constants.OrderStatusShipped:
		return "shipped_at"
	case constants.OrderStatusDelivered:
		return "delivered_at"
	case constants.OrderStatusCancelled:
		return "canceled_at"
	default:
		return ""
	}
}
