package service

import (
	"testing"

	"github.com/nike-storefront/internal/constants"
)

func TestIsCancellable(t *testing.T) {
	cases := map[string]bool{
		constants.OrderStatusPending:   true,
		constants.OrderStatusPaid:      true,
		" PAID ":                       true,
		constants.OrderStatusShipped:   false,
		constants.OrderStatusDelivered: false,
		constants.OrderStatusCancelled: false,
	}
	for status, want := range cases {
		if got := isCancellable(status); got != want {
			t.Fatalf("status %q: want %v got %v", status, want, got)
		}
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	if IsValidOrderStatus("refunded") {
		t.Fatalf("unknown status should be invalid")
	}
	if !IsValidOrderStatus("Shipped") {
		t.Fatalf("status check should be case insensitive")
	}
}

func TestStatusTimestampColumn(t *testing.T) {
	if got := statusTimestampColumn(constants.OrderStatusShipped); got != "shipped_at" {
		t.Fatalf("unexpected column %s", got)
	}
	if got := statusTimestampColumn(constants.OrderStatusPending); got != "" {
		t.Fatalf("pending has no timestamp column, got %s", got)
	}
}
