package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(MustMoney("80"))
	if err != nil {
		t.Fatalf("marshal money failed: %v", err)
	}
	if string(raw) != `"80.00"` {
		t.Fatalf("unexpected money json: %s", raw)
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"12.345"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.String() != "12.35" {
		t.Fatalf("expected rounding to 12.35, got %s", fromString.String())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`19.9`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "19.90" {
		t.Fatalf("unexpected number value: %s", fromNumber.String())
	}
}

func TestVariantUnitPricePrefersActiveSale(t *testing.T) {
	sale := MustMoney("80")
	onSale := &ProductVariant{Price: MustMoney("100"), SalePrice: &sale}
	if got := onSale.UnitPrice().StringFixed(2); got != "80.00" {
		t.Fatalf("expected sale price, got %s", got)
	}

	zero := MustMoney("0")
	inactive := &ProductVariant{Price: MustMoney("50"), SalePrice: &zero}
	if got := inactive.UnitPrice().StringFixed(2); got != "50.00" {
		t.Fatalf("zero sale price must be ignored, got %s", got)
	}

	listOnly := &ProductVariant{Price: MustMoney("50")}
	if listOnly.OnSale() {
		t.Fatalf("variant without sale price is not on sale")
	}
}
