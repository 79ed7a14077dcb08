package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/nike-storefront/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	want := 0
	for _, p := range catalog {
		want += len(p.Variants)
	}
	created, err := seedCatalog(db, catalog)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if created != want {
		t.Fatalf("created want %d got %d", want, created)
	}

	created, err = seedCatalog(db, catalog)
	if err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("reseed should create nothing, got %d", created)
	}

	var products int64
	db.Model(&models.Product{}).Count(&products)
	if int(products) != len(catalog) {
		t.Fatalf("products want %d got %d", len(catalog), products)
	}

	var variant models.ProductVariant
	if err := db.Where("sku = ?", "PEG41-WHT-42").First(&variant).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if variant.SalePrice == nil || variant.SalePrice.String() != "104.00" {
		t.Fatalf("sale price not seeded: %+v", variant.SalePrice)
	}
}
