package main

import (
	"errors"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/models"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type variantSeed struct {
	SKU       string
	Color     string
	Size      string
	Price     string
	SalePrice string
	InStock   int
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	Gender      string
	ImageURL    string
	Variants    []variantSeed
}

var catalog = []productSeed{
	{
		Name:        "Air Zoom Pegasus 41",
		Description: "Responsive everyday running shoe.",
		Category:    "running",
		Gender:      "men",
		ImageURL:    "/images/pegasus-41.png",
		Variants: []variantSeed{
			{SKU: "PEG41-BLK-42", Color: "black", Size: "42", Price: "130.00", InStock: 25},
			{SKU: "PEG41-BLK-43", Color: "black", Size: "43", Price: "130.00", InStock: 18},
			{SKU: "PEG41-WHT-42", Color: "white", Size: "42", Price: "130.00", SalePrice: "104.00", InStock: 9},
		},
	},
	{
		Name:        "Dri-FIT Training Tee",
		Description: "Sweat-wicking training top.",
		Category:    "apparel",
		Gender:      "women",
		ImageURL:    "/images/drifit-tee.png",
		Variants: []variantSeed{
			{SKU: "DFT-RED-S", Color: "red", Size: "S", Price: "35.00", InStock: 40},
			{SKU: "DFT-RED-M", Color: "red", Size: "M", Price: "35.00", InStock: 32},
			{SKU: "DFT-GRY-M", Color: "grey", Size: "M", Price: "35.00", SalePrice: "28.00", InStock: 12},
		},
	},
	{
		Name:        "Court Vision Low",
		Description: "Basketball-inspired lifestyle sneaker.",
		Category:    "lifestyle",
		Gender:      "unisex",
		ImageURL:    "/images/court-vision.png",
		Variants: []variantSeed{
			{SKU: "CVL-WHT-40", Color: "white", Size: "40", Price: "75.00", InStock: 20},
			{SKU: "CVL-WHT-41", Color: "white", Size: "41", Price: "75.00", InStock: 0},
		},
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.OpenDB(models.DBOptions{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	defer func() { _ = models.CloseDB(db) }()

	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	created, err := seedCatalog(db, catalog)
	if err != nil {
		stdLog.Fatalf("Failed to seed catalog: %v", err)
	}
	logger.Infow("catalog_seeded", "variants_created", created)
}

// seedCatalog 按 SKU 幂等写入示例商品，已存在的 SKU 跳过
func seedCatalog(db *gorm.DB, seeds []productSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		err := db.Transaction(func(tx *gorm.DB) error {
			var product models.Product
			err := tx.Where("name = ?", seed.Name).First(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				product = models.Product{
					Name:        seed.Name,
					Description: seed.Description,
					Category:    seed.Category,
					Gender:      seed.Gender,
					ImageURL:    seed.ImageURL,
					IsPublished: true,
				}
				err = tx.Create(&product).Error
			}
			if err != nil {
				return err
			}

			for _, vs := range seed.Variants {
				var count int64
				if err := tx.Model(&models.ProductVariant{}).Where("sku = ?", vs.SKU).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					continue
				}
				variant := models.ProductVariant{
					ProductID: product.ID,
					SKU:       vs.SKU,
					Color:     vs.Color,
					Size:      vs.Size,
					Price:     models.MustMoney(vs.Price),
					InStock:   vs.InStock,
				}
				if vs.SalePrice != "" {
					sale := models.MustMoney(vs.SalePrice)
					variant.SalePrice = &sale
				}
				if err := tx.Omit("Product").Create(&variant).Error; err != nil {
					return err
				}
				created++
			}
			return nil
		})
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
