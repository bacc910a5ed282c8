package main

import (
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 初期データ投入CLI。管理者アカウントとサンプル商品を入れる。
// 既に存在するものはスキップするので何度実行しても安全
func main() {
	_ = godotenv.Load()

	gormDB, err := db.Connect(config.LoadDB())
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Contact{},
	); err != nil {
		log.Fatal(err)
	}

	if err := seedAdmin(gormDB); err != nil {
		log.Fatal(err)
	}
	if err := seedProducts(gormDB); err != nil {
		log.Fatal(err)
	}

	log.Println("seeding completed")
}

func seedAdmin(gormDB *gorm.DB) error {
	const adminEmail = "admin@example.com"

	var count int64
	if err := gormDB.Model(&model.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("admin already exists: %s", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := model.User{
		ID:           uuid.NewString(),
		Email:        adminEmail,
		PasswordHash: string(hash),
		Name:         "Admin User",
		Phone:        "1234567890",
		Address: model.UserAddress{
			Street:  "123 Admin St",
			City:    "Admin City",
			State:   "Admin State",
			ZipCode: "12345",
			Country: "Nigeria",
		},
		Role:      model.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := gormDB.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("created admin: %s", adminEmail)
	return nil
}

func seedProducts(gormDB *gorm.DB) error {
	samples := []model.Product{
		{
			Name:        "Classic T-Shirt",
			Description: "Comfortable cotton t-shirt perfect for everyday wear",
			Price:       decimal.RequireFromString("25.99"),
			ImageURL:    "/images/products/tshirt.jpg",
			Category:    "Clothing",
			Stock:       100,
		},
		{
			Name:        "Denim Jeans",
			Description: "High-quality denim jeans with perfect fit",
			Price:       decimal.RequireFromString("89.99"),
			ImageURL:    "/images/products/jeans.jpg",
			Category:    "Clothing",
			Stock:       75,
		},
		{
			Name:        "Summer Dress",
			Description: "Light and breezy summer dress for women",
			Price:       decimal.RequireFromString("45.50"),
			ImageURL:    "/images/products/dress.jpg",
			Category:    "Clothing",
			Stock:       50,
		},
		{
			Name:        "Sneakers",
			Description: "Comfortable walking sneakers for daily use",
			Price:       decimal.RequireFromString("79.99"),
			ImageURL:    "/images/products/sneakers.jpg",
			Category:    "Footwear",
			Stock:       60,
		},
		{
			Name:        "Leather Jacket",
			Description: "Premium leather jacket for style and warmth",
			Price:       decimal.RequireFromString("199.99"),
			ImageURL:    "/images/products/leather-jacket.jpg",
			Category:    "Outerwear",
			Stock:       25,
		},
	}

	now := time.Now()
	for _, p := range samples {
		var count int64
		if err := gormDB.Model(&model.Product{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			log.Printf("product already exists: %s", p.Name)
			continue
		}

		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := gormDB.Create(&p).Error; err != nil {
			return err
		}
		log.Printf("created product: %s", p.Name)
	}

	return nil
}
