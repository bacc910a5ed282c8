package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// 会員プロフィール上の住所（注文の配送先とは別）
type UserAddress struct {
	Street  string `gorm:"type:varchar(255)" json:"street"`
	City    string `gorm:"type:varchar(255)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	ZipCode string `gorm:"type:varchar(20)" json:"zip_code"`
	Country string `gorm:"type:varchar(100);default:'Nigeria'" json:"country"`
}

// パスワードはハッシュのみ保存。レスポンスには絶対に出さない（json:"-"）
type User struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;not null" json:"-"`
	Name         string      `gorm:"type:varchar(255);not null" json:"name"`
	Phone        string      `gorm:"type:varchar(30)" json:"phone"`
	Address      UserAddress `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Role         Role        `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
