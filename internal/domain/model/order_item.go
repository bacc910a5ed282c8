package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の商品のスナップショット。
// 商品側が後から編集・削除されても注文履歴は変わらない
type OrderItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID         string          `gorm:"type:uuid;not null;index" json:"product_id"`
	NameSnapshot      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	ImageURLSnapshot  string          `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
