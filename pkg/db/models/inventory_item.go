package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a seller-owned listing. Deletion only clears IsActive.
type InventoryItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null;index:idx_inventory_name"`
	Description string          `gorm:"column:description;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Image       *string         `gorm:"column:image"`
	SellerID    uint            `gorm:"column:seller_id;not null;index:idx_inventory_seller_id"`
	IsActive    bool            `gorm:"column:is_active;not null;index:idx_inventory_is_active"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_inventory_created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string {
	return "inventory"
}
