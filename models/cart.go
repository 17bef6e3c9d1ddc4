package models

import (
	"fmt"
	"time"
)

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a draft order line. Prices are snapshotted at add-time and are
// not live pointers to the product.
type CartItem struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	CartID            uint    `gorm:"index" json:"cart_id"`
	ProductID         uint    `gorm:"index" json:"product_id"`
	VariantID         *uint   `json:"variant_id"`
	Title             string  `json:"title"`
	SKU               string  `json:"sku"`
	Image             string  `json:"image"`
	UnitPrice         float64 `json:"unit_price"`
	DiscountPercent   float64 `json:"discount_percent"`
	FinalPrice        float64 `json:"final_price"`
	Quantity          int     `json:"quantity"` // always >= 1 while the line exists
	IsPreorder        bool    `json:"is_preorder"`
	EstimatedDelivery string  `json:"estimated_delivery"`
	FulfillmentNote   string  `json:"fulfillment_note"`
	AddedAt           time.Time
}

// LineKey identifies a cart line by product, or product_variant when a
// variant was selected.
func (i *CartItem) LineKey() string {
	if i.VariantID != nil {
		return fmt.Sprintf("%d_%d", i.ProductID, *i.VariantID)
	}
	return fmt.Sprintf("%d", i.ProductID)
}
