package models

import (
	"time"

	"gorm.io/gorm"
)

type AvailabilityType string

const (
	AvailabilityInStock        AvailabilityType = "in_stock"
	AvailabilityPreorder       AvailabilityType = "preorder"
	AvailabilityMadeToOrder    AvailabilityType = "made_to_order"
	AvailabilityLimitedEdition AvailabilityType = "limited_edition"
)

type Product struct {
	ID               uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Title            string           `gorm:"not null" json:"title"`
	Slug             string           `gorm:"uniqueIndex" json:"slug"`
	SKU              string           `gorm:"index" json:"sku"`
	Description      string           `json:"description"`
	Image            string           `json:"image"`
	Price            float64          `gorm:"not null" json:"price"`
	DiscountPercent  float64          `json:"discount_percent"` // 0-100
	AvailabilityType AvailabilityType `gorm:"type:VARCHAR(20);default:'in_stock'" json:"availability_type"`
	Active           bool             `gorm:"default:true" json:"active"`
	Stock            int              `json:"stock"`
	Reserved         int              `json:"reserved"` // advisory, never blocks a sale
	LowStockAlert    int              `gorm:"default:5" json:"low_stock_alert"`
	HasVariants      bool             `json:"has_variants"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// FinalPrice applies the product discount to the base price.
func (p *Product) FinalPrice() float64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	return p.Price * (1 - p.DiscountPercent/100)
}

// ProductVariant is the smallest unit with its own stock count. Once a
// product has variants, the parent's Stock is always the recomputed sum of
// its active variants and is never tracked independently.
type ProductVariant struct {
	ID               uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        uint    `gorm:"index;not null" json:"product_id"`
	Name             string  `json:"name"`
	SKU              string  `gorm:"index" json:"sku"`
	Color            string  `json:"color"`
	Size             string  `json:"size"`
	Material         string  `json:"material"`
	Finish           string  `json:"finish"`
	CustomSize       string  `json:"custom_size"`
	AttrOther        string  `json:"attr_other"` // escape hatch for one-off attributes
	Price            float64 `json:"price"`      // 0 means inherit product price
	Stock            int     `json:"stock"`
	Reserved         int     `json:"reserved"`
	Active           bool    `gorm:"default:true" json:"active"`
	InventoryManaged bool    `gorm:"default:true" json:"inventory_managed"`
	BackorderAllowed bool    `json:"backorder_allowed"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UnitPrice resolves the effective base price for this variant.
func (v *ProductVariant) UnitPrice(p *Product) float64 {
	if v.Price > 0 {
		return v.Price
	}
	return p.Price
}

// FinalPrice applies the parent product discount to the variant price.
func (v *ProductVariant) FinalPrice(p *Product) float64 {
	base := v.UnitPrice(p)
	if p.DiscountPercent <= 0 {
		return base
	}
	return base * (1 - p.DiscountPercent/100)
}
