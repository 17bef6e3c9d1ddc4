package cartControllers

import (
	"errors"
	"fmt"
	"time"

	inventoryControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/inventory"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"gorm.io/gorm"
)

var ErrPreorderLimit = errors.New("preorder quantity limit exceeded")

// PreorderMaxQuantity caps a single preorder line to prevent abuse. It is
// the fallback when no limit is configured via PREORDER_MAX_QTY.
const PreorderMaxQuantity = 100

func preorderCap(limit int) int {
	if limit <= 0 {
		return PreorderMaxQuantity
	}
	return limit
}

// StockError is returned when the requested quantity cannot be satisfied and
// preorder is neither requested nor allowed. It carries the current stock so
// the caller can adjust or opt into preorder.
type StockError struct {
	Remaining int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d remaining", e.Remaining)
}

type AddItemInput struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
	Preorder  bool  `json:"preorder"` // explicit opt-in to a preorder fulfilment path
}

func getOrCreateCart(db *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID, CreatedAt: time.Now()}
		if err := db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem validates the product/variant, checks stock (falling back to a
// preorder path when eligible) and upserts the cart line with a price
// snapshot taken now, not a live pointer to the product.
func AddItem(db *gorm.DB, userID string, in AddItemInput, maxPreorder int) (*models.CartItem, error) {
	var product models.Product
	if err := db.First(&product, "id = ? AND active = ?", in.ProductID, true).Error; err != nil {
		return nil, err
	}
	if product.HasVariants && in.VariantID == nil {
		return nil, inventoryControllers.ErrVariantRequired
	}

	var variant *models.ProductVariant
	if in.VariantID != nil {
		var v models.ProductVariant
		if err := db.First(&v, "id = ? AND product_id = ? AND active = ?", *in.VariantID, in.ProductID, true).Error; err != nil {
			return nil, err
		}
		variant = &v
	}

	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return nil, err
	}

	// An existing line for the same stock unit accumulates quantity.
	var item models.CartItem
	existing := true
	query := db.Where("cart_id = ? AND product_id = ?", cart.CartID, in.ProductID)
	if in.VariantID != nil {
		query = query.Where("variant_id = ?", *in.VariantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}
	if err := query.First(&item).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		existing = false
	}

	newQty := in.Quantity
	if existing {
		newQty += item.Quantity
	}

	av, err := inventoryControllers.CheckAvailability(db, in.ProductID, in.VariantID, newQty, in.Preorder)
	if err != nil {
		return nil, err
	}
	if !av.Available {
		return nil, &StockError{Remaining: av.StockRemaining}
	}
	if av.IsPreorder && newQty > preorderCap(maxPreorder) {
		return nil, ErrPreorderLimit
	}

	unitPrice := product.Price
	finalPrice := product.FinalPrice()
	sku := product.SKU
	if variant != nil {
		unitPrice = variant.UnitPrice(&product)
		finalPrice = variant.FinalPrice(&product)
		if variant.SKU != "" {
			sku = variant.SKU
		}
	}

	if !existing {
		item = models.CartItem{
			CartID:    cart.CartID,
			ProductID: product.ID,
			VariantID: in.VariantID,
		}
	}
	item.Title = product.Title
	item.SKU = sku
	item.Image = product.Image
	item.UnitPrice = unitPrice
	item.DiscountPercent = product.DiscountPercent
	item.FinalPrice = finalPrice
	item.Quantity = newQty
	item.IsPreorder = av.IsPreorder
	item.EstimatedDelivery = av.EstimatedDelivery
	item.FulfillmentNote = av.Note
	item.AddedAt = time.Now()

	if err := db.Save(&item).Error; err != nil {
		return nil, err
	}

	if variant != nil && variant.InventoryManaged {
		// Soft reservation, advisory only.
		if err := inventoryControllers.Reserve(db, variant.ID, in.Quantity); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
// Stock is re-validated unless the line is already a preorder.
func UpdateQuantity(db *gorm.DB, userID string, itemID uint, qty, maxPreorder int) (*models.CartItem, error) {
	item, err := findUserCartItem(db, userID, itemID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		return nil, removeItem(db, item)
	}

	if item.IsPreorder {
		if qty > preorderCap(maxPreorder) {
			return nil, ErrPreorderLimit
		}
	} else {
		av, err := inventoryControllers.CheckAvailability(db, item.ProductID, item.VariantID, qty, false)
		if err != nil {
			return nil, err
		}
		if !av.Available {
			return nil, &StockError{Remaining: av.StockRemaining}
		}
		item.IsPreorder = av.IsPreorder
		item.EstimatedDelivery = av.EstimatedDelivery
		item.FulfillmentNote = av.Note
	}

	delta := qty - item.Quantity
	item.Quantity = qty
	item.AddedAt = time.Now()
	if err := db.Save(item).Error; err != nil {
		return nil, err
	}

	if item.VariantID != nil && delta != 0 {
		if delta > 0 {
			_ = inventoryControllers.Reserve(db, *item.VariantID, delta)
		} else {
			_ = inventoryControllers.Release(db, *item.VariantID, -delta)
		}
	}

	return item, nil
}

// RemoveItem deletes one line and releases its soft reservation.
func RemoveItem(db *gorm.DB, userID string, itemID uint) error {
	item, err := findUserCartItem(db, userID, itemID)
	if err != nil {
		return err
	}
	return removeItem(db, item)
}

func removeItem(db *gorm.DB, item *models.CartItem) error {
	if err := db.Delete(item).Error; err != nil {
		return err
	}
	if item.VariantID != nil {
		_ = inventoryControllers.Release(db, *item.VariantID, item.Quantity)
	}
	return nil
}

// ClearCart drops every line in the user's cart, releasing reservations.
// Also called by payment reconciliation after a successful charge.
func ClearCart(db *gorm.DB, userID string) error {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	for _, item := range cart.Items {
		if item.VariantID != nil {
			_ = inventoryControllers.Release(db, *item.VariantID, item.Quantity)
		}
	}
	return db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
}

func findUserCartItem(db *gorm.DB, userID string, itemID uint) (*models.CartItem, error) {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	var item models.CartItem
	if err := db.Where("id = ? AND cart_id = ?", itemID, cart.CartID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
