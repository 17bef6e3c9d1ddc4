package orderControllers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/CreedTech/blackrose-backend-sub000/config"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type CreateOrderInput struct {
	ShippingMethod string `json:"shipping_method"` // "standard" (default) or "express"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// generateOrderNumber builds a unique human-readable order number.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "ORD-" + time.Now().Format("20060102") + "-" + suffix
}

// AppendHistory adds one append-only status history row. Every transition
// appends exactly one; nothing ever overwrites history.
func AppendHistory(tx *gorm.DB, orderID uint, status models.OrderStatus, note, updatedBy string) error {
	return tx.Create(&models.OrderStatusHistory{
		OrderID:   orderID,
		Status:    status,
		Note:      note,
		UpdatedBy: updatedBy,
		CreatedAt: time.Now(),
	}).Error
}

// ComputeTotals recomputes the money fields from the item snapshots plus
// config rates. Totals are never accepted verbatim from a client payload.
func ComputeTotals(order *models.Order, cfg *config.Settings) {
	var subtotal, discount float64
	for _, item := range order.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
		discount += (item.UnitPrice - item.FinalPrice) * float64(item.Quantity)
	}
	shipping := cfg.ShippingStandard
	if order.ShippingMethod == "express" {
		shipping = cfg.ShippingExpress
	}
	order.Subtotal = round2(subtotal)
	order.DiscountApplied = round2(discount)
	order.ShippingCost = round2(shipping)
	order.TaxAmount = round2((subtotal - discount) * cfg.TaxRate)
	order.Amount = round2(order.Subtotal - order.DiscountApplied + order.ShippingCost + order.TaxAmount)
}

// CreateOrderFromCart snapshots the user's cart into a new pending order.
// Cart lines are copied, not referenced, so later product edits never touch
// this order. The cart itself is preserved until payment succeeds.
func CreateOrderFromCart(db *gorm.DB, cfg *config.Settings, userID string, in CreateOrderInput) (*models.Order, error) {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	method := in.ShippingMethod
	if method != "express" {
		method = "standard"
	}

	order := models.Order{
		OrderNumber:    generateOrderNumber(),
		UserID:         userID,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		ShippingMethod: method,
		CreatedAt:      time.Now(),
	}

	for _, line := range cart.Items {
		// Lines must still refer to active catalog entries.
		var product models.Product
		if err := db.First(&product, "id = ? AND active = ?", line.ProductID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product %q is no longer available", line.Title)
			}
			return nil, err
		}
		if line.VariantID != nil {
			var variant models.ProductVariant
			if err := db.First(&variant, "id = ? AND active = ?", *line.VariantID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("selected variant of %q is no longer available", line.Title)
				}
				return nil, err
			}
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:       line.ProductID,
			VariantID:       line.VariantID,
			Title:           line.Title,
			SKU:             line.SKU,
			Image:           line.Image,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			FinalPrice:      line.FinalPrice,
			Quantity:        line.Quantity,
			ItemStatus:      models.ItemStatusPending,
			IsPreorder:      line.IsPreorder,
			FulfillmentNote: line.FulfillmentNote,
		})
		if line.IsPreorder {
			order.HasPreorderItems = true
		}
	}

	ComputeTotals(&order, cfg)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusPending, "Order created", userID)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder loads an order with its items and history by numeric id or order
// number.
func GetOrder(db *gorm.DB, idOrNumber string) (*models.Order, error) {
	var order models.Order
	query := db.Preload("Items").Preload("StatusHistory")
	if id, err := strconv.ParseUint(idOrNumber, 10, 32); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_number = ?", idOrNumber)
	}
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
