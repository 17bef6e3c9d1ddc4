package orderControllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	inventoryControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/inventory"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"gorm.io/gorm"
)

var ErrTrackingRequired = errors.New("carrier and tracking number are required")

// TrackingURL builds a carrier tracking link. Unknown carriers yield an
// empty URL, not an error.
func TrackingURL(carrier, trackingNumber string) string {
	switch strings.ToLower(carrier) {
	case "ups":
		return "https://www.ups.com/track?tracknum=" + trackingNumber
	case "fedex":
		return "https://www.fedex.com/fedextrack/?trknbr=" + trackingNumber
	case "usps":
		return "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + trackingNumber
	case "dhl":
		return "https://www.dhl.com/en/express/tracking.html?AWB=" + trackingNumber
	default:
		return ""
	}
}

func transitionError(from, to models.OrderStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Confirm moves a pending order to confirmed after a successful payment
// resolution. Confirming from any other state is a fatal application error
// surfaced to the caller, never retried.
func Confirm(tx *gorm.DB, order *models.Order, updatedBy string) error {
	if order.Status != models.OrderStatusPending {
		return transitionError(order.Status, models.OrderStatusConfirmed)
	}
	now := time.Now()
	order.Status = models.OrderStatusConfirmed
	order.PaymentStatus = models.PaymentStatusSuccess
	order.PaidAt = &now
	if err := tx.Model(order).Updates(map[string]interface{}{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"paid_at":        now,
	}).Error; err != nil {
		return err
	}
	return AppendHistory(tx, order.ID, models.OrderStatusConfirmed, "Payment confirmed", updatedBy)
}

// MarkPaymentFailed records a failed charge on a pending order.
func MarkPaymentFailed(tx *gorm.DB, order *models.Order, note, updatedBy string) error {
	if order.Status != models.OrderStatusPending {
		return transitionError(order.Status, models.OrderStatusPaymentFailed)
	}
	order.Status = models.OrderStatusPaymentFailed
	order.PaymentStatus = models.PaymentStatusFailed
	if err := tx.Model(order).Updates(map[string]interface{}{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	}).Error; err != nil {
		return err
	}
	return AppendHistory(tx, order.ID, models.OrderStatusPaymentFailed, note, updatedBy)
}

// MarkProcessing is an administrative transition from confirmed. It stamps
// the estimated delivery date: now + processing days + shipping days, where
// shipping is 2 days for express and 5 otherwise.
func MarkProcessing(db *gorm.DB, order *models.Order, processingDays int, updatedBy string) error {
	if order.Status != models.OrderStatusConfirmed {
		return transitionError(order.Status, models.OrderStatusProcessing)
	}
	shippingDays := 5
	if order.ShippingMethod == "express" {
		shippingDays = 2
	}
	est := time.Now().AddDate(0, 0, processingDays+shippingDays)
	order.Status = models.OrderStatusProcessing
	order.EstimatedDeliveryDate = &est
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":                  order.Status,
			"estimated_delivery_date": est,
		}).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusProcessing,
			"Estimated delivery "+est.Format("2006-01-02"), updatedBy)
	})
}

// MarkShipped requires a carrier and tracking number, stamps every item
// shipped, and records the tracking URL.
func MarkShipped(db *gorm.DB, order *models.Order, carrier, trackingNumber, updatedBy string) error {
	if order.Status != models.OrderStatusProcessing {
		return transitionError(order.Status, models.OrderStatusShipped)
	}
	if carrier == "" || trackingNumber == "" {
		return ErrTrackingRequired
	}
	order.Status = models.OrderStatusShipped
	order.Carrier = carrier
	order.TrackingNumber = trackingNumber
	order.TrackingURL = TrackingURL(carrier, trackingNumber)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":          order.Status,
			"carrier":         carrier,
			"tracking_number": trackingNumber,
			"tracking_url":    order.TrackingURL,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", order.ID).
			Update("item_status", models.ItemStatusShipped).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusShipped,
			"Shipped via "+carrier+" ("+trackingNumber+")", updatedBy)
	})
}

// MarkDelivered completes the happy path.
func MarkDelivered(db *gorm.DB, order *models.Order, updatedBy string) error {
	if order.Status != models.OrderStatusShipped {
		return transitionError(order.Status, models.OrderStatusDelivered)
	}
	order.Status = models.OrderStatusDelivered
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", order.Status).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", order.ID).
			Update("item_status", models.ItemStatusDelivered).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusDelivered, "Delivered", updatedBy)
	})
}

// Cancel aborts an order before fulfilment. Stock is restored only when it
// was actually taken, which happens at payment confirmation.
func Cancel(db *gorm.DB, order *models.Order, reason, updatedBy string) error {
	switch order.Status {
	case models.OrderStatusShipped, models.OrderStatusDelivered,
		models.OrderStatusCancelled, models.OrderStatusReturned,
		models.OrderStatusRefunded, models.OrderStatusPartiallyRefunded:
		return transitionError(order.Status, models.OrderStatusCancelled)
	}
	restock := order.PaymentStatus == models.PaymentStatusSuccess
	order.Status = models.OrderStatusCancelled
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", order.Status).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusCancelled, reason, updatedBy)
	})
	if err != nil {
		return err
	}
	if restock {
		RestockItems(db, order, nil)
	}
	return nil
}

// Return records a customer return after delivery and restores stock.
func Return(db *gorm.DB, order *models.Order, reason, updatedBy string) error {
	if order.Status != models.OrderStatusDelivered && order.Status != models.OrderStatusShipped {
		return transitionError(order.Status, models.OrderStatusReturned)
	}
	order.Status = models.OrderStatusReturned
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", order.Status).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", order.ID).
			Update("item_status", models.ItemStatusReturned).Error; err != nil {
			return err
		}
		return AppendHistory(tx, order.ID, models.OrderStatusReturned, reason, updatedBy)
	})
	if err != nil {
		return err
	}
	RestockItems(db, order, nil)
	return nil
}

// DecrementStockForOrder takes stock for every non-preorder item after a
// successful payment. Preorder items explicitly skip the mutation. Each
// item is applied in its own transaction; failures are collected so the
// caller can flag the order for manual reconciliation without rolling back
// the payment confirmation.
func DecrementStockForOrder(db *gorm.DB, order *models.Order) error {
	var errs []error
	for _, item := range order.Items {
		if item.IsPreorder {
			continue
		}
		item := item
		err := db.Transaction(func(tx *gorm.DB) error {
			return inventoryControllers.Decrement(tx, item.ProductID, item.VariantID, item.Quantity)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("item %q: %w", item.Title, err))
		}
	}
	return errors.Join(errs...)
}

// RestockItems restores inventory for the given quantities. A nil map means
// the full non-preorder quantity of every item.
func RestockItems(db *gorm.DB, order *models.Order, quantities map[uint]int) {
	for _, item := range order.Items {
		if item.IsPreorder {
			continue
		}
		qty := item.Quantity
		if quantities != nil {
			q, ok := quantities[item.ID]
			if !ok || q <= 0 {
				continue
			}
			qty = q
		}
		item := item
		err := db.Transaction(func(tx *gorm.DB) error {
			return inventoryControllers.Increment(tx, item.ProductID, item.VariantID, qty)
		})
		if err != nil {
			logging.L().Errorw("restock failed", "order", order.OrderNumber, "item", item.ID, "error", err)
		}
	}
}
