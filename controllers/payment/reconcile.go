package paymentControllers

import (
	"strconv"

	"github.com/CreedTech/blackrose-backend-sub000/cache"
	"github.com/CreedTech/blackrose-backend-sub000/config"
	cartControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/cart"
	inventoryControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/inventory"
	orderControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/order"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/CreedTech/blackrose-backend-sub000/notifications"
	"gorm.io/gorm"
)

// Deps bundles the collaborators every payment flow needs.
type Deps struct {
	DB       *gorm.DB
	Gateway  Gateway
	Notifier notifications.Notifier
	Keys     cache.Store
	Cfg      *config.Settings
}

// ReconcileResult reports what a resolution attempt did. Applied=false with
// no error means another resolution path got there first.
type ReconcileResult struct {
	Applied     bool                `json:"applied"`
	Message     string              `json:"message"`
	Order       *models.Order       `json:"order,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// ApplyChargeResult applies a resolved charge outcome to the transaction
// ledger, the order, inventory and notifications exactly once. Both the
// synchronous verify call and the asynchronous webhook land here, so
// re-delivery of the same outcome is safe by construction.
func (d *Deps) ApplyChargeResult(data *ChargeData) (*ReconcileResult, error) {
	success := data.Status == "success"
	result := &ReconcileResult{}

	err := d.DB.Transaction(func(tx *gorm.DB) error {
		resolved, ledger, err := ResolveTransaction(tx, data.Reference, success,
			gatewayRefString(data.GatewayID), data.Channel, FromMinorUnits(data.Fees))
		if err != nil {
			return err
		}
		result.Transaction = ledger
		if !resolved {
			result.Message = "transaction already resolved"
			return nil
		}

		var order models.Order
		if err := tx.Preload("Items").First(&order, "id = ?", ledger.OrderID).Error; err != nil {
			return err
		}

		// Critical double-update guard: another resolution path may have
		// completed the order between our read and theirs.
		if order.PaymentStatus != models.PaymentStatusPending {
			result.Message = "order payment already resolved"
			return nil
		}

		if success {
			order.PaymentChannel = data.Channel
			if err := tx.Model(&order).Update("payment_channel", data.Channel).Error; err != nil {
				return err
			}
			if err := orderControllers.Confirm(tx, &order, "payment-gateway"); err != nil {
				return err
			}
		} else {
			note := "Payment failed"
			if data.GatewayResp != "" {
				note = "Payment failed: " + data.GatewayResp
			}
			if err := orderControllers.MarkPaymentFailed(tx, &order, note, "payment-gateway"); err != nil {
				return err
			}
		}

		result.Applied = true
		result.Order = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Applied {
		logging.L().Infow("charge resolution skipped", "reference", data.Reference, "reason", result.Message)
		return result, nil
	}

	if success {
		d.afterPaymentSuccess(result.Order)
		result.Message = "payment confirmed"
	} else {
		d.afterPaymentFailure(result.Order, data.GatewayResp)
		result.Message = "payment failed"
	}
	return result, nil
}

// afterPaymentSuccess runs the side effects of a confirmed payment. Payment
// success is more authoritative than inventory bookkeeping: an inventory
// failure here is logged onto the order for manual follow-up, never rolled
// back into the confirmation.
func (d *Deps) afterPaymentSuccess(order *models.Order) {
	if err := orderControllers.DecrementStockForOrder(d.DB, order); err != nil {
		logging.L().Errorw("inventory update failed after payment",
			"order", order.OrderNumber, "error", err)
		if histErr := orderControllers.AppendHistory(d.DB, order.ID, order.Status,
			"Inventory update failed - manual check required", "system"); histErr != nil {
			logging.L().Errorw("failed to record inventory failure note",
				"order", order.OrderNumber, "error", histErr)
		}
	}

	seen := map[uint]bool{}
	for _, item := range order.Items {
		if item.IsPreorder || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		inventoryControllers.CheckStockAlerts(d.DB, d.Notifier, d.Cfg.AdminEmail, item.ProductID)
	}

	// The cart is consumed only once payment is confirmed.
	if err := cartControllers.ClearCart(d.DB, order.UserID); err != nil {
		logging.L().Errorw("failed to clear cart after payment",
			"order", order.OrderNumber, "error", err)
	}

	email := d.userEmail(order.UserID)
	notifications.Safe("order-confirmation", func() error {
		return d.Notifier.SendOrderConfirmation(order, email)
	})
	if tx, err := FindPaymentTransaction(d.DB, order.ID); err == nil {
		notifications.Safe("payment-confirmation", func() error {
			return d.Notifier.SendPaymentConfirmation(order, email, tx)
		})
	}
	notifications.Safe("new-order-alert", func() error {
		return d.Notifier.SendNewOrderAlert(order, d.Cfg.AdminEmail)
	})
	if order.HasPreorderItems {
		notifications.Safe("preorder-notification", func() error {
			return d.Notifier.SendPreorderNotification(order, email)
		})
	}

	orderControllers.BroadcastOrderEvent("order.confirmed", order)
}

func (d *Deps) afterPaymentFailure(order *models.Order, reason string) {
	email := d.userEmail(order.UserID)
	notifications.Safe("payment-failed", func() error {
		return d.Notifier.SendPaymentFailedNotification(order, email, reason)
	})
	orderControllers.BroadcastOrderEvent("order.payment_failed", order)
}

func gatewayRefString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func (d *Deps) userEmail(userID string) string {
	var user models.User
	if err := d.DB.First(&user, "id = ?", userID).Error; err != nil {
		logging.L().Warnw("user lookup failed for notification", "user", userID, "error", err)
		return ""
	}
	return user.Email
}
