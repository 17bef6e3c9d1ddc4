package paymentControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	orderControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/order"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrOrderNotPayable = errors.New("order payment is already resolved")

type InitializePaymentRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	CallbackURL string `json:"callback_url"`
}

// validatePurchasable re-checks every line right before calling out to the
// gateway: price and stock can have changed since cart-add. Accepted
// preorder lines are exempt.
func validatePurchasable(db *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if item.IsPreorder {
			continue
		}
		var product models.Product
		if err := db.First(&product, "id = ? AND active = ?", item.ProductID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%q is no longer available", item.Title)
			}
			return err
		}
		if item.VariantID != nil {
			var variant models.ProductVariant
			if err := db.First(&variant, "id = ? AND active = ?", *item.VariantID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("selected variant of %q is no longer available", item.Title)
				}
				return err
			}
			if variant.Stock < item.Quantity {
				return fmt.Errorf("%q has only %d left in stock", item.Title, variant.Stock)
			}
		} else if product.Stock < item.Quantity {
			return fmt.Errorf("%q has only %d left in stock", item.Title, product.Stock)
		}
	}
	return nil
}

// POST /payment/initialize
func InitializePaymentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var req InitializePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		order, err := orderControllers.GetOrder(d.DB, req.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "order belongs to another user"})
			return
		}
		if order.PaymentStatus != models.PaymentStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": ErrOrderNotPayable.Error()})
			return
		}
		if err := validatePurchasable(d.DB, order); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		email := d.userEmail(userID)
		reference := uuid.NewString()

		if _, err := CreatePendingTransaction(d.DB, reference, order,
			models.TransactionTypePayment, order.Amount, d.Cfg.Currency, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
			return
		}
		if err := d.DB.Model(order).Update("payment_reference", reference).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
			return
		}

		callbackURL := req.CallbackURL
		if callbackURL == "" {
			callbackURL = d.Cfg.CallbackURL
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d.Cfg.GatewayTimeout)
		defer cancel()
		result, err := d.Gateway.Initialize(ctx, InitializeRequest{
			Reference:   reference,
			Email:       email,
			AmountMinor: ToMinorUnits(order.Amount),
			Currency:    d.Cfg.Currency,
			CallbackURL: callbackURL,
			Metadata: map[string]interface{}{
				"order_number": order.OrderNumber,
				"user_id":      userID,
			},
		})
		if err != nil {
			// The order stays pending and unpaid; initialize can be retried
			// with a fresh reference.
			logging.L().Errorw("gateway initialize failed", "order", order.OrderNumber, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reference":         reference,
			"authorization_url": result.AuthorizationURL,
			"access_code":       result.AccessCode,
			"amount":            order.Amount,
		})
	}
}

// GET /payment/verify/:reference
//
// Verify drives the same resolution path as the webhook, guarded by the
// transaction ledger's idempotence, so polling it repeatedly is safe.
func VerifyPaymentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")
		if reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d.Cfg.GatewayTimeout)
		defer cancel()
		data, err := d.Gateway.Verify(ctx, reference)
		if err != nil {
			logging.L().Errorw("gateway verify failed", "reference", reference, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		result, err := d.ApplyChargeResult(data)
		if err != nil {
			if errors.Is(err, ErrTransactionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
				return
			}
			logging.L().Errorw("charge reconciliation failed", "reference", reference, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply payment result"})
			return
		}

		resp := gin.H{
			"status":  data.Status,
			"amount":  FromMinorUnits(data.Amount),
			"message": result.Message,
		}
		if result.Order != nil {
			resp["order_status"] = result.Order.Status
			resp["payment_status"] = result.Order.PaymentStatus
		} else if result.Transaction != nil {
			var order models.Order
			if err := d.DB.First(&order, "id = ?", result.Transaction.OrderID).Error; err == nil {
				resp["order_status"] = order.Status
				resp["payment_status"] = order.PaymentStatus
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
