package paymentControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	orderControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/order"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotRefundable     = errors.New("order is not in a refundable state")
	ErrRefundWindow      = errors.New("order is outside the refund window")
	ErrRefundAmount      = errors.New("refund amount exceeds the refundable balance")
	ErrRefundItemInvalid = errors.New("refund item does not belong to this order")
)

type RefundItemInput struct {
	OrderItemID uint `json:"order_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

type RefundRequest struct {
	OrderID string            `json:"order_id" binding:"required"`
	Amount  float64           `json:"amount"` // 0 means the full refundable balance
	Reason  string            `json:"reason" binding:"required"`
	Items   []RefundItemInput `json:"items"`
}

// IssueRefund calls the gateway, records the refund transaction linked to
// the originating payment, updates order status and restores inventory for
// the refunded item quantities only. Without an item list no stock moves.
func IssueRefund(d *Deps, order *models.Order, req RefundRequest, updatedBy string) (*models.Transaction, error) {
	if order.PaymentStatus != models.PaymentStatusSuccess {
		return nil, ErrNotRefundable
	}
	if d.Cfg.RefundWindowDays > 0 {
		cutoff := order.CreatedAt.AddDate(0, 0, d.Cfg.RefundWindowDays)
		if time.Now().After(cutoff) {
			return nil, ErrRefundWindow
		}
	}

	refundable := order.Amount - order.RefundAmount
	amount := req.Amount
	if amount <= 0 {
		amount = refundable
	}
	if amount > refundable+0.005 {
		return nil, ErrRefundAmount
	}

	// Validate item list before any external call.
	quantities := map[uint]int{}
	itemsByID := map[uint]*models.OrderItem{}
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}
	for _, ri := range req.Items {
		item, ok := itemsByID[ri.OrderItemID]
		if !ok {
			return nil, ErrRefundItemInvalid
		}
		if ri.Quantity > item.Quantity-item.ReturnedQuantity {
			return nil, fmt.Errorf("%w: quantity too high for %q", ErrRefundItemInvalid, item.Title)
		}
		quantities[ri.OrderItemID] = ri.Quantity
	}

	parent, err := FindPaymentTransaction(d.DB, order.ID)
	if err != nil {
		return nil, err
	}
	gatewayRef := parent.GatewayReference
	if gatewayRef == "" {
		gatewayRef = parent.Reference
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.Cfg.GatewayTimeout)
	defer cancel()
	if _, err := d.Gateway.Refund(ctx, gatewayRef, ToMinorUnits(amount), req.Reason); err != nil {
		return nil, err
	}

	txType := models.TransactionTypeRefund
	partial := amount < refundable || order.RefundAmount > 0
	if partial {
		txType = models.TransactionTypePartialRefund
	}

	reference := uuid.NewString()
	refundTx, err := CreatePendingTransaction(d.DB, reference, order, txType, amount, d.Cfg.Currency, &parent.ID)
	if err != nil {
		return nil, err
	}

	newStatus := models.OrderStatusPartiallyRefunded
	newPayStatus := order.PaymentStatus
	if !partial {
		newStatus = models.OrderStatusRefunded
		newPayStatus = models.PaymentStatusRefunded
	}

	err = d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":         newStatus,
			"payment_status": newPayStatus,
			"refund_amount":  order.RefundAmount + amount,
		}).Error; err != nil {
			return err
		}
		order.Status = newStatus
		order.PaymentStatus = newPayStatus
		order.RefundAmount += amount

		for id, qty := range quantities {
			item := itemsByID[id]
			status := models.ItemStatusPartiallyReturned
			if item.ReturnedQuantity+qty >= item.Quantity {
				status = models.ItemStatusReturned
			}
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", id).Updates(map[string]interface{}{
				"item_status":       status,
				"returned_quantity": item.ReturnedQuantity + qty,
			}).Error; err != nil {
				return err
			}
			item.ReturnedQuantity += qty
			item.ItemStatus = status
		}

		note := fmt.Sprintf("Refund of %.2f requested: %s", amount, req.Reason)
		return orderControllers.AppendHistory(tx, order.ID, newStatus, note, updatedBy)
	})
	if err != nil {
		return nil, err
	}

	// Itemized refunds restore exactly the refunded quantities; a bare
	// amount refund moves no stock.
	if len(quantities) > 0 {
		orderControllers.RestockItems(d.DB, order, quantities)
	}

	return refundTx, nil
}

// POST /payment/refund (admin only)
func RefundHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefundRequest
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

		updatedBy := "admin"
		if v, ok := c.Get("user_id"); ok {
			updatedBy = v.(string)
		}

		refundTx, err := IssueRefund(d, order, req, updatedBy)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotRefundable), errors.Is(err, ErrRefundWindow),
				errors.Is(err, ErrRefundAmount), errors.Is(err, ErrRefundItemInvalid),
				errors.Is(err, ErrTransactionNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				logging.L().Errorw("refund failed", "order", order.OrderNumber, "error", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reference": refundTx.Reference,
			"amount":    refundTx.Amount,
			"type":      refundTx.Type,
		})
	}
}
