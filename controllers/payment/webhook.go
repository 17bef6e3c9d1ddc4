package paymentControllers

import (
	"encoding/json"
	"net/http"
	"time"

	orderControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/order"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/middleware"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/gin-gonic/gin"
)

const webhookDedupTTL = 24 * time.Hour

type webhookPayload struct {
	Event string     `json:"event"`
	Data  ChargeData `json:"data"`
}

// WebhookHandler processes gateway events. The HMAC signature middleware has
// already authenticated the payload and stashed the raw body. After that
// point the handler always acks 200 so the gateway stops retrying; internal
// failures are logged and recorded on the audit row, never surfaced.
func WebhookHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawBody := middleware.RawWebhookBody(c)
		if rawBody == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
			return
		}

		var payload webhookPayload
		if err := json.Unmarshal(rawBody, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}

		// Raw copy persisted before any processing, for replay and audit.
		event := models.WebhookEvent{
			EventType: payload.Event,
			Reference: payload.Data.Reference,
			Payload:   string(rawBody),
			CreatedAt: time.Now(),
		}
		if err := d.DB.Create(&event).Error; err != nil {
			logging.L().Errorw("failed to persist webhook event", "event", payload.Event, "error", err)
			c.JSON(http.StatusOK, gin.H{"message": "acknowledged"})
			return
		}

		// Byte-identical redeliveries are dropped cheaply before touching
		// the ledger; the ledger CAS makes slipping past this harmless.
		dedupKey := "webhook:" + payload.Event + ":" + payload.Data.Reference
		if acquired, err := d.Keys.Acquire(c.Request.Context(), dedupKey, webhookDedupTTL); err != nil {
			logging.L().Warnw("idempotency store unavailable, relying on ledger guard", "error", err)
		} else if !acquired {
			logging.L().Infow("duplicate webhook suppressed", "event", payload.Event, "reference", payload.Data.Reference)
			markWebhookProcessed(d, &event, "duplicate delivery")
			c.JSON(http.StatusOK, gin.H{"message": "duplicate acknowledged"})
			return
		}

		var procErr error
		switch payload.Event {
		case "charge.success", "charge.failed":
			if payload.Event == "charge.failed" {
				payload.Data.Status = "failed"
			}
			_, procErr = d.ApplyChargeResult(&payload.Data)
		case "transfer.success":
			procErr = d.resolveRefund(&payload.Data, true)
		case "transfer.failed":
			procErr = d.resolveRefund(&payload.Data, false)
		default:
			logging.L().Infow("ignoring webhook event", "event", payload.Event)
		}

		if procErr != nil {
			logging.L().Errorw("webhook processing failed",
				"event", payload.Event, "reference", payload.Data.Reference, "error", procErr)
			markWebhookProcessed(d, &event, procErr.Error())
			// Give the key back so a gateway redelivery can retry the
			// outcome instead of being suppressed as a duplicate.
			if err := d.Keys.Release(c.Request.Context(), dedupKey); err != nil {
				logging.L().Warnw("failed to release idempotency key", "key", dedupKey, "error", err)
			}
		} else {
			markWebhookProcessed(d, &event, "")
		}

		// Always acknowledge: an internal failure must not trigger infinite
		// gateway retries that mask the real bug.
		c.JSON(http.StatusOK, gin.H{"message": "acknowledged"})
	}
}

func markWebhookProcessed(d *Deps, event *models.WebhookEvent, note string) {
	updates := map[string]interface{}{"processed": true, "error": note}
	if err := d.DB.Model(event).Updates(updates).Error; err != nil {
		logging.L().Errorw("failed to mark webhook event", "event", event.ID, "error", err)
	}
}

// resolveRefund settles a pending refund transaction once the gateway
// reports the transfer outcome.
func (d *Deps) resolveRefund(data *ChargeData, success bool) error {
	resolved, ledger, err := ResolveTransaction(d.DB, data.Reference, success,
		gatewayRefString(data.GatewayID), data.Channel, FromMinorUnits(data.Fees))
	if err != nil {
		return err
	}
	if !resolved {
		logging.L().Infow("refund already resolved", "reference", data.Reference)
		return nil
	}

	note := "Refund settled by gateway"
	if !success {
		note = "Refund failed at gateway - manual follow-up required"
	}
	if err := orderControllers.AppendHistory(d.DB, ledger.OrderID, currentOrderStatus(d, ledger.OrderID), note, "payment-gateway"); err != nil {
		return err
	}
	return nil
}

func currentOrderStatus(d *Deps, orderID uint) models.OrderStatus {
	var order models.Order
	if err := d.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return models.OrderStatus("")
	}
	return order.Status
}
