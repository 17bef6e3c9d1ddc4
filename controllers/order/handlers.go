package orderControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/CreedTech/blackrose-backend-sub000/config"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Reason         string `json:"reason"`
}

func adminIdentity(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		return v.(string)
	}
	return "admin"
}

// POST /orders
func CreateOrderHandler(db *gorm.DB, cfg *config.Settings) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var input CreateOrderInput
		if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		order, err := CreateOrderFromCart(db, cfg, userID, input)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyCart), errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		BroadcastOrderEvent("order.created", order)
		c.JSON(http.StatusCreated, order)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("Items").
			Preload("StatusHistory").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/mine
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var orders []models.Order
		if err := db.
			Where("user_id = ?", userIDVal.(string)).
			Preload("Items").
			Preload("StatusHistory").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/:orderID accepts a numeric id or an order number.
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("orderID")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
			return
		}
		order, err := GetOrder(db, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB, cfg *config.Settings) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := GetOrder(db, c.Param("orderID"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		by := adminIdentity(c)
		switch strings.ToLower(req.Status) {
		case string(models.OrderStatusProcessing):
			err = MarkProcessing(db, order, cfg.ProcessingDays, by)
		case string(models.OrderStatusShipped):
			err = MarkShipped(db, order, req.Carrier, req.TrackingNumber, by)
		case string(models.OrderStatusDelivered):
			err = MarkDelivered(db, order, by)
		case string(models.OrderStatusCancelled):
			err = Cancel(db, order, req.Reason, by)
		case string(models.OrderStatusReturned):
			err = Return(db, order, req.Reason, by)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported status"})
			return
		}

		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidTransition):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, ErrTrackingRequired):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				logging.L().Errorw("order status update failed", "order", order.OrderNumber, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
			}
			return
		}

		BroadcastOrderEvent("order.status", order)
		c.JSON(http.StatusOK, order)
	}
}
