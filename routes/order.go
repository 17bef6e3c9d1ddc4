package routes

import (
	"github.com/CreedTech/blackrose-backend-sub000/config"
	orderControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/order"
	"github.com/CreedTech/blackrose-backend-sub000/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Settings) {
	orders := r.Group("/orders", middleware.ValidateToken(cfg.JWTSecret))
	{
		// Create a new order from the current cart
		orders.POST("", orderControllers.CreateOrderHandler(db, cfg))

		// Fetch orders for the authenticated user
		orders.GET("/mine", orderControllers.GetUserOrdersHandler(db))

		// Fetch a single order by id or order number
		orders.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
	}

	admin := r.Group("/admin/orders", middleware.ValidateAPIKey(cfg.AdminAPIKey))
	{
		admin.GET("", orderControllers.GetAllOrdersHandler(db))
		admin.GET("/export", orderControllers.ExportOrdersToExcel(db))
		admin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db, cfg))

		// websocket endpoint for real-time order updates
		admin.GET("/ws", orderControllers.OrderWebSocketHandler)
	}
}
