package routes

import (
	"github.com/CreedTech/blackrose-backend-sub000/config"
	cartControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/cart"
	"github.com/CreedTech/blackrose-backend-sub000/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Settings) {
	cart := r.Group("/user/cart", middleware.ValidateToken(cfg.JWTSecret))
	{
		cart.GET("", cartControllers.GetUserCartHandler(db))
		cart.POST("", cartControllers.AddToCartHandler(db, cfg.PreorderMaxQuantity))
		cart.PUT("/:itemID", cartControllers.UpdateCartItemHandler(db, cfg.PreorderMaxQuantity))
		cart.DELETE("/:itemID", cartControllers.DeleteCartItemHandler(db))
		cart.DELETE("", cartControllers.ClearUserCartHandler(db))
	}

	admin := r.Group("/admin/cart", middleware.ValidateAPIKey(cfg.AdminAPIKey))
	{
		admin.GET("/:user_id", cartControllers.GetAdminUserCartHandler(db))
	}
}
