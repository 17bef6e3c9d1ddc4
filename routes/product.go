package routes

import (
	"github.com/CreedTech/blackrose-backend-sub000/cache"
	"github.com/CreedTech/blackrose-backend-sub000/config"
	inventoryControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/inventory"
	productControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/product"
	"github.com/CreedTech/blackrose-backend-sub000/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupProductRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Settings, keys cache.Store) {
	products := r.Group("/products")
	{
		products.GET("", productControllers.ListProductsHandler(db))
		products.GET("/:productID", productControllers.GetProductHandler(db))
		products.GET("/:productID/availability", inventoryControllers.CheckAvailabilityHandler(db))
	}

	admin := r.Group("/admin/products", middleware.ValidateAPIKey(cfg.AdminAPIKey))
	{
		admin.POST("", productControllers.CreateProductHandler(db, keys))
	}
}
