package routes

import (
	"github.com/CreedTech/blackrose-backend-sub000/cache"
	"github.com/CreedTech/blackrose-backend-sub000/config"
	paymentControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/payment"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Settings, pay *paymentControllers.Deps, keys cache.Store) {
	// Public catalog routes
	SetupProductRoutes(r, db, cfg, keys)

	// Cart routes (JWT-protected)
	SetupCartRoutes(r, db, cfg)

	// Order routes (JWT-protected; admin subset API-key-protected)
	SetupOrderRoutes(r, db, cfg)

	// Payment routes
	SetupPaymentRoutes(r, cfg, pay)
}
