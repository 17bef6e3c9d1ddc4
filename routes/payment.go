package routes

import (
	"github.com/CreedTech/blackrose-backend-sub000/config"
	paymentControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/payment"
	"github.com/CreedTech/blackrose-backend-sub000/middleware"
	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(r *gin.Engine, cfg *config.Settings, pay *paymentControllers.Deps) {
	payment := r.Group("/payment")
	{
		// Charge intent creation and synchronous verification
		payment.POST("/initialize",
			middleware.ValidateToken(cfg.JWTSecret),
			paymentControllers.InitializePaymentHandler(pay),
		)
		payment.GET("/verify/:reference",
			middleware.ValidateToken(cfg.JWTSecret),
			paymentControllers.VerifyPaymentHandler(pay),
		)

		// Webhook endpoint: middleware authenticates the HMAC signature
		payment.POST("/webhook",
			middleware.PaystackWebhookAuth(cfg.PaystackSecretKey),
			paymentControllers.WebhookHandler(pay),
		)

		// Refunds (admin only)
		payment.POST("/refund",
			middleware.ValidateAPIKey(cfg.AdminAPIKey),
			paymentControllers.RefundHandler(pay),
		)
	}
}
