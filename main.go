package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CreedTech/blackrose-backend-sub000/cache"
	"github.com/CreedTech/blackrose-backend-sub000/config"
	paymentControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/payment"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/CreedTech/blackrose-backend-sub000/notifications"
	"github.com/CreedTech/blackrose-backend-sub000/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger, err := logging.Init(gin.Mode() != gin.ReleaseMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Init DB
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		sugar.Fatalw("DB connection failed", "error", err)
	}

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Transaction{},
		&models.WebhookEvent{},
	); err != nil {
		sugar.Fatalw("AutoMigrate failed", "error", err)
	}

	// Idempotency key store: Redis when configured, process-local otherwise
	var keys cache.Store
	if cfg.RedisAddr != "" {
		keys = cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		sugar.Warn("REDIS_ADDR not set, using in-process idempotency store")
		keys = cache.NewMemoryStore()
	}

	pay := &paymentControllers.Deps{
		DB:       db,
		Gateway:  paymentControllers.NewPaystackClient(cfg),
		Notifier: notifications.LogNotifier{},
		Keys:     keys,
		Cfg:      cfg,
	}

	// Gin setup
	r := gin.Default()

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, db, cfg, pay, keys)

	sugar.Infow("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		sugar.Fatalw("failed to start server", "error", err)
	}
}
