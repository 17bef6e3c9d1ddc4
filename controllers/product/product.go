package productControllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/CreedTech/blackrose-backend-sub000/cache"
	inventoryControllers "github.com/CreedTech/blackrose-backend-sub000/controllers/inventory"
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// createProductTTL bounds how long a creation idempotency key suppresses a
// duplicate form submission.
const createProductTTL = 24 * time.Hour

type CreateProductInput struct {
	Title            string                  `json:"title" binding:"required"`
	Slug             string                  `json:"slug"`
	SKU              string                  `json:"sku"`
	Description      string                  `json:"description"`
	Image            string                  `json:"image"`
	Price            float64                 `json:"price" binding:"required,gt=0"`
	DiscountPercent  float64                 `json:"discount_percent" binding:"gte=0,lte=100"`
	AvailabilityType models.AvailabilityType `json:"availability_type"`
	Stock            int                     `json:"stock" binding:"gte=0"`
	LowStockAlert    int                     `json:"low_stock_alert"`
	Variants         []CreateVariantInput    `json:"variants"`
}

type CreateVariantInput struct {
	Name             string  `json:"name" binding:"required"`
	SKU              string  `json:"sku"`
	Color            string  `json:"color"`
	Size             string  `json:"size"`
	Material         string  `json:"material"`
	Finish           string  `json:"finish"`
	CustomSize       string  `json:"custom_size"`
	AttrOther        string  `json:"attr_other"`
	Price            float64 `json:"price"`
	Stock            int     `json:"stock" binding:"gte=0"`
	InventoryManaged *bool   `json:"inventory_managed"`
	BackorderAllowed bool    `json:"backorder_allowed"`
}

// POST /admin/products
//
// Duplicate submissions are suppressed by an Idempotency-Key header backed
// by the shared TTL key store, not an in-process cache, so retries behave
// the same across instances.
func CreateProductHandler(db *gorm.DB, keys cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if key := c.GetHeader("Idempotency-Key"); key != "" {
			acquired, err := keys.Acquire(c.Request.Context(), "product-create:"+key, createProductTTL)
			if err != nil {
				logging.L().Warnw("idempotency store unavailable", "error", err)
			} else if !acquired {
				c.JSON(http.StatusConflict, gin.H{"error": "Duplicate submission"})
				return
			}
		}

		availability := input.AvailabilityType
		if availability == "" {
			availability = models.AvailabilityInStock
		}
		slug := input.Slug
		if slug == "" {
			slug = strings.ToLower(strings.ReplaceAll(input.Title, " ", "-"))
		}

		product := models.Product{
			Title:            input.Title,
			Slug:             slug,
			SKU:              input.SKU,
			Description:      input.Description,
			Image:            input.Image,
			Price:            input.Price,
			DiscountPercent:  input.DiscountPercent,
			AvailabilityType: availability,
			Active:           true,
			Stock:            input.Stock,
			LowStockAlert:    input.LowStockAlert,
			HasVariants:      len(input.Variants) > 0,
		}
		for _, v := range input.Variants {
			managed := true
			if v.InventoryManaged != nil {
				managed = *v.InventoryManaged
			}
			product.Variants = append(product.Variants, models.ProductVariant{
				Name:             v.Name,
				SKU:              v.SKU,
				Color:            v.Color,
				Size:             v.Size,
				Material:         v.Material,
				Finish:           v.Finish,
				CustomSize:       v.CustomSize,
				AttrOther:        v.AttrOther,
				Price:            v.Price,
				Stock:            v.Stock,
				Active:           true,
				InventoryManaged: managed,
				BackorderAllowed: v.BackorderAllowed,
			})
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			if product.HasVariants {
				return inventoryControllers.RecomputeProductStock(tx, product.ID)
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

// GET /products/:productID
func GetProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		err := db.Preload("Variants", "active = ?", true).
			First(&product, "id = ? AND active = ?", c.Param("productID"), true).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /products
func ListProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.Preload("Variants", "active = ?", true).
			Where("active = ?", true).
			Order("created_at DESC").
			Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
