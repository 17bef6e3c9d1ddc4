package inventoryControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GET /products/:productID/availability?variant_id=&quantity=&preorder=
func CheckAvailabilityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("productID"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		qty := 1
		if q := c.Query("quantity"); q != "" {
			qty, err = strconv.Atoi(q)
			if err != nil || qty < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
				return
			}
		}

		var variantID *uint
		if v := c.Query("variant_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant id"})
				return
			}
			u := uint(id)
			variantID = &u
		}

		wantPreorder := c.Query("preorder") == "true"

		av, err := CheckAvailability(db, uint(productID), variantID, qty, wantPreorder)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product or variant not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check availability"})
			return
		}

		c.JSON(http.StatusOK, av)
	}
}
