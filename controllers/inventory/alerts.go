package inventoryControllers

import (
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/CreedTech/blackrose-backend-sub000/notifications"
	"gorm.io/gorm"
)

// CheckStockAlerts inspects a product after a stock mutation and dispatches
// low-stock / out-of-stock alerts asynchronously. Runs off the critical
// path; an alert failure never fails the mutation that triggered it.
func CheckStockAlerts(db *gorm.DB, notifier notifications.Notifier, adminEmail string, productID uint) {
	notifications.Go("stock-alert", func() error {
		var product models.Product
		if err := db.First(&product, "id = ?", productID).Error; err != nil {
			return err
		}
		if product.Stock <= 0 {
			return notifier.SendOutOfStockAlert(&product, adminEmail)
		}
		if product.LowStockAlert > 0 && product.Stock <= product.LowStockAlert {
			return notifier.SendLowStockAlert(&product, adminEmail)
		}
		return nil
	})
}
