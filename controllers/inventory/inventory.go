package inventoryControllers

import (
	"errors"
	"fmt"

	"github.com/CreedTech/blackrose-backend-sub000/models"
	"gorm.io/gorm"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVariantRequired   = errors.New("product has variants, a variant must be selected")
)

// Availability is the result of a stock check for one stock unit.
type Availability struct {
	Available         bool   `json:"available"`
	StockRemaining    int    `json:"stock_remaining"`
	IsPreorder        bool   `json:"is_preorder"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
	Note              string `json:"note,omitempty"`
}

// EstimatedDelivery maps an availability type to the delivery window quoted
// on preorder lines.
func EstimatedDelivery(t models.AvailabilityType) string {
	switch t {
	case models.AvailabilityPreorder:
		return "7-14 days"
	case models.AvailabilityMadeToOrder:
		return "14-21 days"
	case models.AvailabilityLimitedEdition:
		return "3-7 days"
	default:
		return "7-14 days"
	}
}

func preorderEligible(p *models.Product, v *models.ProductVariant, optIn bool) bool {
	if v != nil && v.BackorderAllowed {
		return true
	}
	switch p.AvailabilityType {
	case models.AvailabilityPreorder, models.AvailabilityMadeToOrder, models.AvailabilityLimitedEdition:
		return true
	}
	return optIn
}

// CheckAvailability reports whether qty of the stock unit can be sold right
// now, from stock or through a preorder fulfilment path. It is advisory: the
// order confirmation path re-validates in real time before committing.
func CheckAvailability(db *gorm.DB, productID uint, variantID *uint, qty int, wantPreorder bool) (*Availability, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	var product models.Product
	if err := db.First(&product, "id = ? AND active = ?", productID, true).Error; err != nil {
		return nil, err
	}

	var variant *models.ProductVariant
	stock := product.Stock
	if variantID != nil {
		var v models.ProductVariant
		if err := db.First(&v, "id = ? AND product_id = ? AND active = ?", *variantID, productID, true).Error; err != nil {
			return nil, err
		}
		variant = &v
		stock = v.Stock
	}

	if stock >= qty {
		return &Availability{Available: true, StockRemaining: stock}, nil
	}

	if preorderEligible(&product, variant, wantPreorder) {
		av := &Availability{
			Available:         true,
			StockRemaining:    stock,
			IsPreorder:        true,
			EstimatedDelivery: EstimatedDelivery(product.AvailabilityType),
		}
		if stock > 0 {
			// Partial stock: the line is not split, the remainder ships as a
			// preorder and the note travels with the line.
			av.Note = fmt.Sprintf("%d of %d in stock; remaining %d will ship as preorder (est. %s)",
				stock, qty, qty-stock, av.EstimatedDelivery)
		} else {
			av.Note = fmt.Sprintf("preorder, estimated delivery %s", av.EstimatedDelivery)
		}
		return av, nil
	}

	return &Availability{Available: false, StockRemaining: stock}, nil
}

// Decrement subtracts qty from the stock unit inside the caller's
// transaction. The predicate `stock >= qty` rides on the UPDATE itself, so
// concurrent decrements can never drive stock negative. When the unit is a
// variant, the parent product's aggregate stock is recomputed afterwards.
func Decrement(tx *gorm.DB, productID uint, variantID *uint, qty int) error {
	if variantID != nil {
		res := tx.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ? AND stock >= ?", *variantID, productID, qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return decrementFailure(tx, &models.ProductVariant{}, *variantID)
		}
		return RecomputeProductStock(tx, productID)
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		return err
	}
	if product.HasVariants {
		return ErrVariantRequired
	}
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func decrementFailure(tx *gorm.DB, model interface{}, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrInsufficientStock
}

// Increment restores qty to the stock unit, used on cancellation, return and
// refund paths.
func Increment(db *gorm.DB, productID uint, variantID *uint, qty int) error {
	if variantID != nil {
		res := db.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return RecomputeProductStock(db, productID)
	}
	res := db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecomputeProductStock sets the parent product's stock to the sum of its
// active variants. Once variants exist the parent count is never tracked
// independently.
func RecomputeProductStock(tx *gorm.DB, productID uint) error {
	var total int64
	if err := tx.Model(&models.ProductVariant{}).
		Where("product_id = ? AND active = ?", productID, true).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", total).Error
}

// Reserve bumps the advisory reserved counter for managed-inventory
// variants. It never blocks another cart and is not re-validated at read
// time; the conditional Decrement at order confirmation is the authoritative
// guard.
func Reserve(db *gorm.DB, variantID uint, qty int) error {
	return db.Model(&models.ProductVariant{}).
		Where("id = ? AND inventory_managed = ?", variantID, true).
		UpdateColumn("reserved", gorm.Expr("reserved + ?", qty)).Error
}

// Release undoes a soft reservation, clamping at zero.
func Release(db *gorm.DB, variantID uint, qty int) error {
	return db.Model(&models.ProductVariant{}).
		Where("id = ? AND inventory_managed = ?", variantID, true).
		UpdateColumn("reserved", gorm.Expr("CASE WHEN reserved >= ? THEN reserved - ? ELSE 0 END", qty, qty)).Error
}
