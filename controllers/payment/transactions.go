package paymentControllers

import (
	"errors"
	"time"

	"github.com/CreedTech/blackrose-backend-sub000/models"
	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// CreatePendingTransaction writes the ledger row for a gateway attempt
// before the gateway is called. Reference is the globally unique idempotency
// key for everything that follows.
func CreatePendingTransaction(db *gorm.DB, reference string, order *models.Order, txType models.TransactionType, amount float64, currency string, parentID *uint) (*models.Transaction, error) {
	tx := models.Transaction{
		Reference:           reference,
		OrderID:             order.ID,
		UserID:              order.UserID,
		Amount:              amount,
		Currency:            currency,
		Status:              models.TransactionPending,
		Type:                txType,
		Gateway:             "paystack",
		ParentTransactionID: parentID,
		CreatedAt:           time.Now(),
	}
	if err := db.Create(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// ResolveTransaction flips a pending transaction to success or failed. The
// status predicate rides on the UPDATE itself (compare-and-swap), so for any
// reference only the first resolution wins: a verify call and a webhook
// racing on the same reference cannot both mutate state. resolved=false with
// a nil error means the transaction was already resolved, a benign no-op
// for the caller.
func ResolveTransaction(db *gorm.DB, reference string, success bool, gatewayRef, channel string, fees float64) (bool, *models.Transaction, error) {
	outcome := models.TransactionFailed
	if success {
		outcome = models.TransactionSuccess
	}
	now := time.Now()

	res := db.Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, models.TransactionPending).
		Updates(map[string]interface{}{
			"status":            outcome,
			"gateway_reference": gatewayRef,
			"channel":           channel,
			"fees":              fees,
			"processed_at":      now,
		})
	if res.Error != nil {
		return false, nil, res.Error
	}

	var tx models.Transaction
	if err := db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, ErrTransactionNotFound
		}
		return false, nil, err
	}

	return res.RowsAffected > 0, &tx, nil
}

// FindPaymentTransaction returns the originating success payment row for an
// order, used to anchor refunds via ParentTransactionID.
func FindPaymentTransaction(db *gorm.DB, orderID uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.Where("order_id = ? AND type = ? AND status = ?",
		orderID, models.TransactionTypePayment, models.TransactionSuccess).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}
