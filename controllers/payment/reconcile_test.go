package paymentControllers

import (
	"testing"

	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successCharge(reference string) *ChargeData {
	return &ChargeData{
		Status:    "success",
		Reference: reference,
		GatewayID: 4242,
		Amount:    2000000, // 20000.00 in kobo
		Fees:      30000,
		Currency:  "NGN",
		Channel:   "card",
	}
}

func TestApplyChargeResultSuccess(t *testing.T) {
	deps, notifier := newTestDeps(t, &fakeGateway{})
	order, product := seedPendingOrder(t, deps.DB, "ref-apply-1")

	result, err := deps.ApplyChargeResult(successCharge("ref-apply-1"))
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "payment confirmed", result.Message)

	var got models.Order
	require.NoError(t, deps.DB.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	assert.Equal(t, models.PaymentStatusSuccess, got.PaymentStatus)
	assert.Equal(t, "card", got.PaymentChannel)
	require.NotNil(t, got.PaidAt)

	var ledger models.Transaction
	require.NoError(t, deps.DB.First(&ledger, "reference = ?", "ref-apply-1").Error)
	assert.Equal(t, models.TransactionSuccess, ledger.Status)
	assert.Equal(t, 300.0, ledger.Fees)

	// Stock taken exactly once, cart consumed.
	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", product.ID).Error)
	assert.Equal(t, 8, gotP.Stock)
	var lines int64
	require.NoError(t, deps.DB.Model(&models.CartItem{}).Count(&lines).Error)
	assert.EqualValues(t, 0, lines)

	assert.Equal(t, 1, notifier.count("order-confirmation"))
	assert.Equal(t, 1, notifier.count("payment-confirmation"))
	assert.Equal(t, 1, notifier.count("new-order"))
}

func TestApplyChargeResultIsIdempotent(t *testing.T) {
	deps, notifier := newTestDeps(t, &fakeGateway{})
	_, product := seedPendingOrder(t, deps.DB, "ref-apply-2")

	first, err := deps.ApplyChargeResult(successCharge("ref-apply-2"))
	require.NoError(t, err)
	require.True(t, first.Applied)

	// Same outcome delivered again: webhook after verify, or a gateway
	// retry. Nothing may move twice.
	second, err := deps.ApplyChargeResult(successCharge("ref-apply-2"))
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, "transaction already resolved", second.Message)

	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", product.ID).Error)
	assert.Equal(t, 8, gotP.Stock, "stock decremented once, not twice")
	assert.Equal(t, 1, notifier.count("order-confirmation"))
}

func TestApplyChargeResultFailure(t *testing.T) {
	deps, notifier := newTestDeps(t, &fakeGateway{})
	order, product := seedPendingOrder(t, deps.DB, "ref-apply-3")

	data := successCharge("ref-apply-3")
	data.Status = "failed"
	data.GatewayResp = "Insufficient funds"

	result, err := deps.ApplyChargeResult(data)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "payment failed", result.Message)

	var got models.Order
	require.NoError(t, deps.DB.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPaymentFailed, got.Status)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)

	// Failure leaves stock and cart alone so the user can retry.
	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", product.ID).Error)
	assert.Equal(t, 10, gotP.Stock)
	var lines int64
	require.NoError(t, deps.DB.Model(&models.CartItem{}).Count(&lines).Error)
	assert.EqualValues(t, 1, lines)

	assert.Equal(t, 1, notifier.count("payment-failed"))
	assert.Equal(t, 0, notifier.count("order-confirmation"))

	var history []models.OrderStatusHistory
	require.NoError(t, deps.DB.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, "Payment failed: Insufficient funds", history[0].Note)
}

func TestApplyChargeResultInventoryShortfall(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order, product := seedPendingOrder(t, deps.DB, "ref-apply-4")

	// Stock vanished between order creation and payment confirmation.
	require.NoError(t, deps.DB.Model(product).Update("stock", 0).Error)

	result, err := deps.ApplyChargeResult(successCharge("ref-apply-4"))
	require.NoError(t, err)
	assert.True(t, result.Applied)

	// Payment wins: the order stays confirmed, the shortfall is flagged for
	// manual follow-up on the history.
	var got models.Order
	require.NoError(t, deps.DB.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)

	var notes []string
	var history []models.OrderStatusHistory
	require.NoError(t, deps.DB.Where("order_id = ?", order.ID).Find(&history).Error)
	for _, h := range history {
		notes = append(notes, h.Note)
	}
	assert.Contains(t, notes, "Inventory update failed - manual check required")
}

func TestApplyChargeResultPreorderItemsSkipStock(t *testing.T) {
	deps, notifier := newTestDeps(t, &fakeGateway{})
	order, _ := seedPendingOrder(t, deps.DB, "ref-apply-5")

	preorder := models.Product{
		Title:            "Commissioned Piece",
		Slug:             "commissioned-" + t.Name(),
		Price:            50000,
		Active:           true,
		Stock:            0,
		AvailabilityType: models.AvailabilityMadeToOrder,
	}
	require.NoError(t, deps.DB.Create(&preorder).Error)
	item := models.OrderItem{
		OrderID:    order.ID,
		ProductID:  preorder.ID,
		Title:      preorder.Title,
		Quantity:   1,
		ItemStatus: models.ItemStatusPending,
		IsPreorder: true,
	}
	require.NoError(t, deps.DB.Create(&item).Error)
	require.NoError(t, deps.DB.Model(order).Update("has_preorder_items", true).Error)

	result, err := deps.ApplyChargeResult(successCharge("ref-apply-5"))
	require.NoError(t, err)
	require.True(t, result.Applied)

	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", preorder.ID).Error)
	assert.Equal(t, 0, gotP.Stock)
	assert.Equal(t, 1, notifier.count("preorder"))
}

func TestApplyChargeResultUnknownReference(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})

	_, err := deps.ApplyChargeResult(successCharge("ref-ghost"))
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
