package paymentControllers

import (
	"testing"

	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paidOrder seeds a pending order and drives it through a successful charge
// so it sits in the refundable state.
func paidOrder(t *testing.T, deps *Deps, reference string) *models.Order {
	t.Helper()
	order, _ := seedPendingOrder(t, deps.DB, reference)
	result, err := deps.ApplyChargeResult(successCharge(reference))
	require.NoError(t, err)
	require.True(t, result.Applied)

	var got models.Order
	require.NoError(t, deps.DB.Preload("Items").First(&got, "id = ?", order.ID).Error)
	return &got
}

func TestIssueRefundPartialAmount(t *testing.T) {
	gw := &fakeGateway{}
	deps, _ := newTestDeps(t, gw)
	order := paidOrder(t, deps, "ref-refund-1")
	product := order.Items[0].ProductID

	tx, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Amount:  5000,
		Reason:  "Damaged frame corner",
	}, "admin")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypePartialRefund, tx.Type)
	assert.Equal(t, models.TransactionPending, tx.Status, "refund settles on transfer webhook")
	assert.Equal(t, 5000.0, tx.Amount)
	require.NotNil(t, tx.ParentTransactionID)

	var got models.Order
	require.NoError(t, deps.DB.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPartiallyRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusSuccess, got.PaymentStatus)
	assert.Equal(t, 5000.0, got.RefundAmount)

	// Amount-only refund moves no stock.
	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", product).Error)
	assert.Equal(t, 8, gotP.Stock)

	require.Len(t, gw.refundCalls, 1)
	assert.EqualValues(t, 500000, gw.refundCalls[0], "gateway sees minor units")
}

func TestIssueRefundItemized(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order := paidOrder(t, deps, "ref-refund-2")
	item := order.Items[0] // quantity 2

	tx, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Amount:  10000,
		Reason:  "One of two prints returned",
		Items:   []RefundItemInput{{OrderItemID: item.ID, Quantity: 1}},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePartialRefund, tx.Type)

	// Exactly the refunded quantity comes back into stock.
	var gotP models.Product
	require.NoError(t, deps.DB.First(&gotP, "id = ?", item.ProductID).Error)
	assert.Equal(t, 9, gotP.Stock)

	var gotItem models.OrderItem
	require.NoError(t, deps.DB.First(&gotItem, "id = ?", item.ID).Error)
	assert.Equal(t, models.ItemStatusPartiallyReturned, gotItem.ItemStatus)
	assert.Equal(t, 1, gotItem.ReturnedQuantity)
}

func TestIssueRefundFull(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order := paidOrder(t, deps, "ref-refund-3")

	tx, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Reason:  "Order cancelled before shipping",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeRefund, tx.Type)
	assert.Equal(t, order.Amount, tx.Amount)

	var got models.Order
	require.NoError(t, deps.DB.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)
}

func TestIssueRefundGuards(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})

	t.Run("unpaid order", func(t *testing.T) {
		order, _ := seedPendingOrder(t, deps.DB, "ref-refund-4")
		_, err := IssueRefund(deps, order, RefundRequest{OrderID: order.OrderNumber, Reason: "x"}, "admin")
		assert.ErrorIs(t, err, ErrNotRefundable)
	})
}

func TestIssueRefundAmountExceedsBalance(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order := paidOrder(t, deps, "ref-refund-5")

	_, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Amount:  order.Amount + 1,
		Reason:  "too much",
	}, "admin")
	assert.ErrorIs(t, err, ErrRefundAmount)
}

func TestIssueRefundRejectsForeignItem(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order := paidOrder(t, deps, "ref-refund-6")

	_, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Amount:  1000,
		Reason:  "x",
		Items:   []RefundItemInput{{OrderItemID: 99999, Quantity: 1}},
	}, "admin")
	assert.ErrorIs(t, err, ErrRefundItemInvalid)
}

func TestRefundSettledByTransferWebhook(t *testing.T) {
	deps, _ := newTestDeps(t, &fakeGateway{})
	order := paidOrder(t, deps, "ref-refund-7")

	tx, err := IssueRefund(deps, order, RefundRequest{
		OrderID: order.OrderNumber,
		Amount:  5000,
		Reason:  "Damaged",
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, deps.resolveRefund(&ChargeData{Reference: tx.Reference, GatewayID: 900}, true))

	var got models.Transaction
	require.NoError(t, deps.DB.First(&got, "reference = ?", tx.Reference).Error)
	assert.Equal(t, models.TransactionSuccess, got.Status)

	var history []models.OrderStatusHistory
	require.NoError(t, deps.DB.Where("order_id = ?", order.ID).Order("id").Find(&history).Error)
	require.NotEmpty(t, history)
	assert.Equal(t, "Refund settled by gateway", history[len(history)-1].Note)
}
