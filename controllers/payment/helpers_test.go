package paymentControllers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/CreedTech/blackrose-backend-sub000/cache"
	"github.com/CreedTech/blackrose-backend-sub000/config"
	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func testConfig() *config.Settings {
	return &config.Settings{
		PaystackSecretKey: "sk_test_secret",
		GatewayTimeout:    5 * time.Second,
		AdminEmail:        "admin@blackrose.art",
		Currency:          "NGN",
		TaxRate:           0,
		ShippingStandard:  1500,
		ShippingExpress:   3500,
		ProcessingDays:    3,
		RefundWindowDays:  30,
	}
}

// fakeGateway returns canned responses and records refund calls.
type fakeGateway struct {
	mu          sync.Mutex
	verifyData  *ChargeData
	verifyErr   error
	refundErr   error
	refundCalls []int64
}

func (f *fakeGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	return &InitializeResult{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		AccessCode:       "AC_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*ChargeData, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	data := *f.verifyData
	data.Reference = reference
	return &data, nil
}

func (f *fakeGateway) Refund(ctx context.Context, gatewayRef string, amountMinor int64, reason string) (*RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refundCalls = append(f.refundCalls, amountMinor)
	return &RefundResult{GatewayID: 900, Status: "pending", AmountMinor: amountMinor}, nil
}

// recordingNotifier counts dispatches per notification kind.
type recordingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: map[string]int{}}
}

func (r *recordingNotifier) record(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[kind]++
}

func (r *recordingNotifier) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[kind]
}

func (r *recordingNotifier) SendOrderConfirmation(order *models.Order, email string) error {
	r.record("order-confirmation")
	return nil
}

func (r *recordingNotifier) SendPaymentConfirmation(order *models.Order, email string, tx *models.Transaction) error {
	r.record("payment-confirmation")
	return nil
}

func (r *recordingNotifier) SendPaymentFailedNotification(order *models.Order, email string, reason string) error {
	r.record("payment-failed")
	return nil
}

func (r *recordingNotifier) SendLowStockAlert(product *models.Product, adminEmail string) error {
	r.record("low-stock")
	return nil
}

func (r *recordingNotifier) SendOutOfStockAlert(product *models.Product, adminEmail string) error {
	r.record("out-of-stock")
	return nil
}

func (r *recordingNotifier) SendNewOrderAlert(order *models.Order, adminEmail string) error {
	r.record("new-order")
	return nil
}

func (r *recordingNotifier) SendPreorderNotification(order *models.Order, email string) error {
	r.record("preorder")
	return nil
}

func newTestDeps(t *testing.T, gw *fakeGateway) (*Deps, *recordingNotifier) {
	t.Helper()
	notifier := newRecordingNotifier()
	return &Deps{
		DB:       newTestDB(t),
		Gateway:  gw,
		Notifier: notifier,
		Keys:     cache.NewMemoryStore(),
		Cfg:      testConfig(),
	}, notifier
}

// seedPendingOrder builds a user, a stocked product, a cart line and a
// pending order with one pending payment transaction for the given
// reference.
func seedPendingOrder(t *testing.T, db *gorm.DB, reference string) (*models.Order, *models.Product) {
	t.Helper()
	user := models.User{ID: "user-1", Email: "kola@example.com"}
	require.NoError(t, db.Create(&user).Error)

	product := models.Product{
		Title:  "Harmattan Light",
		Slug:   "harmattan-light-" + t.Name(),
		Price:  10000,
		Active: true,
		Stock:  10,
	}
	require.NoError(t, db.Create(&product).Error)

	cart := models.Cart{UserID: user.ID}
	require.NoError(t, db.Create(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:     cart.CartID,
		ProductID:  product.ID,
		Title:      product.Title,
		UnitPrice:  10000,
		FinalPrice: 10000,
		Quantity:   2,
	}).Error)

	order := models.Order{
		OrderNumber:      "ORD-20260831-TEST" + fmt.Sprint(len(reference)),
		UserID:           user.ID,
		Status:           models.OrderStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		Amount:           20000,
		Subtotal:         20000,
		PaymentReference: reference,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, db.Create(&order).Error)
	item := models.OrderItem{
		OrderID:    order.ID,
		ProductID:  product.ID,
		Title:      product.Title,
		UnitPrice:  10000,
		FinalPrice: 10000,
		Quantity:   2,
		ItemStatus: models.ItemStatusPending,
	}
	require.NoError(t, db.Create(&item).Error)
	order.Items = []models.OrderItem{item}

	_, err := CreatePendingTransaction(db, reference, &order, models.TransactionTypePayment, order.Amount, "NGN", nil)
	require.NoError(t, err)
	return &order, &product
}
