// Package notifications is the boundary to the external email service. Every
// call here is fire-and-forget from the core's perspective: failures are
// logged by the caller via Safe and never propagated.
package notifications

import (
	"github.com/CreedTech/blackrose-backend-sub000/logging"
	"github.com/CreedTech/blackrose-backend-sub000/models"
)

type Notifier interface {
	SendOrderConfirmation(order *models.Order, email string) error
	SendPaymentConfirmation(order *models.Order, email string, tx *models.Transaction) error
	SendPaymentFailedNotification(order *models.Order, email string, reason string) error
	SendLowStockAlert(product *models.Product, adminEmail string) error
	SendOutOfStockAlert(product *models.Product, adminEmail string) error
	SendNewOrderAlert(order *models.Order, adminEmail string) error
	SendPreorderNotification(order *models.Order, email string) error
}

// Safe runs one notification call, swallowing panics and logging errors.
// A notification failure must never fail the operation that triggered it.
func Safe(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Errorw("notification panicked", "notification", name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		logging.L().Errorw("notification failed", "notification", name, "error", err)
	}
}

// Go dispatches a notification off the critical path.
func Go(name string, fn func() error) {
	go Safe(name, fn)
}

// LogNotifier is the default Notifier used until a real mailer is wired in
// deployment. It records each dispatch in the log and always succeeds.
type LogNotifier struct{}

func (LogNotifier) SendOrderConfirmation(order *models.Order, email string) error {
	logging.L().Infow("order confirmation email", "order", order.OrderNumber, "to", email)
	return nil
}

func (LogNotifier) SendPaymentConfirmation(order *models.Order, email string, tx *models.Transaction) error {
	logging.L().Infow("payment confirmation email", "order", order.OrderNumber, "to", email, "reference", tx.Reference)
	return nil
}

func (LogNotifier) SendPaymentFailedNotification(order *models.Order, email string, reason string) error {
	logging.L().Infow("payment failed email", "order", order.OrderNumber, "to", email, "reason", reason)
	return nil
}

func (LogNotifier) SendLowStockAlert(product *models.Product, adminEmail string) error {
	logging.L().Infow("low stock alert", "product", product.ID, "stock", product.Stock, "to", adminEmail)
	return nil
}

func (LogNotifier) SendOutOfStockAlert(product *models.Product, adminEmail string) error {
	logging.L().Infow("out of stock alert", "product", product.ID, "to", adminEmail)
	return nil
}

func (LogNotifier) SendNewOrderAlert(order *models.Order, adminEmail string) error {
	logging.L().Infow("new order alert", "order", order.OrderNumber, "to", adminEmail)
	return nil
}

func (LogNotifier) SendPreorderNotification(order *models.Order, email string) error {
	logging.L().Infow("preorder notification email", "order", order.OrderNumber, "to", email)
	return nil
}
