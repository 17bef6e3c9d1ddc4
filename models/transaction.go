package models

import "time"

type TransactionStatus string
type TransactionType string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"

	TransactionTypePayment       TransactionType = "payment"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypePartialRefund TransactionType = "partial_refund"
)

// Transaction records one gateway interaction. Reference is globally unique
// and is the idempotency key for every gateway-driven mutation: a row is
// created pending at initialize time and flipped to success/failed exactly
// once by the first verify call or webhook event that resolves it.
type Transaction struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	Reference           string            `gorm:"uniqueIndex;not null" json:"reference"`
	OrderID             uint              `gorm:"index" json:"order_id"`
	UserID              string            `gorm:"index" json:"user_id"`
	Amount              float64           `json:"amount"`
	Fees                float64           `json:"fees"`
	Currency            string            `json:"currency"`
	Status              TransactionStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	Type                TransactionType   `gorm:"type:VARCHAR(20);default:'payment'" json:"type"`
	Gateway             string            `json:"gateway"`
	GatewayReference    string            `json:"gateway_reference"`
	Channel             string            `json:"channel"`
	ParentTransactionID *uint             `json:"parent_transaction_id"` // refunds link back to their payment
	ProcessedAt         *time.Time        `json:"processed_at"`
	CreatedAt           time.Time         `json:"created_at"`
}

// WebhookEvent keeps a raw copy of every received gateway webhook, stored
// before processing, for replay and audit. Append-only.
type WebhookEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventType string    `gorm:"index" json:"event_type"`
	Reference string    `gorm:"index" json:"reference"`
	Payload   string    `gorm:"type:text" json:"payload"`
	Processed bool      `json:"processed"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}
