package models

import "time"

type OrderStatus string
type PaymentStatus string
type ItemStatus string

const (
	// Order statuses
	OrderStatusPending           OrderStatus = "pending"            // Order placed, awaiting payment
	OrderStatusConfirmed         OrderStatus = "confirmed"          // Payment resolved successfully
	OrderStatusProcessing        OrderStatus = "processing"         // Being prepared for dispatch
	OrderStatusShipped           OrderStatus = "shipped"            // Out for delivery
	OrderStatusDelivered         OrderStatus = "delivered"          // Customer received the items
	OrderStatusCancelled         OrderStatus = "cancelled"          // Cancelled before fulfilment
	OrderStatusReturned          OrderStatus = "returned"           // Customer returned the items
	OrderStatusPaymentFailed     OrderStatus = "payment_failed"     // Gateway reported a failed charge
	OrderStatusRefunded          OrderStatus = "refunded"           // Full refund issued
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded" // Partial refund issued

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	// Per-item statuses
	ItemStatusPending           ItemStatus = "pending"
	ItemStatusShipped           ItemStatus = "shipped"
	ItemStatusDelivered         ItemStatus = "delivered"
	ItemStatusReturned          ItemStatus = "returned"
	ItemStatusPartiallyReturned ItemStatus = "partially_returned"
)

// Order is created once from a cart snapshot. Items are copies, so later
// product edits never mutate historical orders. Orders are never deleted,
// only their status changes.
type Order struct {
	ID                    uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber           string               `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID                string               `gorm:"index;not null" json:"user_id"`
	User                  User                 `gorm:"foreignKey:UserID" json:"user"`
	Items                 []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal              float64              `json:"subtotal"`
	DiscountApplied       float64              `json:"discount_applied"`
	ShippingCost          float64              `json:"shipping_cost"`
	TaxAmount             float64              `json:"tax_amount"`
	Amount                float64              `json:"amount"` // subtotal - discount + shipping + tax, always recomputed
	Status                OrderStatus          `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus         PaymentStatus        `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentReference      string               `gorm:"index" json:"payment_reference"`
	PaymentChannel        string               `json:"payment_channel"`
	PaidAt                *time.Time           `json:"paid_at"`
	RefundAmount          float64              `json:"refund_amount"`
	HasPreorderItems      bool                 `json:"has_preorder_items"`
	ShippingMethod        string               `json:"shipping_method"` // "standard" or "express"
	Carrier               string               `json:"carrier"`
	TrackingNumber        string               `json:"tracking_number"`
	TrackingURL           string               `json:"tracking_url"`
	EstimatedDeliveryDate *time.Time           `json:"estimated_delivery_date"`
	StatusHistory         []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrderID          uint       `gorm:"index" json:"order_id"`
	ProductID        uint       `json:"product_id"`
	VariantID        *uint      `json:"variant_id"`
	Title            string     `json:"title"`
	SKU              string     `json:"sku"`
	Image            string     `json:"image"`
	UnitPrice        float64    `json:"unit_price"`
	DiscountPercent  float64    `json:"discount_percent"`
	FinalPrice       float64    `json:"final_price"`
	Quantity         int        `json:"quantity"`
	ItemStatus       ItemStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"item_status"`
	IsPreorder       bool       `json:"is_preorder"`
	FulfillmentNote  string     `json:"fulfillment_note"`
	ReturnedQuantity int        `json:"returned_quantity"`
}

// OrderStatusHistory rows are append-only; no transition overwrites history.
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"index" json:"order_id"`
	Status    OrderStatus `gorm:"type:VARCHAR(20)" json:"status"`
	Note      string      `json:"note"`
	UpdatedBy string      `json:"updated_by"`
	CreatedAt time.Time   `json:"created_at"`
}
