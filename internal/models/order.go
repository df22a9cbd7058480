package models

import (
	"strings"
	"time"
)

// Order lifecycle statuses. An order only moves forward: pending orders are
// confirmed or cancelled by the payment webhook and never return to pending.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Payment lifecycle statuses, tracked separately from the order status.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusExpired = "expired"
)

// Gateway invoice statuses we act on. Anything else is treated as an
// intermediate state and re-asserts pending.
const (
	InvoiceStatusPaid    = "PAID"
	InvoiceStatusExpired = "EXPIRED"
)

// OrderItem is a snapshot of one cart line at checkout time. Prices are
// copied verbatim, so later catalog changes never affect placed orders.
type OrderItem struct {
	ID          uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID     string `json:"-" gorm:"type:varchar(36);index"`
	ProductName string `json:"product_name"`
	UMKMName    string `json:"umkm_name,omitempty" gorm:"column:umkm_name"`
	Price       int64  `json:"price"` // IDR, price at the time of order
	Quantity    int    `json:"quantity"`
}

// Order represents one checkout attempt.
type Order struct {
	ID            string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string      `json:"user_id" gorm:"type:varchar(64);index"`
	Items         []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount   int64       `json:"total_amount"`
	Status        string      `json:"status" gorm:"type:varchar(16)"`
	PaymentStatus string      `json:"payment_status" gorm:"type:varchar(16)"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	Notes         string      `json:"notes,omitempty"`
	InvoiceID     *string     `json:"invoice_id" gorm:"type:varchar(64)"`
	InvoiceURL    string      `json:"invoice_url,omitempty"`
	// Column name predates the move off Midtrans; existing reports still
	// query it, so it stays (the invoice id got its own column instead).
	TransactionID *string   `json:"midtrans_transaction_id" gorm:"column:midtrans_transaction_id;type:varchar(64)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Settled reports whether the payment has reached a terminal state.
func (o *Order) Settled() bool {
	return o.PaymentStatus != PaymentStatusPending
}

// MapInvoiceStatus translates a gateway-reported invoice status into the
// internal (payment_status, status) pair. Unrecognized statuses map back to
// pending rather than guessing.
func MapInvoiceStatus(invoiceStatus string) (paymentStatus, orderStatus string) {
	switch strings.ToUpper(invoiceStatus) {
	case InvoiceStatusPaid:
		return PaymentStatusPaid, OrderStatusConfirmed
	case InvoiceStatusExpired:
		return PaymentStatusExpired, OrderStatusCancelled
	default:
		return PaymentStatusPending, OrderStatusPending
	}
}
