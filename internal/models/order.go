package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Statuts de paiement d'une commande
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Moyens de paiement acceptés
const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodPaylib         = "paylib"
	PaymentMethodLydia          = "lydia"
)

// IsValidPaymentMethod vérifie que le moyen de paiement fait partie de l'énum fermée
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodBankTransfer, PaymentMethodPaylib, PaymentMethodLydia:
		return true
	}
	return false
}

type Order struct {
	ID            gocql.UUID           `json:"id" db:"order_id"`
	OrderNumber   string               `json:"order_number" db:"order_number"`
	UserID        string               `json:"user_id" db:"user_id"`
	Items         []OrderItem          `json:"items"`
	Address       ShippingAddress      `json:"shipping_address"`
	PaymentMethod string               `json:"payment_method" db:"payment_method"`
	PaymentStatus string               `json:"payment_status" db:"payment_status"`
	Status        string               `json:"status" db:"status"`
	TotalAmount   float64              `json:"total_amount" db:"total_amount"`
	ShippingFee   float64              `json:"shipping_fee" db:"shipping_fee"`
	Notes         string               `json:"notes,omitempty" db:"notes"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// OrderItem est un instantané pris au moment de la commande : les
// modifications ultérieures du produit ne changent jamais une commande passée.
type OrderItem struct {
	ProductID     gocql.UUID `json:"product_id"`
	Name          string     `json:"name"`
	UnitPrice     float64    `json:"unit_price"`
	Quantity      int        `json:"quantity"`
	VariantName   string     `json:"variant_name,omitempty"`
	Customization string     `json:"customization,omitempty"`
}

// Subtotal retourne le sous-total de la ligne
func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Street        string `json:"street"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code,omitempty"`
}

// StatusHistoryEntry trace chaque changement de statut (journal append-only)
type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
