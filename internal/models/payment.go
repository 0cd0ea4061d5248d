package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de vérification d'un paiement (revue manuelle par un admin)
const (
	PaymentVerificationPending  = "pending"
	PaymentVerificationVerified = "verified"
	PaymentVerificationRejected = "rejected"
)

// Payment : un seul enregistrement par commande non payée en espèces.
// Créé au moment de la commande (vide, pending) ou à la première preuve envoyée.
type Payment struct {
	ID              gocql.UUID `json:"id" db:"payment_id"`
	OrderID         gocql.UUID `json:"order_id" db:"order_id"`
	Method          string     `json:"method" db:"method"`
	Amount          float64    `json:"amount" db:"amount"`
	TransactionID   string     `json:"transaction_id,omitempty" db:"transaction_id"`
	ProofURL        string     `json:"proof_url,omitempty" db:"proof_url"`
	Status          string     `json:"status" db:"status"`
	VerifiedBy      string     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
