package models

import (
	"time"

	"github.com/gocql/gocql"
)

type StockMovement struct {
	ID          gocql.UUID  `json:"id"`
	ProductID   gocql.UUID  `json:"product_id"`
	VariantName string      `json:"variant_name,omitempty"`
	Type        string      `json:"type"` // "sale", "restock", "return", "adjustment"
	Quantity    int         `json:"quantity"`
	PrevStock   int         `json:"prev_stock"`
	NewStock    int         `json:"new_stock"`
	Reason      string      `json:"reason"`
	OrderID     *gocql.UUID `json:"order_id,omitempty"`
	UserID      string      `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

type StockAlert struct {
	ID             gocql.UUID `json:"id"`
	ProductID      gocql.UUID `json:"product_id"`
	ProductName    string     `json:"product_name"`
	VariantName    string     `json:"variant_name,omitempty"`
	CurrentStock   int        `json:"current_stock"`
	ThresholdStock int        `json:"threshold_stock"`
	AlertType      string     `json:"alert_type"` // "low_stock", "out_of_stock"
	IsResolved     bool       `json:"is_resolved"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}
