package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID       `json:"id" db:"product_id"`
	Name              string           `json:"name" db:"name"`
	Description       string           `json:"description" db:"description"`
	Price             float64          `json:"price" db:"price"`
	Stock             int              `json:"stock" db:"stock"`
	LowStockThreshold int              `json:"low_stock_threshold" db:"low_stock_threshold"`
	ImageURLs         []string         `json:"image_urls" db:"image_urls"`
	IsActive          bool             `json:"is_active" db:"is_active"`
	IsDeleted         bool             `json:"is_deleted" db:"is_deleted"`
	HasVariants       bool             `json:"has_variants" db:"has_variants"`
	Variants          []ProductVariant `json:"variants,omitempty"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// ProductVariant représente un design d'un produit artisanal (ex: coloris
// "Terracotta"). Le nom du design est unique par produit.
type ProductVariant struct {
	ProductID  gocql.UUID `json:"product_id"`
	DesignName string     `json:"design_name"`
	Price      *float64   `json:"price,omitempty"` // nil → prix du produit de base
	Stock      int        `json:"stock"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UnitPrice retourne le prix effectif de la variante (override ou prix de base)
func (v ProductVariant) UnitPrice(base float64) float64 {
	if v.Price != nil {
		return *v.Price
	}
	return base
}

// FindVariant cherche une variante par nom exact de design (non supprimée)
func (p Product) FindVariant(designName string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.DesignName == designName && !v.IsDeleted {
			return v, true
		}
	}
	return ProductVariant{}, false
}
