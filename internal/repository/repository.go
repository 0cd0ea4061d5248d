// Package repository expose les interfaces d'accès aux données du flux de
// commande. Les services reçoivent ces interfaces par injection, ce qui permet
// de les remplacer par des fakes en mémoire dans les tests.
package repository

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/models"
)

// CatalogRepository : accès lecture au catalogue (le CRUD catalogue vit ailleurs)
type CatalogRepository interface {
	// GetProductsByIDs résout un lot de produits, variantes incluses.
	// Les produits introuvables sont simplement absents de la map.
	GetProductsByIDs(ctx context.Context, ids []gocql.UUID) (map[gocql.UUID]models.Product, error)
}

// StockLedger : compteurs de stock autoritaires, par produit ou par variante.
// variantName vide → stock de base du produit.
type StockLedger interface {
	// Decrement retire qty du stock, uniquement si le stock courant est
	// suffisant (garde atomique). Erreur Conflict si insuffisant.
	Decrement(ctx context.Context, productID gocql.UUID, variantName string, qty int, orderID gocql.UUID, userID string) error
	// Restore rend qty au stock, à la même granularité que le retrait.
	Restore(ctx context.Context, productID gocql.UUID, variantName string, qty int, orderID gocql.UUID, userID string) error
	// Restock ajoute qty au stock (réassort admin), retourne le nouveau stock
	Restock(ctx context.Context, productID gocql.UUID, variantName string, qty int, reason, userID string) (int, error)
	// Adjust force le stock à une valeur absolue (inventaire admin)
	Adjust(ctx context.Context, productID gocql.UUID, variantName string, newStock int, reason, userID string) (int, error)
}

// OrderRepository : persistance des commandes et de leur journal de statuts
type OrderRepository interface {
	// Create persiste la commande, ses lignes et la première entrée du
	// journal. Erreur Conflict si le numéro de commande est déjà pris.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID gocql.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]models.Order, error)
	// UpdateStatus fait passer la commande de fromStatus à status et ajoute
	// une entrée au journal (append-only). La transition est gardée côté
	// base : Conflict si le statut persisté n'est plus fromStatus.
	UpdateStatus(ctx context.Context, orderID gocql.UUID, fromStatus, status string, entry models.StatusHistoryEntry) error
	UpdatePaymentStatus(ctx context.Context, orderID gocql.UUID, paymentStatus string) error
}

// PaymentRepository : au plus un paiement par commande
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, paymentID gocql.UUID) (*models.Payment, error)
	GetByOrder(ctx context.Context, orderID gocql.UUID) (*models.Payment, error)
	// UpdateProof remplace la preuve/référence et repasse le statut à pending
	UpdateProof(ctx context.Context, paymentID gocql.UUID, proofURL, transactionID string) error
	UpdateVerification(ctx context.Context, paymentID gocql.UUID, status, verifiedBy, rejectionReason string, verifiedAt time.Time) error
	ListByStatus(ctx context.Context, status string, limit int) ([]models.Payment, error)
}

// InventoryRepository : journal des mouvements et alertes de stock (back office)
type InventoryRepository interface {
	ListMovements(ctx context.Context, productID *gocql.UUID, limit int) ([]models.StockMovement, error)
	ListAlerts(ctx context.Context) ([]models.StockAlert, error)
	ResolveAlert(ctx context.Context, alertID gocql.UUID) error
}
