package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
)

// Fakes en mémoire des dépôts, partagés par tous les tests du package.
// Ils reproduisent les sémantiques des implémentations ScyllaDB : garde
// atomique sur le stock, unicité du numéro de commande, un paiement par
// commande.

type fakeCatalog struct {
	products map[gocql.UUID]models.Product
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	m := make(map[gocql.UUID]models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []gocql.UUID) (map[gocql.UUID]models.Product, error) {
	out := make(map[gocql.UUID]models.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeStock struct {
	mu     sync.Mutex
	levels map[string]int // "productID" ou "productID/design"
}

func newFakeStock() *fakeStock {
	return &fakeStock{levels: make(map[string]int)}
}

func stockKey(productID gocql.UUID, variantName string) string {
	if variantName == "" {
		return productID.String()
	}
	return productID.String() + "/" + variantName
}

func (f *fakeStock) set(productID gocql.UUID, variantName string, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[stockKey(productID, variantName)] = qty
}

func (f *fakeStock) level(productID gocql.UUID, variantName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[stockKey(productID, variantName)]
}

func (f *fakeStock) Decrement(_ context.Context, productID gocql.UUID, variantName string, qty int, _ gocql.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := stockKey(productID, variantName)
	current, ok := f.levels[key]
	if !ok {
		return apperrors.NotFound("produit introuvable")
	}
	if current < qty {
		return apperrors.Conflict("stock insuffisant")
	}
	f.levels[key] = current - qty
	return nil
}

func (f *fakeStock) Restore(_ context.Context, productID gocql.UUID, variantName string, qty int, _ gocql.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[stockKey(productID, variantName)] += qty
	return nil
}

func (f *fakeStock) Restock(_ context.Context, productID gocql.UUID, variantName string, qty int, _, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := stockKey(productID, variantName)
	f.levels[key] += qty
	return f.levels[key], nil
}

func (f *fakeStock) Adjust(_ context.Context, productID gocql.UUID, variantName string, newStock int, _, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[stockKey(productID, variantName)] = newStock
	return newStock, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[gocql.UUID]*models.Order
	numbers map[string]bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders:  make(map[gocql.UUID]*models.Order),
		numbers: make(map[string]bool),
	}
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.numbers[order.OrderNumber] {
		return apperrors.Conflict("numéro de commande %s déjà utilisé", order.OrderNumber)
	}
	f.numbers[order.OrderNumber] = true
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	stored.StatusHistory = append([]models.StatusHistoryEntry(nil), order.StatusHistory...)
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, orderID gocql.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[orderID]
	if !ok {
		return nil, apperrors.NotFound("commande introuvable")
	}
	out := *stored
	out.Items = append([]models.OrderItem(nil), stored.Items...)
	out.StatusHistory = append([]models.StatusHistoryEntry(nil), stored.StatusHistory...)
	return &out, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListByStatus(_ context.Context, status string, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.Status == status && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID gocql.UUID, fromStatus, status string, entry models.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[orderID]
	if !ok {
		return apperrors.NotFound("commande introuvable")
	}
	if stored.Status != fromStatus {
		return apperrors.Conflict("impossible de passer la commande de %s à %s", stored.Status, status)
	}
	stored.Status = status
	stored.StatusHistory = append(stored.StatusHistory, entry)
	stored.UpdatedAt = entry.ChangedAt
	return nil
}

func (f *fakeOrders) UpdatePaymentStatus(_ context.Context, orderID gocql.UUID, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[orderID]
	if !ok {
		return apperrors.NotFound("commande introuvable")
	}
	stored.PaymentStatus = paymentStatus
	return nil
}

// conflictingOrders renvoie Conflict sur les N premières créations, pour
// exercer la régénération du numéro de commande
type conflictingOrders struct {
	*fakeOrders
	mu        sync.Mutex
	conflicts int
	attempts  int
}

func (f *conflictingOrders) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	f.attempts++
	remaining := f.conflicts
	if remaining > 0 {
		f.conflicts--
	}
	f.mu.Unlock()
	if remaining > 0 {
		return apperrors.Conflict("numéro de commande %s déjà utilisé", order.OrderNumber)
	}
	return f.fakeOrders.Create(ctx, order)
}

type fakePayments struct {
	mu       sync.Mutex
	payments map[gocql.UUID]*models.Payment
	byOrder  map[gocql.UUID]gocql.UUID
}

func newFakePayments() *fakePayments {
	return &fakePayments{
		payments: make(map[gocql.UUID]*models.Payment),
		byOrder:  make(map[gocql.UUID]gocql.UUID),
	}
}

func (f *fakePayments) Create(_ context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byOrder[payment.OrderID]; exists {
		return apperrors.Conflict("un paiement existe déjà pour cette commande")
	}
	stored := *payment
	f.payments[payment.ID] = &stored
	f.byOrder[payment.OrderID] = payment.ID
	return nil
}

func (f *fakePayments) GetByID(_ context.Context, paymentID gocql.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.payments[paymentID]
	if !ok {
		return nil, apperrors.NotFound("paiement introuvable")
	}
	out := *stored
	return &out, nil
}

func (f *fakePayments) GetByOrder(_ context.Context, orderID gocql.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	paymentID, ok := f.byOrder[orderID]
	if !ok {
		return nil, apperrors.NotFound("aucun paiement pour cette commande")
	}
	out := *f.payments[paymentID]
	return &out, nil
}

func (f *fakePayments) UpdateProof(_ context.Context, paymentID gocql.UUID, proofURL, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.payments[paymentID]
	if !ok {
		return apperrors.NotFound("paiement introuvable")
	}
	stored.ProofURL = proofURL
	stored.TransactionID = transactionID
	stored.Status = models.PaymentVerificationPending
	stored.VerifiedBy = ""
	stored.VerifiedAt = nil
	stored.RejectionReason = ""
	return nil
}

func (f *fakePayments) UpdateVerification(_ context.Context, paymentID gocql.UUID, status, verifiedBy, rejectionReason string, verifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.payments[paymentID]
	if !ok {
		return apperrors.NotFound("paiement introuvable")
	}
	stored.Status = status
	stored.VerifiedBy = verifiedBy
	stored.RejectionReason = rejectionReason
	stored.VerifiedAt = &verifiedAt
	return nil
}

func (f *fakePayments) ListByStatus(_ context.Context, status string, limit int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.Status == status && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

// recordingNotifier capture les notifications sans envoyer d'e-mails
type recordingNotifier struct {
	mu     sync.Mutex
	placed []string
	status []string
}

func (n *recordingNotifier) NotifyOrderPlaced(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.OrderNumber)
}

func (n *recordingNotifier) NotifyOrderStatus(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = append(n.status, fmt.Sprintf("%s:%s", order.OrderNumber, order.Status))
}
