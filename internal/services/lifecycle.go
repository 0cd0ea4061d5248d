package services

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
	"atelier_back_end/internal/repository"
)

// Table des transitions autorisées du cycle de vie d'une commande.
// delivered et cancelled sont terminaux.
var allowedTransitions = map[string]map[string]bool{
	models.OrderStatusPending:    {models.OrderStatusConfirmed: true, models.OrderStatusCancelled: true},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing: true, models.OrderStatusCancelled: true},
	models.OrderStatusProcessing: {models.OrderStatusShipped: true, models.OrderStatusCancelled: true},
	models.OrderStatusShipped:    {models.OrderStatusDelivered: true, models.OrderStatusCancelled: true},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// CanTransition vérifie qu'un passage from → to est autorisé
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// IsOrderStatus vérifie que le statut fait partie du cycle de vie
func IsOrderStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// LifecycleService applique les changements de statut d'une commande et leurs
// effets de bord : restitution du stock à l'annulation, bascule du paiement à
// la livraison pour le paiement à la réception.
type LifecycleService struct {
	orders   repository.OrderRepository
	stock    repository.StockLedger
	notifier Notifier
}

func NewLifecycleService(orders repository.OrderRepository, stock repository.StockLedger, notifier Notifier) *LifecycleService {
	return &LifecycleService{orders: orders, stock: stock, notifier: notifier}
}

// ChangeStatus fait passer la commande au statut cible. La validité est
// re-dérivée du statut persisté, jamais d'un état fourni par le client.
func (s *LifecycleService) ChangeStatus(ctx context.Context, orderID gocql.UUID, targetStatus, note, actorID string) (*models.Order, error) {
	if !IsOrderStatus(targetStatus) {
		return nil, apperrors.Validation("statut inconnu: %s", targetStatus)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, targetStatus) {
		return nil, apperrors.Conflict("impossible de passer la commande de %s à %s", order.Status, targetStatus)
	}

	entry := models.StatusHistoryEntry{
		Status:    targetStatus,
		Note:      note,
		ChangedAt: time.Now(),
	}
	// L'écriture est gardée sur le statut lu : si un autre changement est
	// passé entre temps, Conflict, et aucun effet de bord n'est appliqué
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, targetStatus, entry); err != nil {
		return nil, err
	}

	// Annulation : restituer le stock de chaque ligne, à la granularité
	// exacte (variante ou base) où il avait été décrémenté. Après la garde,
	// donc restitué une seule fois même sous annulations concurrentes.
	if targetStatus == models.OrderStatusCancelled {
		s.restoreStock(ctx, order, actorID)
	}
	order.Status = targetStatus
	order.StatusHistory = append(order.StatusHistory, entry)
	order.UpdatedAt = entry.ChangedAt

	// Paiement à la livraison : l'argent est encaissé à la réception,
	// la livraison vaut donc règlement
	if targetStatus == models.OrderStatusDelivered && order.PaymentMethod == models.PaymentMethodCashOnDelivery {
		if err := s.orders.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusPaid); err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentStatusPaid
	}

	log.Printf("✅ Commande %s: %s", order.OrderNumber, targetStatus)

	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(order)
	}

	return order, nil
}

// restoreStock rend le stock de toutes les lignes. Un échec sur une ligne est
// loggé mais ne bloque pas l'annulation : la commande doit pouvoir être
// annulée même si un produit a disparu du catalogue entre temps.
func (s *LifecycleService) restoreStock(ctx context.Context, order *models.Order, actorID string) {
	for _, item := range order.Items {
		if err := s.stock.Restore(ctx, item.ProductID, item.VariantName, item.Quantity, order.ID, actorID); err != nil {
			log.Printf("⚠️ Restitution stock impossible pour %s (commande %s): %v", item.Name, order.OrderNumber, err)
		}
	}
}
