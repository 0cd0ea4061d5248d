package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
	"atelier_back_end/internal/repository"
	"atelier_back_end/internal/utils"
)

// Nombre de tentatives de génération d'un numéro de commande avant d'abandonner
const orderNumberMaxRetries = 3

type PlacementItemInput struct {
	ProductID     string `json:"product_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	VariantName   string `json:"variant_name"`
	Customization string `json:"customization"`
}

type PlacementInput struct {
	Items         []PlacementItemInput   `json:"items" binding:"required"`
	Address       models.ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
	Notes         string                 `json:"notes"`
}

// PlacementService orchestre le passage d'une commande : catalogue → stock →
// commande → paiement. Tout-ou-rien : soit la commande entière est validée et
// le stock retenu, soit rien n'est retenu.
type PlacementService struct {
	catalog  repository.CatalogRepository
	stock    repository.StockLedger
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	notifier Notifier

	shippingFee float64
}

func NewPlacementService(
	catalog repository.CatalogRepository,
	stock repository.StockLedger,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	notifier Notifier,
	shippingFee float64,
) *PlacementService {
	return &PlacementService{
		catalog:     catalog,
		stock:       stock,
		orders:      orders,
		payments:    payments,
		notifier:    notifier,
		shippingFee: shippingFee,
	}
}

// PlaceOrder réalise la commande complète pour l'utilisateur authentifié
func (s *PlacementService) PlaceOrder(ctx context.Context, userID string, in PlacementInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.Validation("la commande ne contient aucun article")
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, apperrors.Validation("moyen de paiement invalide: %s", in.PaymentMethod)
	}
	if err := validateAddress(in.Address); err != nil {
		return nil, err
	}

	// 1. Résoudre tous les produits en un lot. Tout-ou-rien : un seul
	// produit indisponible fait échouer la commande entière.
	ids := make([]gocql.UUID, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperrors.Validation("quantité invalide pour le produit %s", item.ProductID)
		}
		parsed, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apperrors.Validation("ID produit invalide: %s", item.ProductID)
		}
		ids = append(ids, gocql.UUID(parsed))
	}

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 2. Construire les instantanés de lignes : prix/stock effectifs
	// (variante ou base), vérification optimiste du stock. La garde
	// atomique du décrément reste l'autorité finale.
	items := make([]models.OrderItem, 0, len(in.Items))
	var subtotal float64
	for i, item := range in.Items {
		product, ok := products[ids[i]]
		if !ok || !product.IsActive || product.IsDeleted {
			return nil, apperrors.Validation("certains produits ne sont pas disponibles")
		}

		unitPrice := product.Price
		available := product.Stock
		if product.HasVariants || len(product.Variants) > 0 {
			if item.VariantName == "" {
				return nil, apperrors.Validation("le produit %s nécessite le choix d'un design", product.Name)
			}
			variant, found := product.FindVariant(item.VariantName)
			if !found {
				return nil, apperrors.Validation("le design %q n'existe pas pour le produit %s", item.VariantName, product.Name)
			}
			unitPrice = variant.UnitPrice(product.Price)
			available = variant.Stock
		} else if item.VariantName != "" {
			return nil, apperrors.Validation("le produit %s n'a pas de design %q", product.Name, item.VariantName)
		}

		if available < item.Quantity {
			return nil, apperrors.Conflict("stock insuffisant pour %s", itemLabel(product.Name, item.VariantName))
		}

		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			Name:          product.Name,
			UnitPrice:     unitPrice,
			Quantity:      item.Quantity,
			VariantName:   item.VariantName,
			Customization: item.Customization,
		})
		subtotal += unitPrice * float64(item.Quantity)
	}

	// 3. Persister la commande en pending/pending avec la première entrée
	// du journal. Collision de numéro → nouveau suffixe.
	now := time.Now()
	order := &models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		Items:         items,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
		TotalAmount:   subtotal + s.shippingFee,
		ShippingFee:   s.shippingFee,
		Notes:         in.Notes,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.OrderStatusPending, Note: "commande créée", ChangedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.createWithRetry(ctx, order); err != nil {
		return nil, err
	}

	// 4. Décrément gardé, atomique, par ligne. Si une garde échoue ici,
	// la commande déjà persistée est annulée (rollback compensatoire) au
	// lieu de rester pending sans stock retenu.
	for i, item := range order.Items {
		err := s.stock.Decrement(ctx, item.ProductID, item.VariantName, item.Quantity, order.ID, userID)
		if err == nil {
			continue
		}

		s.rollback(ctx, order, i, userID)

		if apperrors.IsKind(err, apperrors.KindConflict) || apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Conflict("stock insuffisant pour %s", itemLabel(item.Name, item.VariantName))
		}
		return nil, err
	}

	// 5. Semer l'enregistrement de paiement pour les moyens non-espèces.
	// En cas d'échec on continue : l'envoi de la première preuve le créera.
	if order.PaymentMethod != models.PaymentMethodCashOnDelivery {
		payment := &models.Payment{
			ID:        gocql.TimeUUID(),
			OrderID:   order.ID,
			Method:    order.PaymentMethod,
			Amount:    order.TotalAmount,
			Status:    models.PaymentVerificationPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			log.Printf("⚠️ Paiement non initialisé pour %s: %v", order.OrderNumber, err)
		}
	}

	log.Printf("🛒 Commande %s créée pour %s (%.2f€, %d articles)",
		order.OrderNumber, userID, order.TotalAmount, len(order.Items))

	if s.notifier != nil {
		s.notifier.NotifyOrderPlaced(order)
	}

	return order, nil
}

// createWithRetry persiste la commande, en régénérant le numéro en cas de
// collision du suffixe aléatoire
func (s *PlacementService) createWithRetry(ctx context.Context, order *models.Order) error {
	var lastErr error
	for attempt := 0; attempt < orderNumberMaxRetries; attempt++ {
		order.OrderNumber = utils.GenerateOrderNumber(order.CreatedAt)
		lastErr = s.orders.Create(ctx, order)
		if lastErr == nil {
			return nil
		}
		if !apperrors.IsKind(lastErr, apperrors.KindConflict) {
			return lastErr
		}
		log.Printf("⚠️ Collision numéro de commande %s, nouvelle tentative", order.OrderNumber)
	}
	return apperrors.Persistence(lastErr, "impossible de générer un numéro de commande unique")
}

// rollback compense un échec de décrément sur la ligne failedIdx : restitue
// les lignes déjà décrémentées et bascule la commande en cancelled avec une
// note système, pour ne jamais laisser une commande pending fantôme.
func (s *PlacementService) rollback(ctx context.Context, order *models.Order, failedIdx int, userID string) {
	for j := 0; j < failedIdx; j++ {
		item := order.Items[j]
		if err := s.stock.Restore(ctx, item.ProductID, item.VariantName, item.Quantity, order.ID, userID); err != nil {
			log.Printf("❌ Restitution stock échouée pour %s (commande %s): %v", item.Name, order.OrderNumber, err)
		}
	}

	failed := order.Items[failedIdx]
	entry := models.StatusHistoryEntry{
		Status:    models.OrderStatusCancelled,
		Note:      fmt.Sprintf("annulation automatique : stock insuffisant pour %s", itemLabel(failed.Name, failed.VariantName)),
		ChangedAt: time.Now(),
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, entry); err != nil {
		log.Printf("❌ Annulation automatique échouée pour %s: %v", order.OrderNumber, err)
	}
}

func validateAddress(a models.ShippingAddress) error {
	if a.RecipientName == "" || a.Phone == "" || a.Street == "" || a.City == "" {
		return apperrors.Validation("adresse de livraison incomplète")
	}
	return nil
}

// itemLabel nomme l'article dans les messages d'erreur, design inclus
func itemLabel(productName, variantName string) string {
	if variantName != "" {
		return fmt.Sprintf("%s (design %s)", productName, variantName)
	}
	return productName
}
