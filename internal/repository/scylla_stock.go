package repository

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/cache"
	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// Nombre max de tentatives CAS avant d'abandonner sous forte contention
const casMaxRetries = 10

// ScyllaStockLedger : compteurs de stock dans ks_products, mutations par
// Lightweight Transactions (compare-and-set). La condition IF stock = ?
// garantit qu'un décrément ne peut jamais rendre un compteur négatif,
// même sous requêtes concurrentes.
type ScyllaStockLedger struct{}

func NewScyllaStockLedger() *ScyllaStockLedger {
	return &ScyllaStockLedger{}
}

func (r *ScyllaStockLedger) Decrement(ctx context.Context, productID gocql.UUID, variantName string, qty int, orderID gocql.UUID, userID string) error {
	prev, err := r.applyDelta(ctx, productID, variantName, -qty)
	if err != nil {
		return err
	}

	r.recordMovement(productID, variantName, models.StockMovement{
		Type: "sale", Quantity: qty, PrevStock: prev, NewStock: prev - qty,
		Reason: "commande", OrderID: &orderID, UserID: userID,
	})
	r.checkLowStockAlert(ctx, productID, variantName, prev-qty)
	cache.InvalidateProduct(ctx, productID)
	return nil
}

func (r *ScyllaStockLedger) Restore(ctx context.Context, productID gocql.UUID, variantName string, qty int, orderID gocql.UUID, userID string) error {
	prev, err := r.applyDelta(ctx, productID, variantName, qty)
	if err != nil {
		return err
	}

	r.recordMovement(productID, variantName, models.StockMovement{
		Type: "return", Quantity: qty, PrevStock: prev, NewStock: prev + qty,
		Reason: "annulation commande", OrderID: &orderID, UserID: userID,
	})
	cache.InvalidateProduct(ctx, productID)
	return nil
}

func (r *ScyllaStockLedger) Restock(ctx context.Context, productID gocql.UUID, variantName string, qty int, reason, userID string) (int, error) {
	prev, err := r.applyDelta(ctx, productID, variantName, qty)
	if err != nil {
		return 0, err
	}

	r.recordMovement(productID, variantName, models.StockMovement{
		Type: "restock", Quantity: qty, PrevStock: prev, NewStock: prev + qty,
		Reason: reason, UserID: userID,
	})
	cache.InvalidateProduct(ctx, productID)
	return prev + qty, nil
}

func (r *ScyllaStockLedger) Adjust(ctx context.Context, productID gocql.UUID, variantName string, newStock int, reason, userID string) (int, error) {
	if newStock < 0 {
		return 0, apperrors.Validation("le stock ne peut pas être négatif")
	}

	prev, err := r.setAbsolute(ctx, productID, variantName, newStock)
	if err != nil {
		return 0, err
	}

	r.recordMovement(productID, variantName, models.StockMovement{
		Type: "adjustment", Quantity: newStock - prev, PrevStock: prev, NewStock: newStock,
		Reason: reason, UserID: userID,
	})
	r.checkLowStockAlert(ctx, productID, variantName, newStock)
	cache.InvalidateProduct(ctx, productID)
	return newStock, nil
}

// applyDelta applique delta au compteur via une boucle CAS.
// Retourne le stock observé juste avant l'application.
// La garde est autoritaire : Conflict si le stock courant + delta < 0.
func (r *ScyllaStockLedger) applyDelta(ctx context.Context, productID gocql.UUID, variantName string, delta int) (int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, apperrors.Persistence(err, "erreur connexion base de données")
	}

	current, err := r.readStock(ctx, session, productID, variantName)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < casMaxRetries; attempt++ {
		if current+delta < 0 {
			return 0, apperrors.Conflict("stock insuffisant")
		}

		var q *gocql.Query
		now := time.Now()
		if variantName == "" {
			q = session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
				current+delta, now, productID, current)
		} else {
			q = session.Query(`UPDATE product_variants SET stock = ?, updated_at = ? WHERE product_id = ? AND design_name = ? IF stock = ?`,
				current+delta, now, productID, variantName, current)
		}

		var observed int
		applied, err := q.WithContext(ctx).ScanCAS(&observed)
		if err != nil {
			return 0, apperrors.Persistence(err, "erreur mise à jour stock")
		}
		if applied {
			return current, nil
		}

		// Un autre décrément est passé entre temps : on réessaie avec la
		// valeur observée par la LWT
		current = observed
	}

	log.Printf("❌ Contention CAS persistante sur le stock %s/%s", productID, variantName)
	return 0, apperrors.Persistence(nil, "contention sur le stock, veuillez réessayer")
}

// setAbsolute force la valeur du compteur (sans garde, réservé à l'admin)
func (r *ScyllaStockLedger) setAbsolute(ctx context.Context, productID gocql.UUID, variantName string, newStock int) (int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, apperrors.Persistence(err, "erreur connexion base de données")
	}

	prev, err := r.readStock(ctx, session, productID, variantName)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	if variantName == "" {
		err = session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ?`,
			newStock, now, productID).WithContext(ctx).Exec()
	} else {
		err = session.Query(`UPDATE product_variants SET stock = ?, updated_at = ? WHERE product_id = ? AND design_name = ?`,
			newStock, now, productID, variantName).WithContext(ctx).Exec()
	}
	if err != nil {
		return 0, apperrors.Persistence(err, "erreur mise à jour stock")
	}
	return prev, nil
}

func (r *ScyllaStockLedger) readStock(ctx context.Context, session *gocql.Session, productID gocql.UUID, variantName string) (int, error) {
	var stock int
	var err error
	if variantName == "" {
		err = session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
			WithContext(ctx).Scan(&stock)
	} else {
		err = session.Query(`SELECT stock FROM product_variants WHERE product_id = ? AND design_name = ?`,
			productID, variantName).WithContext(ctx).Scan(&stock)
	}
	if err == gocql.ErrNotFound {
		if variantName == "" {
			return 0, apperrors.NotFound("produit introuvable")
		}
		return 0, apperrors.NotFound("variante introuvable")
	}
	if err != nil {
		return 0, apperrors.Persistence(err, "erreur lecture stock")
	}
	return stock, nil
}

// recordMovement journalise le mouvement de stock (best effort, loggé si échec)
func (r *ScyllaStockLedger) recordMovement(productID gocql.UUID, variantName string, mv models.StockMovement) {
	session, err := database.GetProductsSession()
	if err != nil {
		log.Printf("⚠️ Mouvement stock non journalisé: %v", err)
		return
	}

	mv.ID = gocql.TimeUUID()
	mv.ProductID = productID
	mv.VariantName = variantName
	mv.CreatedAt = time.Now()

	if err := session.Query(`
		INSERT INTO stock_movements (
			product_id, created_at, id, variant_name, type, quantity, prev_stock, new_stock, reason, order_id, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.ProductID, mv.CreatedAt, mv.ID, mv.VariantName, mv.Type, mv.Quantity,
		mv.PrevStock, mv.NewStock, mv.Reason, mv.OrderID, mv.UserID,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}

// checkLowStockAlert crée une alerte si le stock passe sous le seuil
func (r *ScyllaStockLedger) checkLowStockAlert(ctx context.Context, productID gocql.UUID, variantName string, currentStock int) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	var productName string
	var threshold int
	if err := session.Query(`SELECT name, low_stock_threshold FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&productName, &threshold); err != nil {
		return
	}

	if threshold == 0 {
		threshold = 10 // Seuil par défaut
	}

	var alertType string
	switch {
	case currentStock == 0:
		alertType = "out_of_stock"
	case currentStock <= threshold:
		alertType = "low_stock"
	default:
		return
	}

	// Vérifier si une alerte non résolue existe déjà
	var existingAlertID gocql.UUID
	checkQuery := `SELECT id FROM stock_alerts WHERE product_id = ? AND variant_name = ? AND is_resolved = false LIMIT 1 ALLOW FILTERING`
	if err := session.Query(checkQuery, productID, variantName).WithContext(ctx).Scan(&existingAlertID); err == nil {
		return
	}

	alert := models.StockAlert{
		ID:             gocql.TimeUUID(),
		ProductID:      productID,
		ProductName:    productName,
		VariantName:    variantName,
		CurrentStock:   currentStock,
		ThresholdStock: threshold,
		AlertType:      alertType,
		IsResolved:     false,
		CreatedAt:      time.Now(),
	}

	if err := session.Query(`
		INSERT INTO stock_alerts (
			id, product_id, product_name, variant_name, current_stock, threshold_stock,
			alert_type, is_resolved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.ProductID, alert.ProductName, alert.VariantName, alert.CurrentStock,
		alert.ThresholdStock, alert.AlertType, alert.IsResolved, alert.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur création alerte stock: %v", err)
	} else {
		log.Printf("🚨 Alerte stock créée pour %s (%s): %s", productName, variantName, alertType)
	}
}
