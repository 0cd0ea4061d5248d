package repository

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// ScyllaInventory : lecture du journal des mouvements et des alertes de stock
type ScyllaInventory struct{}

func NewScyllaInventory() *ScyllaInventory {
	return &ScyllaInventory{}
}

func (r *ScyllaInventory) ListMovements(ctx context.Context, productID *gocql.UUID, limit int) ([]models.StockMovement, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var iter *gocql.Iter
	if productID != nil {
		iter = session.Query(`SELECT id, product_id, variant_name, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
			FROM stock_movements WHERE product_id = ? LIMIT ?`, *productID, limit).WithContext(ctx).Iter()
	} else {
		iter = session.Query(`SELECT id, product_id, variant_name, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
			FROM stock_movements LIMIT ?`, limit).WithContext(ctx).Iter()
	}

	var movements []models.StockMovement
	var mv models.StockMovement
	for iter.Scan(&mv.ID, &mv.ProductID, &mv.VariantName, &mv.Type, &mv.Quantity,
		&mv.PrevStock, &mv.NewStock, &mv.Reason, &mv.OrderID, &mv.UserID, &mv.CreatedAt) {
		movements = append(movements, mv)
		mv = models.StockMovement{}
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture mouvements de stock")
	}
	return movements, nil
}

func (r *ScyllaInventory) ListAlerts(ctx context.Context) ([]models.StockAlert, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	iter := session.Query(`SELECT id, product_id, product_name, variant_name, current_stock, threshold_stock,
		alert_type, is_resolved, created_at, resolved_at
		FROM stock_alerts WHERE is_resolved = false ALLOW FILTERING`).WithContext(ctx).Iter()

	var alerts []models.StockAlert
	var a models.StockAlert
	for iter.Scan(&a.ID, &a.ProductID, &a.ProductName, &a.VariantName, &a.CurrentStock,
		&a.ThresholdStock, &a.AlertType, &a.IsResolved, &a.CreatedAt, &a.ResolvedAt) {
		alerts = append(alerts, a)
		a = models.StockAlert{}
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture alertes de stock")
	}
	return alerts, nil
}

func (r *ScyllaInventory) ResolveAlert(ctx context.Context, alertID gocql.UUID) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	if err := session.Query(`UPDATE stock_alerts SET is_resolved = true, resolved_at = ? WHERE id = ?`,
		time.Now(), alertID).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur résolution alerte")
	}
	return nil
}
