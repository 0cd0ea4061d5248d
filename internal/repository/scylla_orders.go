package repository

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// ScyllaOrders persiste les commandes dans ks_orders :
//   - orders            : la commande (adresse et totaux dénormalisés)
//   - order_items       : les lignes, clusterisées par numéro de ligne
//   - order_status_history : journal append-only des statuts
//   - orders_by_number  : unicité du numéro de commande (LWT)
//   - orders_by_user    : vue "mes commandes"
type ScyllaOrders struct{}

func NewScyllaOrders() *ScyllaOrders {
	return &ScyllaOrders{}
}

func (r *ScyllaOrders) Create(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	// 1. Réserver le numéro de commande (LWT) — l'unicité est garantie ici
	applied, err := session.Query(`INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?) IF NOT EXISTS`,
		order.OrderNumber, order.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return apperrors.Persistence(err, "erreur réservation numéro de commande")
	}
	if !applied {
		return apperrors.Conflict("numéro de commande %s déjà utilisé", order.OrderNumber)
	}

	// 2. La commande elle-même
	if err := session.Query(`
		INSERT INTO orders (
			order_id, order_number, user_id, recipient_name, phone, street, city, postal_code,
			payment_method, payment_status, status, total_amount, shipping_fee, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.UserID,
		order.Address.RecipientName, order.Address.Phone, order.Address.Street, order.Address.City, order.Address.PostalCode,
		order.PaymentMethod, order.PaymentStatus, order.Status, order.TotalAmount, order.ShippingFee,
		order.Notes, order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur création commande")
	}

	// 3. Les lignes
	for i, item := range order.Items {
		if err := session.Query(`
			INSERT INTO order_items (order_id, item_no, product_id, name, unit_price, quantity, variant_name, customization)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
			item.VariantName, item.Customization,
		).WithContext(ctx).Exec(); err != nil {
			return apperrors.Persistence(err, "erreur création ligne de commande")
		}
	}

	// 4. Première entrée du journal de statuts
	for _, entry := range order.StatusHistory {
		if err := r.appendHistory(ctx, session, order.ID, entry); err != nil {
			return err
		}
	}

	// 5. Vue par utilisateur
	if err := session.Query(`
		INSERT INTO orders_by_user (user_id, created_at, order_id, order_number, status, total_amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.UserID, order.CreatedAt, order.ID, order.OrderNumber, order.Status, order.TotalAmount,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur indexation commande par utilisateur")
	}

	return nil
}

func (r *ScyllaOrders) GetByID(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	var o models.Order
	q := database.GetPreparedGetOrder()
	if q == nil {
		q = session.Query(`SELECT order_id, order_number, user_id, recipient_name, phone, street, city, postal_code,
			payment_method, payment_status, status, total_amount, shipping_fee, notes, created_at, updated_at
			FROM orders WHERE order_id = ?`)
	}

	err = q.Bind(orderID).WithContext(ctx).Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&o.Address.RecipientName, &o.Address.Phone, &o.Address.Street, &o.Address.City, &o.Address.PostalCode,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.TotalAmount, &o.ShippingFee,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, apperrors.NotFound("commande introuvable")
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture commande")
	}

	if o.Items, err = r.fetchItems(ctx, session, orderID); err != nil {
		return nil, err
	}
	if o.StatusHistory, err = r.fetchHistory(ctx, session, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ScyllaOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	iter := session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture commandes utilisateur")
	}

	return r.hydrateAll(ctx, ids)
}

func (r *ScyllaOrders) ListByStatus(ctx context.Context, status string, limit int) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	var iter *gocql.Iter
	if status != "" {
		iter = session.Query(`SELECT order_id FROM orders WHERE status = ? LIMIT ? ALLOW FILTERING`, status, limit).
			WithContext(ctx).Iter()
	} else {
		iter = session.Query(`SELECT order_id FROM orders LIMIT ?`, limit).WithContext(ctx).Iter()
	}

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur listage commandes")
	}

	return r.hydrateAll(ctx, ids)
}

func (r *ScyllaOrders) UpdateStatus(ctx context.Context, orderID gocql.UUID, fromStatus, status string, entry models.StatusHistoryEntry) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	var userID string
	var createdAt time.Time
	err = session.Query(`SELECT user_id, created_at FROM orders WHERE order_id = ?`, orderID).
		WithContext(ctx).Scan(&userID, &createdAt)
	if err == gocql.ErrNotFound {
		return apperrors.NotFound("commande introuvable")
	}
	if err != nil {
		return apperrors.Persistence(err, "erreur lecture commande")
	}

	// Garde LWT : de deux transitions concurrentes partant du même statut,
	// une seule passe, l'autre voit le statut déjà changé
	var observed string
	applied, err := session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
		status, entry.ChangedAt, orderID, fromStatus).WithContext(ctx).ScanCAS(&observed)
	if err != nil {
		return apperrors.Persistence(err, "erreur mise à jour statut")
	}
	if !applied {
		return apperrors.Conflict("impossible de passer la commande de %s à %s", observed, status)
	}

	if err := r.appendHistory(ctx, session, orderID, entry); err != nil {
		return err
	}

	// Tenir la vue par utilisateur à jour (best effort)
	if err := session.Query(`UPDATE orders_by_user SET status = ? WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		status, userID, createdAt, orderID).WithContext(ctx).Exec(); err != nil {
		// La table orders reste la source de vérité
		return apperrors.Persistence(err, "erreur mise à jour vue utilisateur")
	}

	return nil
}

func (r *ScyllaOrders) UpdatePaymentStatus(ctx context.Context, orderID gocql.UUID, paymentStatus string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	var existing gocql.UUID
	err = session.Query(`SELECT order_id FROM orders WHERE order_id = ?`, orderID).
		WithContext(ctx).Scan(&existing)
	if err == gocql.ErrNotFound {
		return apperrors.NotFound("commande introuvable")
	}
	if err != nil {
		return apperrors.Persistence(err, "erreur lecture commande")
	}

	if err := session.Query(`UPDATE orders SET payment_status = ?, updated_at = ? WHERE order_id = ?`,
		paymentStatus, time.Now(), orderID).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur mise à jour statut de paiement")
	}
	return nil
}

func (r *ScyllaOrders) appendHistory(ctx context.Context, session *gocql.Session, orderID gocql.UUID, entry models.StatusHistoryEntry) error {
	if err := session.Query(`
		INSERT INTO order_status_history (order_id, changed_at, entry_id, status, note)
		VALUES (?, ?, ?, ?, ?)`,
		orderID, entry.ChangedAt, gocql.TimeUUID(), entry.Status, entry.Note,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur écriture journal de statuts")
	}
	return nil
}

func (r *ScyllaOrders) fetchItems(ctx context.Context, session *gocql.Session, orderID gocql.UUID) ([]models.OrderItem, error) {
	q := database.GetPreparedGetOrderItems()
	if q == nil {
		q = session.Query(`SELECT item_no, product_id, name, unit_price, quantity, variant_name, customization
			FROM order_items WHERE order_id = ?`)
	}
	iter := q.Bind(orderID).WithContext(ctx).Iter()

	var items []models.OrderItem
	var itemNo int
	var it models.OrderItem
	for iter.Scan(&itemNo, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.VariantName, &it.Customization) {
		items = append(items, it)
		it = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture lignes de commande")
	}
	return items, nil
}

func (r *ScyllaOrders) fetchHistory(ctx context.Context, session *gocql.Session, orderID gocql.UUID) ([]models.StatusHistoryEntry, error) {
	q := database.GetPreparedGetOrderHistory()
	if q == nil {
		q = session.Query(`SELECT status, note, changed_at FROM order_status_history WHERE order_id = ?`)
	}
	iter := q.Bind(orderID).WithContext(ctx).Iter()

	var history []models.StatusHistoryEntry
	var e models.StatusHistoryEntry
	for iter.Scan(&e.Status, &e.Note, &e.ChangedAt) {
		history = append(history, e)
		e = models.StatusHistoryEntry{}
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture journal de statuts")
	}
	return history, nil
}

func (r *ScyllaOrders) hydrateAll(ctx context.Context, ids []gocql.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				continue
			}
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}
