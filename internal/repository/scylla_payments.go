package repository

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// ScyllaPayments persiste les paiements dans ks_orders :
//   - payments          : l'enregistrement de paiement
//   - payments_by_order : au plus un paiement par commande (LWT)
type ScyllaPayments struct{}

func NewScyllaPayments() *ScyllaPayments {
	return &ScyllaPayments{}
}

func (r *ScyllaPayments) Create(ctx context.Context, payment *models.Payment) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	// L'invariant "un paiement par commande" est garanti par cette LWT
	applied, err := session.Query(`INSERT INTO payments_by_order (order_id, payment_id) VALUES (?, ?) IF NOT EXISTS`,
		payment.OrderID, payment.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return apperrors.Persistence(err, "erreur réservation paiement")
	}
	if !applied {
		return apperrors.Conflict("un paiement existe déjà pour cette commande")
	}

	if err := session.Query(`
		INSERT INTO payments (
			payment_id, order_id, method, amount, transaction_id, proof_url, status,
			verified_by, rejection_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.OrderID, payment.Method, payment.Amount,
		payment.TransactionID, payment.ProofURL, payment.Status,
		payment.VerifiedBy, payment.RejectionReason, payment.CreatedAt, payment.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur création paiement")
	}
	return nil
}

func (r *ScyllaPayments) GetByID(ctx context.Context, paymentID gocql.UUID) (*models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	var p models.Payment
	err = session.Query(`SELECT payment_id, order_id, method, amount, transaction_id, proof_url, status,
		verified_by, verified_at, rejection_reason, created_at, updated_at
		FROM payments WHERE payment_id = ?`, paymentID).WithContext(ctx).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.TransactionID, &p.ProofURL, &p.Status,
		&p.VerifiedBy, &p.VerifiedAt, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, apperrors.NotFound("paiement introuvable")
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture paiement")
	}
	return &p, nil
}

func (r *ScyllaPayments) GetByOrder(ctx context.Context, orderID gocql.UUID) (*models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	var paymentID gocql.UUID
	q := database.GetPreparedGetPaymentByOrder()
	if q == nil {
		q = session.Query(`SELECT payment_id FROM payments_by_order WHERE order_id = ?`)
	}
	err = q.Bind(orderID).WithContext(ctx).Scan(&paymentID)
	if err == gocql.ErrNotFound {
		return nil, apperrors.NotFound("aucun paiement pour cette commande")
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur lecture paiement")
	}

	return r.GetByID(ctx, paymentID)
}

func (r *ScyllaPayments) UpdateProof(ctx context.Context, paymentID gocql.UUID, proofURL, transactionID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	// Une nouvelle preuve repasse toujours en file de vérification
	if err := session.Query(`UPDATE payments SET proof_url = ?, transaction_id = ?, status = ?,
		verified_by = ?, verified_at = ?, rejection_reason = ?, updated_at = ?
		WHERE payment_id = ?`,
		proofURL, transactionID, models.PaymentVerificationPending,
		"", nil, "", time.Now(), paymentID,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur mise à jour preuve de paiement")
	}
	return nil
}

func (r *ScyllaPayments) UpdateVerification(ctx context.Context, paymentID gocql.UUID, status, verifiedBy, rejectionReason string, verifiedAt time.Time) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperrors.Persistence(err, "erreur connexion base de données")
	}

	if err := session.Query(`UPDATE payments SET status = ?, verified_by = ?, verified_at = ?,
		rejection_reason = ?, updated_at = ? WHERE payment_id = ?`,
		status, verifiedBy, verifiedAt, rejectionReason, time.Now(), paymentID,
	).WithContext(ctx).Exec(); err != nil {
		return apperrors.Persistence(err, "erreur mise à jour vérification")
	}
	return nil
}

func (r *ScyllaPayments) ListByStatus(ctx context.Context, status string, limit int) ([]models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur connexion base de données")
	}

	var iter *gocql.Iter
	if status != "" {
		iter = session.Query(`SELECT payment_id, order_id, method, amount, transaction_id, proof_url, status,
			verified_by, verified_at, rejection_reason, created_at, updated_at
			FROM payments WHERE status = ? LIMIT ? ALLOW FILTERING`, status, limit).WithContext(ctx).Iter()
	} else {
		iter = session.Query(`SELECT payment_id, order_id, method, amount, transaction_id, proof_url, status,
			verified_by, verified_at, rejection_reason, created_at, updated_at
			FROM payments LIMIT ?`, limit).WithContext(ctx).Iter()
	}

	var payments []models.Payment
	var p models.Payment
	for iter.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.TransactionID, &p.ProofURL, &p.Status,
		&p.VerifiedBy, &p.VerifiedAt, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt) {
		payments = append(payments, p)
		p = models.Payment{}
	}
	if err := iter.Close(); err != nil {
		return nil, apperrors.Persistence(err, "erreur listage paiements")
	}
	return payments, nil
}
