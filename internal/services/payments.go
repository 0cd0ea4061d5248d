package services

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/config"
	"atelier_back_end/internal/models"
	"atelier_back_end/internal/repository"
	"atelier_back_end/internal/utils"
)

// Actions de vérification d'un paiement
const (
	VerifyActionVerify = "verify"
	VerifyActionReject = "reject"
)

// PaymentService gère la réconciliation des paiements vérifiés manuellement :
// envoi de preuve par l'acheteur, vérification par un admin, propagation du
// résultat vers le statut de paiement de la commande.
type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
}

func NewPaymentService(payments repository.PaymentRepository, orders repository.OrderRepository) *PaymentService {
	return &PaymentService{payments: payments, orders: orders}
}

// Verify applique la décision d'un admin sur un paiement en attente.
// Re-vérifier un paiement déjà vérifié/rejeté est refusé (Conflict) : le
// premier vérificateur fait foi, une nouvelle preuve repasse par pending.
func (s *PaymentService) Verify(ctx context.Context, adminID string, paymentID gocql.UUID, action, rejectionReason string) (*models.Payment, error) {
	if action != VerifyActionVerify && action != VerifyActionReject {
		return nil, apperrors.Validation("action invalide: %s (attendu: verify ou reject)", action)
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentVerificationPending {
		return nil, apperrors.Conflict("paiement déjà %s, impossible de re-vérifier", payment.Status)
	}

	now := time.Now()
	newStatus := models.PaymentVerificationVerified
	orderPaymentStatus := models.PaymentStatusPaid
	if action == VerifyActionReject {
		newStatus = models.PaymentVerificationRejected
		orderPaymentStatus = models.PaymentStatusFailed
	} else {
		rejectionReason = ""
	}

	if err := s.payments.UpdateVerification(ctx, paymentID, newStatus, adminID, rejectionReason, now); err != nil {
		return nil, err
	}

	// Propagation vers la commande : seul chemin par lequel le statut de
	// paiement d'une commande non-espèces change. Le statut de commande
	// (pending, shipped…) n'est jamais touché ici.
	if err := s.orders.UpdatePaymentStatus(ctx, payment.OrderID, orderPaymentStatus); err != nil {
		return nil, err
	}

	payment.Status = newStatus
	payment.VerifiedBy = adminID
	payment.VerifiedAt = &now
	payment.RejectionReason = rejectionReason
	payment.UpdatedAt = now

	log.Printf("✅ Paiement %s %s par %s", paymentID, newStatus, adminID)
	return payment, nil
}

// UploadProof enregistre une preuve de paiement envoyée par le propriétaire
// de la commande. Upsert : une preuve existante est remplacée et le paiement
// repasse en file de vérification.
func (s *PaymentService) UploadProof(ctx context.Context, userID string, orderID gocql.UUID, proofURL, transactionID string) (*models.Payment, error) {
	if proofURL == "" {
		return nil, apperrors.Validation("preuve de paiement manquante")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.Authorization("cette commande ne vous appartient pas")
	}
	if order.PaymentMethod == models.PaymentMethodCashOnDelivery {
		return nil, apperrors.Validation("aucune preuve attendue pour un paiement à la livraison")
	}

	now := time.Now()
	payment, err := s.payments.GetByOrder(ctx, orderID)
	if err != nil {
		if !apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, err
		}
		// Création paresseuse à la première preuve, montant = total commande
		payment = &models.Payment{
			ID:            gocql.TimeUUID(),
			OrderID:       orderID,
			Method:        order.PaymentMethod,
			Amount:        order.TotalAmount,
			TransactionID: transactionID,
			ProofURL:      proofURL,
			Status:        models.PaymentVerificationPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
		log.Printf("🧾 Preuve de paiement reçue pour %s (nouveau paiement)", order.OrderNumber)
		return payment, nil
	}

	if err := s.payments.UpdateProof(ctx, payment.ID, proofURL, transactionID); err != nil {
		return nil, err
	}

	payment.ProofURL = proofURL
	payment.TransactionID = transactionID
	payment.Status = models.PaymentVerificationPending
	payment.VerifiedBy = ""
	payment.VerifiedAt = nil
	payment.RejectionReason = ""
	payment.UpdatedAt = now

	log.Printf("🧾 Preuve de paiement remplacée pour %s, retour en vérification", order.OrderNumber)
	return payment, nil
}

// ListPending retourne la file de vérification des admins
func (s *PaymentService) ListPending(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.payments.ListByStatus(ctx, models.PaymentVerificationPending, limit)
}

// PaymentInstructions : coordonnées à afficher à l'acheteur pour régler sa
// commande par virement, avec QR SEPA prêt à scanner
type PaymentInstructions struct {
	OrderNumber string  `json:"order_number"`
	Amount      float64 `json:"amount"`
	IBAN        string  `json:"iban"`
	BIC         string  `json:"bic"`
	HolderName  string  `json:"holder_name"`
	Reference   string  `json:"reference"`
	QRCode      string  `json:"qr_code"` // data:image/png;base64
}

// Instructions génère les instructions de virement pour une commande
func (s *PaymentService) Instructions(ctx context.Context, userID string, isAdmin bool, orderID gocql.UUID) (*PaymentInstructions, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperrors.Authorization("cette commande ne vous appartient pas")
	}
	if order.PaymentMethod != models.PaymentMethodBankTransfer {
		return nil, apperrors.Validation("la commande %s n'est pas payée par virement", order.OrderNumber)
	}

	bank := config.GetBankDetails()
	qr, err := utils.GenerateSepaQR(bank.IBAN, bank.BIC, bank.HolderName, order.OrderNumber, order.TotalAmount)
	if err != nil {
		return nil, apperrors.Persistence(err, "erreur génération QR SEPA")
	}

	return &PaymentInstructions{
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		IBAN:        bank.IBAN,
		BIC:         bank.BIC,
		HolderName:  bank.HolderName,
		Reference:   order.OrderNumber,
		QRCode:      qr,
	}, nil
}
