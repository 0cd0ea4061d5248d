package services

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
)

func seedPayment(t *testing.T, payments *fakePayments, orderID gocql.UUID, status string) *models.Payment {
	t.Helper()
	now := time.Now()
	payment := &models.Payment{
		ID:        gocql.TimeUUID(),
		OrderID:   orderID,
		Method:    models.PaymentMethodBankTransfer,
		Amount:    55.90,
		ProofURL:  "http://minio/proofs/p.png",
		Status:    models.PaymentVerificationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, payments.Create(context.Background(), payment))
	if status != models.PaymentVerificationPending {
		require.NoError(t, payments.UpdateVerification(context.Background(), payment.ID, status, "admin-0", "", now))
		payment.Status = status
	}
	return payment
}

func TestVerifyMarksOrderPaid(t *testing.T) {
	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPaymentService(payments, orders)

	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodBankTransfer)
	payment := seedPayment(t, payments, order.ID, models.PaymentVerificationPending)

	verified, err := svc.Verify(context.Background(), "admin-1", payment.ID, VerifyActionVerify, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationVerified, verified.Status)
	assert.Equal(t, "admin-1", verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	// Propagation vers la commande : paiement payé, statut de commande intact
	stored, _ := orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestRejectMarksOrderFailedWithReason(t *testing.T) {
	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPaymentService(payments, orders)

	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodBankTransfer)
	payment := seedPayment(t, payments, order.ID, models.PaymentVerificationPending)

	rejected, err := svc.Verify(context.Background(), "admin-1", payment.ID, VerifyActionReject, "montant incorrect")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationRejected, rejected.Status)
	assert.Equal(t, "montant incorrect", rejected.RejectionReason)

	stored, _ := orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)
}

func TestVerifyTerminalPaymentIsRefused(t *testing.T) {
	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPaymentService(payments, orders)

	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodBankTransfer)
	payment := seedPayment(t, payments, order.ID, models.PaymentVerificationVerified)

	_, err := svc.Verify(context.Background(), "admin-2", payment.ID, VerifyActionReject, "changé d'avis")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Le premier vérificateur fait foi
	stored, _ := payments.GetByID(context.Background(), payment.ID)
	assert.Equal(t, models.PaymentVerificationVerified, stored.Status)
	assert.Equal(t, "admin-0", stored.VerifiedBy)
}

func TestVerifyInvalidAction(t *testing.T) {
	svc := NewPaymentService(newFakePayments(), newFakeOrders())
	_, err := svc.Verify(context.Background(), "admin-1", gocql.TimeUUID(), "approve", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUploadProofCreatesPaymentLazily(t *testing.T) {
	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPaymentService(payments, orders)

	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodPaylib)

	payment, err := svc.UploadProof(context.Background(), "user-1", order.ID, "http://minio/proofs/x.png", "TX-42")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationPending, payment.Status)
	assert.Equal(t, models.PaymentMethodPaylib, payment.Method)
	assert.Equal(t, "TX-42", payment.TransactionID)
	// Montant repris du total de la commande
	assert.InDelta(t, order.TotalAmount, payment.Amount, 0.001)
}

// Une nouvelle preuve après rejet remplace l'ancienne et remet le paiement
// en file de vérification, vérificateur effacé
func TestUploadProofAfterRejectionResetsToPending(t *testing.T) {
	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPaymentService(payments, orders)

	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodBankTransfer)
	seedPayment(t, payments, order.ID, models.PaymentVerificationRejected)

	payment, err := svc.UploadProof(context.Background(), "user-1", order.ID, "http://minio/proofs/v2.png", "TX-43")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationPending, payment.Status)
	assert.Equal(t, "http://minio/proofs/v2.png", payment.ProofURL)
	assert.Empty(t, payment.VerifiedBy)
	assert.Nil(t, payment.VerifiedAt)
	assert.Empty(t, payment.RejectionReason)
}

func TestUploadProofRejectedForCashOnDelivery(t *testing.T) {
	orders := newFakeOrders()
	svc := NewPaymentService(newFakePayments(), orders)
	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodCashOnDelivery)

	_, err := svc.UploadProof(context.Background(), "user-1", order.ID, "http://minio/proofs/x.png", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUploadProofOwnershipEnforced(t *testing.T) {
	orders := newFakeOrders()
	svc := NewPaymentService(newFakePayments(), orders)
	order := seedOrder(t, orders, models.OrderStatusPending, models.PaymentMethodBankTransfer)

	_, err := svc.UploadProof(context.Background(), "user-2", order.ID, "http://minio/proofs/x.png", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}

func TestListPendingClampsLimit(t *testing.T) {
	payments := newFakePayments()
	svc := NewPaymentService(payments, newFakeOrders())

	for i := 0; i < 3; i++ {
		seedPayment(t, payments, gocql.TimeUUID(), models.PaymentVerificationPending)
	}

	out, err := svc.ListPending(context.Background(), -5)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}
