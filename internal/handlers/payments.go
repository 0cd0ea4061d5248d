package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
	"atelier_back_end/internal/services"
	"atelier_back_end/internal/utils"
)

// PaymentHandler expose l'envoi de preuves et la vérification des paiements
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// UploadProof - POST /api/payments/upload-proof (multipart)
// Champs: order_id, screenshot (fichier), transaction_id (optionnel)
func (h *PaymentHandler) UploadProof(c *gin.Context) {
	userID := c.GetString("user_id")

	orderIDStr := c.PostForm("order_id")
	parsed, err := uuid.Parse(orderIDStr)
	if err != nil {
		respondError(c, apperrors.Validation("ID commande invalide"))
		return
	}
	orderID := gocql.UUID(parsed)

	file, err := c.FormFile("screenshot")
	if err != nil {
		respondError(c, apperrors.Validation("capture d'écran manquante"))
		return
	}

	proofURL, err := services.UploadProofScreenshot(c.Request.Context(), orderID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.payments.UploadProof(c.Request.Context(), userID, orderID, proofURL, c.PostForm("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Preuve de paiement enregistrée, en attente de vérification", payment)
}

// Verify - PUT /api/admin/payments/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		PaymentID       string `json:"payment_id" binding:"required"`
		Action          string `json:"action" binding:"required"`
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "Données invalides: " + err.Error()})
		return
	}

	parsed, err := uuid.Parse(req.PaymentID)
	if err != nil {
		respondError(c, apperrors.Validation("ID paiement invalide"))
		return
	}

	adminID := c.GetString("user_id")
	payment, err := h.payments.Verify(c.Request.Context(), adminID, gocql.UUID(parsed), req.Action, req.RejectionReason)
	if err != nil {
		utils.LogFailedAction(c, "verify_payment", "payment", req.PaymentID, err.Error())
		respondError(c, err)
		return
	}

	utils.LogAction(c, "verify_payment", "payment", req.PaymentID, nil, req.Action)
	respondOK(c, http.StatusOK, "Paiement "+payment.Status, payment)
}

// ListPending - GET /api/admin/payments?status=pending
// File de vérification des admins, avec URL signée vers chaque preuve
func (h *PaymentHandler) ListPending(c *gin.Context) {
	if status := c.DefaultQuery("status", models.PaymentVerificationPending); status != models.PaymentVerificationPending {
		respondError(c, apperrors.Validation("seule la file pending est consultable ici"))
		return
	}

	payments, err := h.payments.ListPending(c.Request.Context(), 50)
	if err != nil {
		respondError(c, err)
		return
	}

	// URL signées temporaires pour consulter les preuves
	type pendingPayment struct {
		Payment        models.Payment `json:"payment"`
		SignedProofURL string         `json:"signed_proof_url,omitempty"`
	}
	out := make([]pendingPayment, 0, len(payments))
	for i := range payments {
		entry := pendingPayment{Payment: payments[i]}
		if payments[i].ProofURL != "" {
			if signed, err := services.SignedProofURL(c.Request.Context(), payments[i].ProofURL, 15*time.Minute); err == nil {
				entry.SignedProofURL = signed
			}
		}
		out = append(out, entry)
	}

	respondOK(c, http.StatusOK, "Paiements en attente", out)
}
