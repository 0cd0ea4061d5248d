package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/middleware"
	"atelier_back_end/internal/repository"
	"atelier_back_end/internal/services"
	"atelier_back_end/internal/utils"
)

// OrderHandler expose le flux de commande : passage, consultation, cycle de vie
type OrderHandler struct {
	placement *services.PlacementService
	lifecycle *services.LifecycleService
	payments  *services.PaymentService
	orders    repository.OrderRepository
}

func NewOrderHandler(
	placement *services.PlacementService,
	lifecycle *services.LifecycleService,
	payments *services.PaymentService,
	orders repository.OrderRepository,
) *OrderHandler {
	return &OrderHandler{placement: placement, lifecycle: lifecycle, payments: payments, orders: orders}
}

// PlaceOrder - POST /api/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	var req services.PlacementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "Données invalides: " + err.Error()})
		return
	}

	order, err := h.placement.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Commande créée avec succès", order)
}

// GetOrder - GET /api/orders/:id (propriétaire ou admin)
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := parseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	if order.UserID != c.GetString("user_id") && !middleware.IsAdmin(c) {
		respondError(c, apperrors.Authorization("cette commande ne vous appartient pas"))
		return
	}

	respondOK(c, http.StatusOK, "Commande récupérée", order)
}

// GetMyOrders - GET /api/orders/my
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Commandes récupérées", orders)
}

// ListOrders - GET /api/admin/orders?status=pending
func (h *OrderHandler) ListOrders(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !services.IsOrderStatus(status) {
		respondError(c, apperrors.Validation("statut inconnu: %s", status))
		return
	}

	orders, err := h.orders.ListByStatus(c.Request.Context(), status, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Commandes récupérées", orders)
}

// UpdateStatus - PUT /api/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := parseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "Données invalides: " + err.Error()})
		return
	}

	adminID := c.GetString("user_id")
	order, err := h.lifecycle.ChangeStatus(c.Request.Context(), orderID, req.Status, req.Note, adminID)
	if err != nil {
		utils.LogFailedAction(c, "update_status", "order", orderID.String(), err.Error())
		respondError(c, err)
		return
	}

	utils.LogAction(c, "update_status", "order", orderID.String(), nil, req.Status)
	respondOK(c, http.StatusOK, "Statut mis à jour", order)
}

// GetPaymentInstructions - GET /api/orders/:id/payment-instructions
func (h *OrderHandler) GetPaymentInstructions(c *gin.Context) {
	orderID, err := parseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	instructions, err := h.payments.Instructions(c.Request.Context(),
		c.GetString("user_id"), middleware.IsAdmin(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Instructions de paiement", instructions)
}

func parseOrderID(raw string) (gocql.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return gocql.UUID{}, apperrors.Validation("ID commande invalide")
	}
	return gocql.UUID(parsed), nil
}
