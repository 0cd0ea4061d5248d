package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/repository"
	"atelier_back_end/internal/utils"
)

// InventoryHandler regroupe le back office stock (réassort, mouvements, alertes)
type InventoryHandler struct {
	stock     repository.StockLedger
	inventory repository.InventoryRepository
}

func NewInventoryHandler(stock repository.StockLedger, inventory repository.InventoryRepository) *InventoryHandler {
	return &InventoryHandler{stock: stock, inventory: inventory}
}

type stockChangeRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity" binding:"required"`
	Reason      string `json:"reason"`
}

// Restock - POST /api/admin/inventory/restock
func (h *InventoryHandler) Restock(c *gin.Context) {
	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "Données invalides: " + err.Error()})
		return
	}
	if req.Quantity <= 0 {
		respondError(c, apperrors.Validation("la quantité de réassort doit être positive"))
		return
	}

	productID, err := parseProductID(req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	adminID := c.GetString("user_id")
	newStock, err := h.stock.Restock(c.Request.Context(), productID, req.VariantName, req.Quantity, req.Reason, adminID)
	if err != nil {
		utils.LogFailedAction(c, "restock", "product", req.ProductID, err.Error())
		respondError(c, err)
		return
	}

	utils.LogAction(c, "restock", "product", req.ProductID, nil, gin.H{"quantity": req.Quantity, "new_stock": newStock})
	respondOK(c, http.StatusOK, "Stock réapprovisionné", gin.H{"new_stock": newStock})
}

// Adjust - POST /api/admin/inventory/adjust
// Force le stock à une valeur absolue (correction après inventaire)
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req struct {
		ProductID   string `json:"product_id" binding:"required"`
		VariantName string `json:"variant_name"`
		NewStock    *int   `json:"new_stock" binding:"required"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "Données invalides: " + err.Error()})
		return
	}
	if *req.NewStock < 0 {
		respondError(c, apperrors.Validation("le stock ne peut pas être négatif"))
		return
	}

	productID, err := parseProductID(req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	adminID := c.GetString("user_id")
	newStock, err := h.stock.Adjust(c.Request.Context(), productID, req.VariantName, *req.NewStock, req.Reason, adminID)
	if err != nil {
		utils.LogFailedAction(c, "adjust_stock", "product", req.ProductID, err.Error())
		respondError(c, err)
		return
	}

	utils.LogAction(c, "adjust_stock", "product", req.ProductID, nil, gin.H{"new_stock": newStock})
	respondOK(c, http.StatusOK, "Stock ajusté", gin.H{"new_stock": newStock})
}

// ListMovements - GET /api/admin/inventory/movements?product_id=&limit=
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var productID *gocql.UUID
	if raw := c.Query("product_id"); raw != "" {
		parsed, err := parseProductID(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		productID = &parsed
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.inventory.ListMovements(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Mouvements de stock", movements)
}

// ListAlerts - GET /api/admin/inventory/alerts
func (h *InventoryHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.inventory.ListAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Alertes de stock actives", alerts)
}

// ResolveAlert - PUT /api/admin/inventory/alerts/:id/resolve
func (h *InventoryHandler) ResolveAlert(c *gin.Context) {
	parsed, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("ID alerte invalide"))
		return
	}

	if err := h.inventory.ResolveAlert(c.Request.Context(), gocql.UUID(parsed)); err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, "resolve_alert", "stock_alert", parsed.String(), nil, nil)
	respondOK(c, http.StatusOK, "Alerte résolue", nil)
}

func parseProductID(raw string) (gocql.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return gocql.UUID{}, apperrors.Validation("ID produit invalide")
	}
	return gocql.UUID(parsed), nil
}
