package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"atelier_back_end/internal/config"
	"atelier_back_end/internal/handlers"
	"atelier_back_end/internal/middleware"
	"atelier_back_end/internal/repository"
	"atelier_back_end/internal/services"
	"atelier_back_end/internal/utils"
)

// RegisterRoutes assemble les dépôts, services et handlers puis branche
// toutes les routes de l'API
func RegisterRoutes(r *gin.Engine) {
	r.Use(corsConfig())

	// Dépôts ScyllaDB
	catalog := repository.NewScyllaCatalog()
	stock := repository.NewScyllaStockLedger()
	orders := repository.NewScyllaOrders()
	payments := repository.NewScyllaPayments()
	inventory := repository.NewScyllaInventory()

	notifier := utils.NewMailNotifier()

	placementSvc := services.NewPlacementService(catalog, stock, orders, payments, notifier, config.ShippingFee())
	lifecycleSvc := services.NewLifecycleService(orders, stock, notifier)
	paymentSvc := services.NewPaymentService(payments, orders)

	orderHandler := handlers.NewOrderHandler(placementSvc, lifecycleSvc, paymentSvc, orders)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc)
	inventoryHandler := handlers.NewInventoryHandler(stock, inventory)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())

	// Commandes
	api.POST("/orders", middleware.OrderRateLimit(), orderHandler.PlaceOrder)
	api.GET("/orders/my", orderHandler.GetMyOrders)
	api.GET("/orders/:id", orderHandler.GetOrder)
	api.GET("/orders/:id/payment-instructions", orderHandler.GetPaymentInstructions)

	// Paiements
	api.POST("/payments/upload-proof", middleware.UploadRateLimit(), paymentHandler.UploadProof)

	// Back office
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin)
	admin.GET("/orders", orderHandler.ListOrders)
	admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	admin.GET("/payments", paymentHandler.ListPending)
	admin.PUT("/payments/verify", paymentHandler.Verify)
	admin.POST("/inventory/restock", inventoryHandler.Restock)
	admin.POST("/inventory/adjust", inventoryHandler.Adjust)
	admin.GET("/inventory/movements", inventoryHandler.ListMovements)
	admin.GET("/inventory/alerts", inventoryHandler.ListAlerts)
	admin.PUT("/inventory/alerts/:id/resolve", inventoryHandler.ResolveAlert)
}

func corsConfig() gin.HandlerFunc {
	origins := []string{"http://localhost:3000"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
