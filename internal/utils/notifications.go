package utils

import (
	"log"

	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// MailNotifier envoie les e-mails de commande en arrière-plan.
// Implémente services.Notifier.
type MailNotifier struct{}

func NewMailNotifier() *MailNotifier {
	return &MailNotifier{}
}

// NotifyOrderPlaced envoie la confirmation de commande, facture PDF jointe si
// le rendu aboutit
func (n *MailNotifier) NotifyOrderPlaced(order *models.Order) {
	go func() {
		email, err := lookupUserEmail(order.UserID)
		if err != nil {
			log.Printf("⚠️ E-mail introuvable pour %s: %v", order.UserID, err)
			return
		}

		html := GenerateOrderConfirmationHTML(order)

		pdf, err := RenderInvoicePDF(order.ID.String())
		if err != nil {
			log.Println("❌ Erreur génération PDF :", err)
			pdf = nil
		}

		if err := SendEmail(email, "Confirmation de votre commande "+order.OrderNumber, html, pdf); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation :", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", email)
		}
	}()
}

// NotifyOrderStatus prévient l'acheteur d'un changement de statut
func (n *MailNotifier) NotifyOrderStatus(order *models.Order) {
	go func() {
		email, err := lookupUserEmail(order.UserID)
		if err != nil {
			log.Printf("⚠️ E-mail introuvable pour %s: %v", order.UserID, err)
			return
		}

		html := GenerateStatusUpdateHTML(order)
		if err := SendEmail(email, "Mise à jour de votre commande "+order.OrderNumber, html, nil); err != nil {
			log.Println("❌ Erreur envoi e-mail statut :", err)
		}
	}()
}

// lookupUserEmail lit l'e-mail dans le keyspace users (géré par le service
// d'authentification, lecture seule ici)
func lookupUserEmail(userID string) (string, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return "", err
	}

	var email string
	if err := session.Query("SELECT email FROM users WHERE user_id = ?", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}
