package services

import "atelier_back_end/internal/models"

// Notifier envoie les notifications liées aux commandes (e-mails).
// Les implémentations doivent être non bloquantes : les envois partent en
// goroutine, un échec d'envoi n'échoue jamais la requête.
type Notifier interface {
	NotifyOrderPlaced(order *models.Order)
	NotifyOrderStatus(order *models.Order)
}
