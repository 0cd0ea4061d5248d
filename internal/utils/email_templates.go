package utils

import (
	"fmt"

	"atelier_back_end/internal/models"
)

// Libellés affichés dans les e-mails pour chaque statut
var statusLabels = map[string]string{
	models.OrderStatusPending:    "en attente",
	models.OrderStatusConfirmed:  "confirmée",
	models.OrderStatusProcessing: "en préparation",
	models.OrderStatusShipped:    "expédiée",
	models.OrderStatusDelivered:  "livrée",
	models.OrderStatusCancelled:  "annulée",
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		name := item.Name
		if item.VariantName != "" {
			name = fmt.Sprintf("%s — design %s", item.Name, item.VariantName)
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, name, item.Quantity, item.UnitPrice, item.Subtotal())
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #faf7f2; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #6b4f3a;">Merci pour votre commande !</h2>
		<p>Bonjour %s,</p>
		<p>Votre commande <strong>%s</strong> a bien été enregistrée.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0ebe3;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Article</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<p>Frais de port : %.2f€</p>
		<p style="font-size: 18px;"><strong>Total : %.2f€</strong></p>

		<p>Livraison à : %s, %s, %s %s</p>
		<p style="color: #888; font-size: 12px;">Chaque pièce est faite à la main dans notre atelier — merci de votre patience !</p>
	</div>
</body>
</html>`,
		order.Address.RecipientName, order.OrderNumber, itemsHTML,
		order.ShippingFee, order.TotalAmount,
		order.Address.RecipientName, order.Address.Street, order.Address.PostalCode, order.Address.City)
}

// GenerateStatusUpdateHTML génère le HTML de notification de changement de statut
func GenerateStatusUpdateHTML(order *models.Order) string {
	label := statusLabels[order.Status]
	if label == "" {
		label = order.Status
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de votre commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #faf7f2; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #6b4f3a;">Votre commande %s est %s</h2>
		<p>Bonjour %s,</p>
		<p>Le statut de votre commande <strong>%s</strong> vient de changer : <strong>%s</strong>.</p>
		<p style="color: #888; font-size: 12px;">L'équipe de l'atelier</p>
	</div>
</body>
</html>`,
		order.OrderNumber, label, order.Address.RecipientName, order.OrderNumber, label)
}
