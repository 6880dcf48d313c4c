package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"ciment_back_end/internal/models"
)

var mailFuncs = template.FuncMap{
	"bif":      FormatBIF,
	"delivery": func(k string) string { return models.DeliveryLabels[k] },
	"payment":  func(k string) string { return models.PaymentLabels[k] },
}

var orderCreatedTmpl = template.Must(template.New("order_created").Funcs(mailFuncs).Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
	<h2 style="color: #333;">Merci pour votre commande N°{{.Order.ID}}</h2>
	<p>Bonjour {{.Order.FirstName}} {{.Order.LastName}},</p>
	<p>Nous avons bien reçu votre commande. Elle sera traitée dès réception de votre paiement {{payment .Order.PaymentMethod}}.</p>
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background-color: #f0f0f0;">
				<th style="padding: 8px; text-align: left;">Produit</th>
				<th style="padding: 8px; text-align: left;">Quantité</th>
				<th style="padding: 8px; text-align: left;">Prix unitaire</th>
				<th style="padding: 8px; text-align: left;">Total</th>
			</tr>
		</thead>
		<tbody>
		{{range .Order.Items}}
			<tr>
				<td style="padding: 8px;">{{.ProductName}}</td>
				<td style="padding: 8px;">{{.Quantity}}</td>
				<td style="padding: 8px;">{{bif .Price}}</td>
				<td style="padding: 8px;">{{bif .Cost}}</td>
			</tr>
		{{end}}
		</tbody>
		<tfoot>
			<tr>
				<td colspan="3" style="padding: 8px; text-align: right; font-weight: bold;">Total :</td>
				<td style="padding: 8px; font-weight: bold;">{{bif .Order.TotalAmount}}</td>
			</tr>
		</tfoot>
	</table>
	<p>Mode de réception : {{delivery .Order.DeliveryType}}{{if .Order.City}} ({{.Order.City}}){{end}}</p>
	<p style="margin-top: 30px; color: #555;">Cordialement,<br><strong>L'équipe {{.Shop}}</strong></p>
</div>
</body>
</html>`))

var orderStatusTmpl = template.Must(template.New("order_status").Funcs(mailFuncs).Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
	<h2 style="color: {{.Color}};">{{.Icon}} Commande N°{{.Order.ID}} : {{.Label}}</h2>
	<p>Bonjour {{.Order.FirstName}},</p>
	<p>{{.Message}}</p>
	<p>Montant de la commande : <strong>{{bif .Order.TotalAmount}}</strong></p>
	<p style="margin-top: 30px; color: #555;">Cordialement,<br><strong>L'équipe {{.Shop}}</strong></p>
</div>
</body>
</html>`))

// OrderConfirmationEmail prépare l'e-mail envoyé après une commande
func OrderConfirmationEmail(order models.Order, shop string) (Email, error) {
	var buf bytes.Buffer
	data := map[string]any{"Order": order, "Shop": shop}
	if err := orderCreatedTmpl.Execute(&buf, data); err != nil {
		return Email{}, err
	}
	return Email{
		To:      order.Email,
		Subject: fmt.Sprintf("Confirmation de votre commande N°%d", order.ID),
		HTML:    buf.String(),
	}, nil
}

// OrderStatusEmail prépare l'e-mail de changement de statut
func OrderStatusEmail(order models.Order, shop string) (Email, error) {
	var buf bytes.Buffer
	data := map[string]any{
		"Order":   order,
		"Shop":    shop,
		"Label":   order.StatusLabel(),
		"Message": statusMessage(order.Status),
		"Icon":    statusIcon(order.Status),
		"Color":   statusColor(order.Status),
	}
	if err := orderStatusTmpl.Execute(&buf, data); err != nil {
		return Email{}, err
	}
	return Email{
		To:      order.Email,
		Subject: fmt.Sprintf("%s Commande N°%d : %s", statusIcon(order.Status), order.ID, order.StatusLabel()),
		HTML:    buf.String(),
	}, nil
}

func statusMessage(status string) string {
	switch status {
	case models.StatusPaid:
		return "Votre paiement a été confirmé. Nous préparons votre commande."
	case models.StatusPreparing:
		return "Votre commande est en cours de préparation."
	case models.StatusShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.StatusDelivered:
		return "Votre commande a été livrée. Merci de votre confiance !"
	case models.StatusCancelled:
		return "Votre commande a été annulée. Contactez-nous pour toute question."
	case models.StatusRefunded:
		return "Votre commande a été remboursée."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func statusIcon(status string) string {
	switch status {
	case models.StatusPaid:
		return "✅"
	case models.StatusShipped:
		return "📦"
	case models.StatusDelivered:
		return "🎉"
	case models.StatusCancelled:
		return "❌"
	case models.StatusRefunded:
		return "💰"
	default:
		return "📋"
	}
}

func statusColor(status string) string {
	switch status {
	case models.StatusPaid:
		return "#10b981"
	case models.StatusShipped:
		return "#3b82f6"
	case models.StatusDelivered:
		return "#8b5cf6"
	case models.StatusCancelled:
		return "#ef4444"
	case models.StatusRefunded:
		return "#f59e0b"
	default:
		return "#6b7280"
	}
}
