package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"ciment_back_end/internal/models"
	"ciment_back_end/internal/utils"
)

// Invoice est la facture d'une commande. Les montants de la commande sont TTC.
type Invoice struct {
	Order      models.Order    `json:"order"`
	TotalHT    decimal.Decimal `json:"total_ht"`
	TVARate    decimal.Decimal `json:"tva_rate"`
	TVAAmount  decimal.Decimal `json:"tva_amount"`
	TotalTTC   decimal.Decimal `json:"total_ttc"`
	IssuedOn   time.Time       `json:"issued_on"`
	PaymentQR  string          `json:"payment_qr,omitempty"`
	ShopName   string          `json:"shop_name"`
	MerchantNo string          `json:"merchant_phone,omitempty"`
}

// NewInvoice calcule HT = TTC / (1 + taux) et TVA = TTC - HT
func NewInvoice(order models.Order, rate decimal.Decimal) Invoice {
	ttc := order.TotalAmount
	ht := ttc.DivRound(decimal.NewFromInt(1).Add(rate), 2)
	return Invoice{
		Order:     order,
		TotalHT:   ht,
		TVARate:   rate.Mul(decimal.NewFromInt(100)),
		TVAAmount: ttc.Sub(ht),
		TotalTTC:  ttc,
		IssuedOn:  time.Now(),
	}
}

// WithPaymentQR ajoute le QR de paiement mobile tant que la commande n'est pas réglée
func (inv Invoice) WithPaymentQR(shop, merchantPhone string) Invoice {
	inv.ShopName = shop
	inv.MerchantNo = merchantPhone
	if inv.Order.Paid || merchantPhone == "" {
		return inv
	}
	qr, err := utils.PaymentQR(inv.Order.PaymentMethod, merchantPhone, fmt.Sprintf("CMD-%d", inv.Order.ID), inv.TotalTTC)
	if err == nil {
		inv.PaymentQR = qr
	}
	return inv
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"bif":      utils.FormatBIF,
	"delivery": func(k string) string { return models.DeliveryLabels[k] },
	"payment":  func(k string) string { return models.PaymentLabels[k] },
	"date":     func(t time.Time) string { return t.Format("02/01/2006") },
	"qr":       func(s string) template.URL { return template.URL(s) },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<title>Facture N°{{.Order.ID}}</title>
<style>
	body { font-family: Arial, sans-serif; color: #222; margin: 40px; }
	table { width: 100%; border-collapse: collapse; margin-top: 20px; }
	th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
	.right { text-align: right; }
	.totals td { border: none; }
</style>
</head>
<body>
	<h1>{{.ShopName}}</h1>
	<h2>Facture N°{{.Order.ID}}</h2>
	<p>Date : {{date .IssuedOn}} &middot; Commande du {{date .Order.CreatedAt}}</p>
	<p>
		<strong>{{.Order.FirstName}} {{.Order.LastName}}</strong><br>
		{{.Order.Email}} &middot; {{.Order.Phone}}<br>
		{{if .Order.Address}}{{.Order.Address}}<br>{{end}}
		{{if .Order.City}}{{if .Order.PostalCode}}{{.Order.PostalCode}} {{end}}{{.Order.City}}<br>{{end}}
		{{delivery .Order.DeliveryType}} &middot; Paiement {{payment .Order.PaymentMethod}}
		{{if .Order.Paid}} (payée){{end}}
	</p>
	<table>
		<thead><tr><th>Produit</th><th>Quantité</th><th class="right">Prix unitaire</th><th class="right">Total</th></tr></thead>
		<tbody>
		{{range .Order.Items}}
			<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td class="right">{{bif .Price}}</td><td class="right">{{bif .Cost}}</td></tr>
		{{end}}
		</tbody>
	</table>
	<table class="totals">
		<tr><td class="right">Total HT</td><td class="right">{{bif .TotalHT}}</td></tr>
		<tr><td class="right">TVA ({{.TVARate.StringFixed 0}}%)</td><td class="right">{{bif .TVAAmount}}</td></tr>
		<tr><td class="right"><strong>Total TTC</strong></td><td class="right"><strong>{{bif .TotalTTC}}</strong></td></tr>
	</table>
	{{if .PaymentQR}}
	<p>Scannez pour payer par {{payment .Order.PaymentMethod}} au {{.MerchantNo}} :</p>
	<img src="{{qr .PaymentQR}}" alt="QR de paiement" width="160" height="160">
	{{end}}
</body>
</html>`))

// RenderHTML produit la facture au format HTML
func (inv Invoice) RenderHTML() (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PDFRenderer convertit une page HTML en PDF
type PDFRenderer func(ctx context.Context, html string) ([]byte, error)

// RenderPDF produit la facture en PDF avec render (Chrome headless par défaut)
func (inv Invoice) RenderPDF(ctx context.Context, render PDFRenderer) ([]byte, error) {
	if render == nil {
		render = utils.RenderPDF
	}
	html, err := inv.RenderHTML()
	if err != nil {
		return nil, err
	}
	return render(ctx, html)
}
