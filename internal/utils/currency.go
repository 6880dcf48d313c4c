package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatBIF affiche un montant en francs burundais : "1,234.00 BIF"
func FormatBIF(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return amountPrinter.Sprintf("%.2f BIF", f)
}

// FormatBIFString formate un montant saisi en texte ("0 BIF" si vide)
func FormatBIFString(raw string) string {
	if raw == "" {
		return "0 BIF"
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw + " BIF"
	}
	return FormatBIF(d)
}
