package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// PaymentQR génère un QR de paiement mobile money en base64, prêt pour <img src="...">.
// Le contenu reprend le moyen de paiement, le numéro marchand, le montant et la référence.
func PaymentQR(method, merchantPhone, reference string, amount decimal.Decimal) (string, error) {
	payload := fmt.Sprintf("PAY:%s\nTO:%s\nAMOUNT:%s BIF\nREF:%s",
		method, merchantPhone, amount.StringFixed(2), reference)

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderPDF imprime une page HTML en PDF avec un Chrome headless
func RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("rendu PDF: %w", err)
	}
	return pdf, nil
}
