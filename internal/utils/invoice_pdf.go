package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateSepaQR génère un QR SEPA (EPC) en base64 prêt à mettre dans <img src="...">.
// La référence est le numéro de commande : le virement est rapproché à la main.
func GenerateSepaQR(iban, bic, name, ref string, amount float64) (string, error) {
	// format EPC basique
	sepa := fmt.Sprintf(`BCD
001
1
SCT
%s
%s
%s
EUR%.2f
%s`, bic, name, iban, amount, ref)

	png, err := qrcode.Encode(sepa, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderInvoicePDF charge la page facture du frontend et l'imprime en PDF,
// pour la joindre à l'e-mail de confirmation.
// FRONTEND_INVOICE_URL doit ressembler à: http://localhost:3000/invoice
func RenderInvoicePDF(orderID string) ([]byte, error) {
	frontendURL := os.Getenv("FRONTEND_INVOICE_URL")
	if frontendURL == "" {
		return nil, fmt.Errorf("FRONTEND_INVOICE_URL non configuré")
	}

	q := url.Values{}
	q.Set("id", orderID)
	fullURL := fmt.Sprintf("%s?%s", frontendURL, q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, err = printToPDF(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

func printToPDF(ctx context.Context) ([]byte, error) {
	buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
	return buf, err
}
