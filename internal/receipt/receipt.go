// Package receipt lays out a sale as 58mm (32 column) receipt text.
package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go-adega-pos/internal/checkout"
	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"
)

const Width = 32

// Render returns the printable receipt. When pixPayload is set it is
// printed under the totals for the customer to copy.
func Render(s models.Settings, r *checkout.Receipt, pixPayload string) string {
	var b strings.Builder
	rule := strings.Repeat("-", Width) + "\n"
	sale := r.Sale

	storeName := s.StoreName
	if storeName == "" {
		storeName = "Minha Adega"
	}
	center(&b, storeName)
	if s.StoreDocument != "" {
		center(&b, "CNPJ "+s.StoreDocument)
	}
	if s.StoreAddress != "" {
		center(&b, s.StoreAddress)
	}
	if s.StorePhone != "" {
		center(&b, "Tel: "+s.StorePhone)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Data: %s\n", sale.CreatedAt.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "Venda: %d\n", sale.ID)
	fmt.Fprintf(&b, "Atendente: %s\n", r.Cashier)
	b.WriteString(rule)
	fmt.Fprintf(&b, "%-17s%3s %11s\n", "ITEM", "QTD", "TOTAL")
	b.WriteString(rule)

	for _, it := range sale.Items {
		total := money.Format(it.LineTotal)
		fmt.Fprintf(&b, "%s%3d %11s\n", pad(it.ProductName, Width-4-max(len(total), 11)), it.Qty, total)
		fmt.Fprintf(&b, "  %s x %d\n", money.Format(it.UnitPrice), it.Qty)
	}

	b.WriteString(rule)
	right(&b, "Subtotal", money.Format(sale.Subtotal))
	if sale.Discount.IsPositive() {
		right(&b, "Desconto", money.Format(sale.Discount))
	}
	right(&b, "TOTAL", money.Format(sale.Total))
	right(&b, "Pgto", sale.PaymentMethod.Label())
	if sale.PaymentMethod == models.PaymentCash {
		right(&b, "Recebido", money.Format(sale.Received))
		right(&b, "Troco", money.Format(sale.ChangeDue))
	}

	if pixPayload != "" {
		b.WriteString("\n")
		center(&b, "PIX copia e cola")
		for len(pixPayload) > Width {
			b.WriteString(pixPayload[:Width] + "\n")
			pixPayload = pixPayload[Width:]
		}
		b.WriteString(pixPayload + "\n")
	}

	b.WriteString("\n")
	footer := s.ReceiptFooter
	if footer == "" {
		footer = "SEM VALOR FISCAL"
	}
	center(&b, footer)
	return b.String()
}

func center(b *strings.Builder, s string) {
	s = truncate(s, Width)
	n := utf8.RuneCountInString(s)
	b.WriteString(strings.Repeat(" ", (Width-n)/2) + s + "\n")
}

func right(b *strings.Builder, label, value string) {
	line := label + ": " + value
	n := utf8.RuneCountInString(line)
	if n < Width {
		line = strings.Repeat(" ", Width-n) + line
	}
	b.WriteString(line + "\n")
}

func pad(s string, n int) string {
	s = truncate(s, n)
	return s + strings.Repeat(" ", n-utf8.RuneCountInString(s))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
