package infra

// pdf.go — invoice PDF generation using go-pdf/fpdf.
// Renders an A4 invoice with the store header, invoice/order numbers and
// dates, the item table (title, quantity, unit price, discount, total),
// and the subtotal / tax / shipping / total block.
//
// The output file is saved to storagePath/factura_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"melodia/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateInvoicePDF renders the invoice document for a paid order.
// storagePath is the directory where the PDF is written (created if needed).
// Returns the absolute path of the generated file.
func GenerateInvoicePDF(order *model.Order, inv *model.Invoice, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("factura_%s.pdf", strings.ReplaceAll(inv.InvoiceNumber, "/", "-"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, "Melodía", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 5, "Tienda de música analógica", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Invoice info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Factura %s", inv.InvoiceNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Orden: %s", order.OrderNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Emisión: %s", inv.IssueDate.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Vencimiento: %s", inv.DueDate.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.CellFormat(contentW, 5, "Enviar a: "+order.ShippingAddress, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Facturar a: "+order.BillingAddress, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Separator ────────────────────────────────────────────────────────────
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Items table ───────────────────────────────────────────────────────────
	col1 := contentW * 0.42 // title
	col2 := contentW * 0.10 // qty
	col3 := contentW * 0.16 // unit price
	col4 := contentW * 0.16 // discount
	col5 := contentW * 0.16 // line total

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Artículo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Desc.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col5, 6, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range order.Items {
		title := item.Title
		if len(title) > 38 {
			title = title[:37] + "…"
		}
		pdf.CellFormat(col1, 6, title, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, item.DiscountAmount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, item.TotalPrice.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals block ─────────────────────────────────────────────────────────
	labelW := col1 + col2 + col3 + col4
	row := func(label, value string, bold bool) {
		if bold {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 9)
		}
		pdf.CellFormat(labelW, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, value, "", 1, "R", false, 0, "")
	}

	cur := order.Currency + " "
	row("Subtotal:", cur+inv.Subtotal.StringFixed(2), false)
	if !order.DiscountTotal.IsZero() {
		row("Descuento:", "-"+cur+order.DiscountTotal.StringFixed(2), false)
	}
	row("Impuestos:", cur+inv.TaxAmount.StringFixed(2), false)
	if !order.ShippingCost.IsZero() {
		row("Envío:", cur+order.ShippingCost.StringFixed(2), false)
	}
	row("TOTAL:", cur+inv.TotalAmount.StringFixed(2), true)

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "¡Gracias por su compra!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
