// Package ticket renders the printable order ticket.
package ticket

import (
	"fmt"
	"io"

	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageWidth = 74 // mm, close to thermal receipt paper
	margin    = 4
	maxName   = 24
)

// Write renders o as a receipt-sized PDF. Only active payments are listed.
func Write(w io.Writer, businessName string, o order.Order, payments []payment.Payment) error {
	// Height grows with the number of lines so nothing is cut off.
	height := 70 + 5*float64(len(o.Items)) + 4*float64(len(payments))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: height},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contentW := float64(pageWidth - 2*margin)

	// Header
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(businessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Pedido N° %d", o.Number)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, o.Date, "", 1, "C", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr("Cliente: "+o.Customer), "", 1, "L", false, 0, "")
	if o.RequestedTime != nil {
		pdf.CellFormat(contentW, 5, "Para las "+*o.RequestedTime, "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(margin, pdf.GetY(), pageWidth-margin, pdf.GetY())
	pdf.Ln(2)

	// Items
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, it := range o.Items {
		pdf.CellFormat(col1, 5, tr(truncate(it.ProductName, maxName)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "x"+it.Quantity.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, money(it.Subtotal), "", 1, "R", false, 0, "")
		if it.Notes != "" {
			pdf.SetFont("Helvetica", "I", 6)
			pdf.CellFormat(contentW, 3.5, tr("  "+truncate(it.Notes, 2*maxName)), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 7)
		}
	}

	pdf.Ln(2)
	pdf.Line(margin, pdf.GetY(), pageWidth-margin, pdf.GetY())
	pdf.Ln(2)

	// Totals
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, money(o.Total), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, p := range payments {
		if !p.Active() {
			continue
		}
		label := "Pago (" + payment.MethodLabel(p.Method) + "):"
		pdf.CellFormat(col1+col2, 4, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, money(p.Amount), "", 1, "R", false, 0, "")
	}
	if o.BalanceDue.IsPositive() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(col1+col2, 5, "Saldo pendiente:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, money(o.BalanceDue), "", 1, "R", false, 0, "")
	} else {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "PAGADO", "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("ticket: render pdf: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
