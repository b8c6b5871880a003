package export

import (
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Party identifies the vendor or buyer on a quotation.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// QuotationItem is one priced line of a quotation.
type QuotationItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity times unit price rounded to cents.
func (i QuotationItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(2)
}

// Quotation is the structured input of the quotation document.
type Quotation struct {
	Number     string          `json:"number"`
	Title      string          `json:"title"`
	IssuedAt   time.Time       `json:"issued_at"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	Currency   string          `json:"currency"`
	Buyer      Party           `json:"buyer"`
	Vendor     Party           `json:"vendor"`
	Items      []QuotationItem `json:"items"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Notes      string          `json:"notes"`
}

// QuotationTotals aggregates the priced lines.
type QuotationTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Totals computes subtotal, tax at TaxRate percent, and grand total.
func (q Quotation) Totals() QuotationTotals {
	subtotal := decimal.Zero
	for _, item := range q.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(q.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	return QuotationTotals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// RenderQuotation draws the quotation with party blocks and an itemised table.
func RenderQuotation(q Quotation) ([]byte, error) {
	totals := q.Totals()
	issued := q.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "QUOTATION", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, "No. "+tr(q.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+issued.Format("2006-01-02"), "", 1, "R", false, 0, "")
	if q.ValidUntil != nil {
		pdf.CellFormat(0, 5, "Valid until: "+q.ValidUntil.Format("2006-01-02"), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	top := pdf.GetY()
	party := func(x float64, heading string, p Party) {
		pdf.SetXY(x, top)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(85, 6, heading, "B", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, line := range []string{p.Name, p.Address, p.Email, p.Phone} {
			if line != "" {
				pdf.CellFormat(85, 5, tr(line), "", 2, "L", false, 0, "")
			}
		}
	}
	party(15, "From", q.Vendor)
	party(110, "To", q.Buyer)
	pdf.SetXY(15, top+32)

	if q.Title != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(q.Title), "", 1, "L", false, 0, "")
	}

	widths := []float64{10, 80, 25, 30, 35}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range []string{"#", "Description", "Qty", "Unit Price", "Amount"} {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, item := range q.Items {
		pdf.CellFormat(widths[0], 6, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, item.LineTotal().StringFixed(2), "1", 1, "R", false, 0, "")
	}

	label := widths[0] + widths[1] + widths[2] + widths[3]
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(label, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 6, money(q.Currency, totals.Subtotal), "1", 1, "R", false, 0, "")
	pdf.CellFormat(label, 6, "Tax ("+q.TaxRate.String()+"%)", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 6, money(q.Currency, totals.Tax), "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(label, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, money(q.Currency, totals.Total), "1", 1, "R", false, 0, "")

	if q.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(q.Notes), "", "L", false)
	}

	return output(pdf)
}
