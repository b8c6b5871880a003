package export

import (
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// LineItem is one labelled amount inside a balance sheet section.
type LineItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheet is the structured input of the balance sheet report.
type BalanceSheet struct {
	CompanyName string     `json:"company_name"`
	AsOf        time.Time  `json:"as_of"`
	Currency    string     `json:"currency"`
	Assets      []LineItem `json:"assets"`
	Liabilities []LineItem `json:"liabilities"`
	Equity      []LineItem `json:"equity"`
}

// BalanceTotals summarises a balance sheet.
type BalanceTotals struct {
	Assets               decimal.Decimal `json:"assets"`
	Liabilities          decimal.Decimal `json:"liabilities"`
	Equity               decimal.Decimal `json:"equity"`
	LiabilitiesAndEquity decimal.Decimal `json:"liabilities_and_equity"`
	Balanced             bool            `json:"balanced"`
}

func sum(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// Totals computes section totals and whether assets equal liabilities plus equity.
func (b BalanceSheet) Totals() BalanceTotals {
	assets := sum(b.Assets)
	liabilities := sum(b.Liabilities)
	equity := sum(b.Equity)
	right := liabilities.Add(equity)
	return BalanceTotals{
		Assets:               assets,
		Liabilities:          liabilities,
		Equity:               equity,
		LiabilitiesAndEquity: right,
		Balanced:             assets.Equal(right),
	}
}

// RenderBalanceSheet draws the sheet as a two-column PDF statement.
func RenderBalanceSheet(b BalanceSheet) ([]byte, error) {
	totals := b.Totals()
	asOf := b.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, tr(b.CompanyName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "BALANCE SHEET", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "As of "+asOf.Format("02 January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	section := func(title string, items []LineItem, total decimal.Decimal) {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(180, 7, title, "", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, item := range items {
			pdf.CellFormat(130, 6, "    "+tr(item.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, money(b.Currency, item.Amount), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(130, 7, "Total "+title, "T", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(b.Currency, total), "T", 1, "R", false, 0, "")
		pdf.Ln(3)
	}

	section("Assets", b.Assets, totals.Assets)
	section("Liabilities", b.Liabilities, totals.Liabilities)
	section("Equity", b.Equity, totals.Equity)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 8, "Total Liabilities and Equity", "TB", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(b.Currency, totals.LiabilitiesAndEquity), "TB", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "I", 9)
	if totals.Balanced {
		pdf.CellFormat(0, 6, "Statement is balanced.", "", 1, "L", false, 0, "")
	} else {
		diff := totals.Assets.Sub(totals.LiabilitiesAndEquity)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(0, 6, "Statement is NOT balanced. Difference: "+money(b.Currency, diff), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	return output(pdf)
}

func money(currency string, amount decimal.Decimal) string {
	value := amount.StringFixed(2)
	if currency == "" {
		return value
	}
	return currency + " " + value
}
