package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Purchase Orders",
		Headers: []string{"number", "status"},
		Rows: []map[string]string{
			{"number": "PO-001", "status": "Pending"},
			{"number": "PO-002", "status": "Approved"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "number,status\nPO-001,Pending\nPO-002,Approved\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Purchase Orders", "A1")
	require.NoError(t, err)
	assert.Equal(t, "number", header)
	value, err := f.GetCellValue("Purchase Orders", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Approved", value)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, defaultSheet, sheetName(""))
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, sheetName("abcdefghijklmnopqrstuvwxyz0123456789"), 31)
}

func TestBalanceSheetTotals(t *testing.T) {
	sheet := BalanceSheet{
		CompanyName: "Acme",
		AsOf:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Assets: []LineItem{
			{Label: "Cash", Amount: decimal.RequireFromString("1500.50")},
			{Label: "Receivables", Amount: decimal.RequireFromString("500")},
		},
		Liabilities: []LineItem{{Label: "Payables", Amount: decimal.RequireFromString("800.50")}},
		Equity:      []LineItem{{Label: "Capital", Amount: decimal.RequireFromString("1200")}},
	}
	totals := sheet.Totals()
	assert.True(t, totals.Assets.Equal(decimal.RequireFromString("2000.50")))
	assert.True(t, totals.Balanced)

	sheet.Equity[0].Amount = decimal.RequireFromString("1000")
	assert.False(t, sheet.Totals().Balanced)

	out, err := RenderBalanceSheet(sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestQuotationTotals(t *testing.T) {
	q := Quotation{
		Number:   "Q-1",
		Currency: "USD",
		Vendor:   Party{Name: "Vendor"},
		Buyer:    Party{Name: "Buyer"},
		Items: []QuotationItem{
			{Description: "Steel", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("10.25")},
			{Description: "Bolts", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("0.50")},
		},
		TaxRate: decimal.NewFromInt(10),
	}
	totals := q.Totals()
	assert.Equal(t, "35.75", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "3.58", totals.Tax.StringFixed(2))
	assert.Equal(t, "39.33", totals.Total.StringFixed(2))

	out, err := RenderQuotation(q)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
