package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/export"
	"github.com/noah-isme/erp-api/pkg/storage"
)

func newReportFixture(t *testing.T, docs *documentReaderStub) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", "reports", time.Hour)
	return NewReportService(docs, store, signer, ReportServiceConfig{CompanyName: "PT Maju"}, nil)
}

func TestReportBalanceSheet(t *testing.T) {
	svc := newReportFixture(t, &documentReaderStub{})

	file, err := svc.BalanceSheet(context.Background(), dto.BalanceSheetRequest{
		AsOf:        "2024-12-31",
		Assets:      []dto.LineItemInput{{Label: "Cash", Amount: decimal.NewFromInt(1500)}},
		Liabilities: []dto.LineItemInput{{Label: "Payables", Amount: decimal.NewFromInt(500)}},
		Equity:      []dto.LineItemInput{{Label: "Capital", Amount: decimal.NewFromInt(1000)}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.URL, "/api/v1/reports/download?token="))
	totals, ok := file.Summary.(export.BalanceTotals)
	require.True(t, ok)
	assert.True(t, totals.Balanced)

	download, err := svc.ResolveDownload(context.Background(), tokenFrom(t, file.URL))
	require.NoError(t, err)
	defer download.File.Close()
	head := make([]byte, 5)
	_, err = io.ReadFull(download.File, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
	assert.Equal(t, "application/pdf", download.MimeType)
}

func TestReportBalanceSheetValidation(t *testing.T) {
	svc := newReportFixture(t, &documentReaderStub{})

	_, err := svc.BalanceSheet(context.Background(), dto.BalanceSheetRequest{
		AsOf:   "31/12/2024",
		Assets: []dto.LineItemInput{{Label: " ", Amount: decimal.NewFromInt(1)}},
	})
	fields := validationFields(t, err)
	assert.Equal(t, "The as_of is not a valid date.", fields["as_of"])
	assert.Equal(t, "The assets.0.label field is required.", fields["assets.0.label"])
}

func TestReportQuotation(t *testing.T) {
	docs := &documentReaderStub{doc: &models.Document{ID: testDocID, Type: models.DocumentRFQ, Number: "RFQ-001", Title: "Office chairs", Currency: "IDR"}}
	svc := newReportFixture(t, docs)

	file, err := svc.Quotation(context.Background(), testDocID, dto.QuotationRequest{
		Vendor: dto.PartyInput{Name: "CV Sumber"},
		Items: []dto.QuotationItemInput{
			{Description: "Chair", Quantity: decimal.NewFromInt(4), Unit: "pcs", UnitPrice: decimal.NewFromInt(250)},
		},
		TaxRate: decimal.NewFromInt(11),
	})
	require.NoError(t, err)
	assert.Contains(t, file.Filename, "quotation_rfq-001")
	totals, ok := file.Summary.(export.QuotationTotals)
	require.True(t, ok)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1110)))
}

func TestReportQuotationRejectsBadItems(t *testing.T) {
	docs := &documentReaderStub{doc: &models.Document{ID: testDocID, Number: "RFQ-001"}}
	svc := newReportFixture(t, docs)

	_, err := svc.Quotation(context.Background(), testDocID, dto.QuotationRequest{
		Vendor:  dto.PartyInput{Name: "CV Sumber", Email: "sales-at-sumber"},
		Items:   []dto.QuotationItemInput{{Description: "Chair", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(-1)}},
		TaxRate: decimal.NewFromInt(120),
	})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "items.0.quantity")
	assert.Contains(t, fields, "items.0.unit_price")
	assert.Contains(t, fields, "tax_rate")
	assert.Equal(t, "The vendor.email must be a valid email address.", fields["vendor.email"])
}

func TestReportQuotationMissingRFQ(t *testing.T) {
	svc := newReportFixture(t, &documentReaderStub{err: sql.ErrNoRows})

	_, err := svc.Quotation(context.Background(), testDocID, dto.QuotationRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportResolveDownloadRejectsForeignToken(t *testing.T) {
	svc := newReportFixture(t, &documentReaderStub{})
	attachments := storage.NewSignedURLSigner("secret", "attachments", time.Hour)
	token, _, err := attachments.Generate("att-1", "reports/x.pdf")
	require.NoError(t, err)

	_, err = svc.ResolveDownload(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
