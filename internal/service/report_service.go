package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/export"
)

const pdfMimeType = "application/pdf"

var reportFieldRules = validator.New()

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportServiceConfig governs generated file naming, links and retention.
type ReportServiceConfig struct {
	APIPrefix       string
	CompanyName     string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportService renders balance sheet and quotation PDFs and serves them
// back through signed download links.
type ReportService struct {
	documents approvalDocumentReader
	storage   reportStorage
	signer    urlSigner
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(documents approvalDocumentReader, storage reportStorage, signer urlSigner, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "ERP"
	}
	return &ReportService{
		documents: documents,
		storage:   storage,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// BalanceSheet renders the statement and returns a link to the stored PDF.
func (s *ReportService) BalanceSheet(ctx context.Context, req dto.BalanceSheetRequest) (*dto.GeneratedFile, error) {
	fields := map[string]string{}
	asOf := parseDate(req.AsOf)
	if asOf == nil {
		fields["as_of"] = "The as_of is not a valid date."
	}
	if len(req.Assets) == 0 {
		fields["assets"] = "The assets field is required."
	}
	sheet := export.BalanceSheet{
		CompanyName: s.cfg.CompanyName,
		Currency:    strings.ToUpper(req.Currency),
		Assets:      lineItems("assets", req.Assets, fields),
		Liabilities: lineItems("liabilities", req.Liabilities, fields),
		Equity:      lineItems("equity", req.Equity, fields),
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}
	sheet.AsOf = *asOf
	if sheet.Currency == "" {
		sheet.Currency = defaultCurrency
	}

	payload, err := export.RenderBalanceSheet(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render balance sheet")
	}
	name := fmt.Sprintf("balance_sheet_%s", sheet.AsOf.Format("20060102"))
	file, err := s.store(name, payload)
	if err != nil {
		return nil, err
	}
	file.Summary = sheet.Totals()
	return file, nil
}

// Quotation renders a vendor quotation for an RFQ document.
func (s *ReportService) Quotation(ctx context.Context, rfqID string, req dto.QuotationRequest) (*dto.GeneratedFile, error) {
	spec, _ := models.DocumentRFQ.Spec()
	doc, err := s.documents.FindByID(ctx, spec, rfqID)
	if err != nil {
		return nil, documentLoadError(err)
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Vendor.Name) == "" {
		fields["vendor.name"] = "The vendor.name field is required."
	}
	if req.Vendor.Email != "" && reportFieldRules.Var(req.Vendor.Email, "email") != nil {
		fields["vendor.email"] = "The vendor.email must be a valid email address."
	}
	if len(req.Items) == 0 {
		fields["items"] = "The items field is required."
	}
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		fields["tax_rate"] = "The tax_rate must be between 0 and 100."
	}
	items := make([]export.QuotationItem, 0, len(req.Items))
	for i, item := range req.Items {
		prefix := fmt.Sprintf("items.%d.", i)
		if strings.TrimSpace(item.Description) == "" {
			fields[prefix+"description"] = fmt.Sprintf("The %sdescription field is required.", prefix)
		}
		if !item.Quantity.IsPositive() {
			fields[prefix+"quantity"] = fmt.Sprintf("The %squantity must be greater than 0.", prefix)
		}
		if item.UnitPrice.IsNegative() {
			fields[prefix+"unit_price"] = fmt.Sprintf("The %sunit_price must be at least 0.", prefix)
		}
		description := item.Description
		if item.Unit != "" {
			description = fmt.Sprintf("%s (%s)", description, item.Unit)
		}
		items = append(items, export.QuotationItem{Description: description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	var validUntil *time.Time
	if req.ValidUntil != "" {
		if validUntil = parseDate(req.ValidUntil); validUntil == nil {
			fields["valid_until"] = "The valid_until is not a valid date."
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	quotation := export.Quotation{
		Number:     doc.Number,
		Title:      doc.Title,
		IssuedAt:   s.now().UTC(),
		ValidUntil: validUntil,
		Currency:   doc.Currency,
		Buyer:      export.Party{Name: s.cfg.CompanyName},
		Vendor: export.Party{
			Name:    req.Vendor.Name,
			Address: req.Vendor.Address,
			Email:   req.Vendor.Email,
			Phone:   req.Vendor.Phone,
		},
		Items:   items,
		TaxRate: req.TaxRate,
		Notes:   req.Notes,
	}
	payload, err := export.RenderQuotation(quotation)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render quotation")
	}
	file, err := s.store("quotation_"+sanitize(doc.Number), payload)
	if err != nil {
		return nil, err
	}
	file.Summary = quotation.Totals()
	return file, nil
}

// ResolveDownload validates token and opens the stored PDF.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*FileDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report")
	}
	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	return &FileDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		MimeType:  pdfMimeType,
		SizeBytes: size,
		ExpiresAt: expiresAt,
	}, nil
}

// Cleanup removes generated files older than the result TTL.
func (s *ReportService) Cleanup() (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

// StartCleanup boots a goroutine that purges expired reports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Cleanup(); err != nil {
					s.logger.Warn("report cleanup failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *ReportService) store(name string, payload []byte) (*dto.GeneratedFile, error) {
	id := uuid.NewString()
	filename := fmt.Sprintf("%s_%s.pdf", name, s.now().UTC().Format("20060102_150405"))
	relPath, err := s.storage.Save(filepath.ToSlash(filepath.Join("reports", id, filename)), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}
	return &dto.GeneratedFile{
		Filename:  filename,
		URL:       fmt.Sprintf("%s/reports/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

func lineItems(section string, inputs []dto.LineItemInput, fields map[string]string) []export.LineItem {
	items := make([]export.LineItem, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.Label) == "" {
			field := fmt.Sprintf("%s.%d.label", section, i)
			fields[field] = fmt.Sprintf("The %s field is required.", field)
		}
		items = append(items, export.LineItem{Label: input.Label, Amount: input.Amount})
	}
	return items
}
