package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemInput is a labelled amount on a balance sheet.
type LineItemInput struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheetRequest is the body of POST /reports/balance-sheet.
type BalanceSheetRequest struct {
	AsOf        string          `json:"as_of"`
	Currency    string          `json:"currency"`
	Assets      []LineItemInput `json:"assets"`
	Liabilities []LineItemInput `json:"liabilities"`
	Equity      []LineItemInput `json:"equity"`
}

// PartyInput identifies a quotation vendor.
type PartyInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// QuotationItemInput is one priced line of a quotation.
type QuotationItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// QuotationRequest is the body of POST /documents/rfq/:id/quotation.
type QuotationRequest struct {
	Vendor     PartyInput           `json:"vendor"`
	Items      []QuotationItemInput `json:"items"`
	TaxRate    decimal.Decimal      `json:"tax_rate"`
	ValidUntil string               `json:"valid_until"`
	Notes      string               `json:"notes"`
}

// GeneratedFile points at a stored PDF through a signed URL.
type GeneratedFile struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Summary   any       `json:"summary,omitempty"`
}
