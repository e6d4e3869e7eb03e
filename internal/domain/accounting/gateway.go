package accounting

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	// ErrAuthFailed indicates the refresh-token grant was rejected. Fatal for
	// the calling operation; never retried.
	ErrAuthFailed = errors.New("accounting: authentication failed")

	// ErrRequestFailed indicates a non-2xx response or an error envelope from
	// the accounting service.
	ErrRequestFailed = errors.New("accounting: request failed")

	// ErrInvalidResponse indicates a response body that could not be decoded.
	ErrInvalidResponse = errors.New("accounting: invalid response")

	// ErrNotFound indicates a remote entity that was expected to exist.
	ErrNotFound = errors.New("accounting: entity not found")
)

// ---------------------------------------------------------------------------
// Remote Entities
// ---------------------------------------------------------------------------

// Address is the postal address shape sent when creating a contact.
type Address struct {
	Attention string
	Street    string
	Street2   string
	City      string
	State     string
	Zip       string
	Country   string
}

// CustomerInput carries everything needed to resolve or create a customer
// contact plus its primary contact person.
type CustomerInput struct {
	Email        string
	DisplayName  string
	CompanyName  string
	EINOrLicense string
	Billing      Address
	Shipping     Address
}

// Customer is the resolved customer/contact-person pair.
type Customer struct {
	ContactID       string
	ContactName     string
	ContactPersonID string
}

// ItemInput carries everything needed to resolve or create a catalog item.
type ItemInput struct {
	SKU          string
	Name         string
	Rate         decimal.Decimal
	PurchaseRate decimal.Decimal
	Description  string
	Category     string
	Vendor       string
}

// EstimateLine is one resolved line of an estimate.
type EstimateLine struct {
	ItemID   string
	Rate     decimal.Decimal
	Quantity int
}

// EstimateInput carries the inputs for creating one estimate.
type EstimateInput struct {
	CustomerID     string
	ContactPersons []string
	Lines          []EstimateLine
	SendEmail      bool
	CRMPotentialID string
}

// Estimate is a remote estimate as returned by the accounting service.
// Raw preserves the full response object for callers that need
// server-populated fields.
type Estimate struct {
	EstimateID     string
	EstimateNumber string
	CustomerID     string
	Status         string
	Raw            map[string]any
}

// RetainerInvoice is a deposit invoice linked to an accepted estimate. Raw
// preserves the full server object; updates are built from it because the
// service rejects echoed server-generated fields outside a fixed allow-list.
type RetainerInvoice struct {
	RetainerInvoiceID string
	EstimateID        string
	Status            string
	Raw               map[string]any
}

// RetainerInvoiceStatusDrawn is the only status in which payment options may
// be patched onto a retainer invoice.
const RetainerInvoiceStatusDrawn = "drawn"

// ---------------------------------------------------------------------------
// Gateway
// ---------------------------------------------------------------------------

// Gateway is the set of idempotent find-or-create operations against the
// external accounting service. Every call re-queries the remote system;
// nothing is cached locally, so correctness rests on the remote service's
// own uniqueness guarantees (email for customers, SKU for items, exact name
// for vendors and categories).
type Gateway interface {
	// EnsureCustomer finds a customer contact by email, or creates the
	// contact and its primary contact person.
	EnsureCustomer(ctx context.Context, in CustomerInput) (*Customer, error)

	// EnsureVendor finds a vendor contact by exact name, or creates it.
	EnsureVendor(ctx context.Context, name string) (string, error)

	// EnsureCategory finds an expense category by exact name, or creates it.
	EnsureCategory(ctx context.Context, name string) (string, error)

	// EnsureItem finds a catalog item by exact SKU, or creates it together
	// with its Category / Item Number / Vendor custom fields.
	EnsureItem(ctx context.Context, in ItemInput) (string, error)

	// CreateEstimate creates one estimate covering all resolved lines.
	CreateEstimate(ctx context.Context, in EstimateInput) (*Estimate, error)

	// ListAcceptedEstimates returns all estimates with status "accepted".
	ListAcceptedEstimates(ctx context.Context) ([]Estimate, error)

	// ListRetainerInvoices returns the retainer invoices linked to an
	// estimate, in server order.
	ListRetainerInvoices(ctx context.Context, estimateID string) ([]RetainerInvoice, error)

	// UpdateRetainerInvoicePaymentOptions patches the invoice with the fixed
	// payment gateway option list.
	UpdateRetainerInvoicePaymentOptions(ctx context.Context, inv *RetainerInvoice) error
}
