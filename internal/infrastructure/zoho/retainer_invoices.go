package zoho

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// retainerInvoicePutKeys is the set of retainer-invoice keys the Books API
// accepts on PUT. The list endpoint echoes server-generated fields that the
// update endpoint rejects, so payloads are cut down to this allow-list.
var retainerInvoicePutKeys = []string{
	"customer_id",
	"estimate_id",
	"retainerinvoice_number",
	"reference_number",
	"date",
	"contact_persons",
	"exchange_rate",
	"custom_fields",
	"notes",
	"terms",
	"line_items",
	"payment_options",
	"template_id",
	"billing_address_id",
	"documents",
}

// ListRetainerInvoices returns the retainer invoices linked to an estimate,
// in server order.
func (c *Client) ListRetainerInvoices(ctx context.Context, estimateID string) ([]accounting.RetainerInvoice, error) {
	query := url.Values{}
	query.Set("estimate_id", estimateID)

	var listing struct {
		RetainerInvoices []map[string]any `json:"retainerinvoices"`
	}
	if err := c.get(ctx, "/retainerinvoices", query, &listing); err != nil {
		return nil, err
	}

	invoices := make([]accounting.RetainerInvoice, 0, len(listing.RetainerInvoices))
	for _, raw := range listing.RetainerInvoices {
		invoices = append(invoices, accounting.RetainerInvoice{
			RetainerInvoiceID: stringField(raw, "retainerinvoice_id"),
			EstimateID:        stringField(raw, "estimate_id"),
			Status:            stringField(raw, "status"),
			Raw:               raw,
		})
	}
	return invoices, nil
}

// UpdateRetainerInvoicePaymentOptions patches the invoice with the fixed
// payment gateway option list. The update payload is the server's own
// object, pruned to the PUT allow-list.
func (c *Client) UpdateRetainerInvoicePaymentOptions(ctx context.Context, inv *accounting.RetainerInvoice) error {
	raw := make(map[string]any, len(inv.Raw)+1)
	for k, v := range inv.Raw {
		raw[k] = v
	}
	raw["payment_options"] = paymentGatewayOptions

	clean := pruneFields(raw, retainerInvoicePutKeys)
	if err := c.put(ctx, "/retainerinvoices/"+inv.RetainerInvoiceID, nil, clean, nil); err != nil {
		return err
	}

	c.logger.Info("Updated retainer invoice payment options",
		zap.String("retainerinvoice_id", inv.RetainerInvoiceID),
		zap.String("estimate_id", inv.EstimateID),
	)
	return nil
}
