package zoho

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// templateFieldLabels are the estimate custom fields seeded with a
// placeholder; sales fills them in inside Zoho Books.
var templateFieldLabels = []string{"Sidemark", "Client PO", "EST Lead Time"}

// paymentGatewayOptions is the payment option block attached to estimates
// and drawn retainer invoices.
var paymentGatewayOptions = map[string]any{
	"payment_gateways": []map[string]any{
		{"gateway_name": "zoho_payments"},
	},
}

// CreateEstimate creates one estimate covering all resolved lines, with a
// retainer requirement and fixed business terms attached.
func (c *Client) CreateEstimate(ctx context.Context, in accounting.EstimateInput) (*accounting.Estimate, error) {
	lineItems := make([]map[string]any, 0, len(in.Lines))
	for _, line := range in.Lines {
		lineItems = append(lineItems, map[string]any{
			"item_id":  line.ItemID,
			"rate":     Number{line.Rate},
			"quantity": line.Quantity,
			"tax_id":   "",
		})
	}

	customFields := make([]map[string]any, 0, len(templateFieldLabels))
	for _, label := range templateFieldLabels {
		fieldID, err := c.customFieldID(ctx, label, "estimate")
		if err != nil {
			return nil, err
		}
		customFields = append(customFields, map[string]any{
			"customfield_id": fieldID,
			"value":          TemplateFieldPlaceholder,
		})
	}

	payload := map[string]any{
		"customer_id":         in.CustomerID,
		"contact_persons":     in.ContactPersons,
		"date":                time.Now().Format("2006-01-02"),
		"line_items":          lineItems,
		"accept_retainer":     true,
		"retainer_percentage": c.config.RetainerPercentage,
		"payment_options":     paymentGatewayOptions,
		"salesperson_name":    c.config.SalespersonName,
		"custom_fields":       customFields,
	}
	if in.CRMPotentialID != "" {
		payload["potential_id"] = in.CRMPotentialID
	}

	query := url.Values{}
	query.Set("send", strconv.FormatBool(in.SendEmail))

	var created struct {
		Estimate map[string]any `json:"estimate"`
	}
	if err := c.post(ctx, "/estimates", query, payload, &created); err != nil {
		return nil, err
	}

	estimate := estimateFromRaw(created.Estimate)
	c.logger.Info("Created Zoho estimate",
		zap.String("estimate_id", estimate.EstimateID),
		zap.String("estimate_number", estimate.EstimateNumber),
		zap.String("customer_id", in.CustomerID),
	)
	return estimate, nil
}

// ListAcceptedEstimates returns all estimates with status "accepted".
func (c *Client) ListAcceptedEstimates(ctx context.Context) ([]accounting.Estimate, error) {
	query := url.Values{}
	query.Set("status", "accepted")

	var listing struct {
		Estimates []map[string]any `json:"estimates"`
	}
	if err := c.get(ctx, "/estimates", query, &listing); err != nil {
		return nil, err
	}

	estimates := make([]accounting.Estimate, 0, len(listing.Estimates))
	for _, raw := range listing.Estimates {
		estimates = append(estimates, *estimateFromRaw(raw))
	}
	return estimates, nil
}

func estimateFromRaw(raw map[string]any) *accounting.Estimate {
	return &accounting.Estimate{
		EstimateID:     stringField(raw, "estimate_id"),
		EstimateNumber: stringField(raw, "estimate_number"),
		CustomerID:     stringField(raw, "customer_id"),
		Status:         stringField(raw, "status"),
		Raw:            raw,
	}
}

// stringField reads a string-valued key from a raw API object, tolerating
// numeric ids.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
