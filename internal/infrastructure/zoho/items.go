package zoho

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

type itemRecord struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	SKU    string `json:"sku"`
}

// EnsureItem finds a catalog item by SKU, creating it when absent. The
// search endpoint matches substrings, so results are re-checked for an
// exact SKU before a match is accepted.
func (c *Client) EnsureItem(ctx context.Context, in accounting.ItemInput) (string, error) {
	query := url.Values{}
	query.Set("search_text", in.SKU)

	var listing struct {
		Items []itemRecord `json:"items"`
	}
	if err := c.get(ctx, "/items", query, &listing); err != nil {
		return "", err
	}
	for _, item := range listing.Items {
		if item.SKU == in.SKU {
			return item.ItemID, nil
		}
	}

	var vendorID string
	if in.Vendor != "" {
		id, err := c.EnsureVendor(ctx, in.Vendor)
		if err != nil {
			return "", err
		}
		vendorID = id
	}

	customFields := make([]map[string]any, 0, 3)
	for _, cf := range []struct {
		label    string
		value    string
		dropdown bool
	}{
		{"Category", in.Category, true},
		{"Item Number", in.SKU, false},
		{"Vendor", in.Vendor, true},
	} {
		fieldID, err := c.customFieldID(ctx, cf.label, "item")
		if err != nil {
			return "", err
		}
		customFields = append(customFields, map[string]any{
			"customfield_id": fieldID,
			"value":          cf.value,
		})
		if cf.dropdown {
			if err := c.ensureDropdownOption(ctx, cf.label, "item", cf.value); err != nil {
				return "", err
			}
		}
	}

	payload := map[string]any{
		"name":          in.Name,
		"sku":           in.SKU,
		"rate":          Number{in.Rate},
		"purchase_rate": Number{in.PurchaseRate},
		"is_taxable":    true,
		"unit":          "Each",
		"description":   in.Description,
		"custom_fields": customFields,
	}
	if vendorID != "" {
		payload["vendor_id"] = vendorID
	}

	var created struct {
		Item itemRecord `json:"item"`
	}
	if err := c.post(ctx, "/items", nil, payload, &created); err != nil {
		return "", err
	}

	c.logger.Info("Created Zoho item",
		zap.String("sku", in.SKU),
		zap.String("item_id", created.Item.ItemID),
	)
	return created.Item.ItemID, nil
}
