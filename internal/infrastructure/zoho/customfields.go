package zoho

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// customFieldPutKeys is the set of field-definition keys the Books API
// accepts on PUT. Everything else the editpage endpoint returns is
// server-generated and must not be echoed back.
var customFieldPutKeys = []string{
	"customfield_id",
	"is_mandatory",
	"is_basecurrency_amount",
	"data_type",
	"pii_type",
	"default_value",
	"entity",
	"values",
	"is_unique",
	"label",
	"selected_txn_entities",
	"help_text",
	"external_fields",
	"field_preferences",
	"show_on_pdf",
}

type customFieldRecord struct {
	CustomFieldID string `json:"customfield_id"`
	Label         string `json:"label"`
}

// customFieldID resolves a custom field's id by label within a module
// ("contact", "item", "estimate"), creating a plain string field when the
// label does not exist yet.
func (c *Client) customFieldID(ctx context.Context, label, module string) (string, error) {
	query := url.Values{}
	query.Set("module", module)

	var listing struct {
		CustomFields map[string][]customFieldRecord `json:"customfields"`
	}
	if err := c.get(ctx, "/settings/customfields", query, &listing); err != nil {
		return "", err
	}
	for _, f := range listing.CustomFields[module] {
		if f.Label == label {
			return f.CustomFieldID, nil
		}
	}
	return c.createCustomField(ctx, label, module)
}

func (c *Client) createCustomField(ctx context.Context, label, module string) (string, error) {
	payload := map[string]any{
		"module":            module,
		"custom_field_name": label,
		"data_type":         "string",
		"is_active":         true,
	}
	var created struct {
		CustomField customFieldRecord `json:"customfield"`
	}
	if err := c.post(ctx, "/settings/customfields", nil, payload, &created); err != nil {
		return "", err
	}

	c.logger.Info("Created Zoho custom field",
		zap.String("label", label),
		zap.String("module", module),
		zap.String("customfield_id", created.CustomField.CustomFieldID),
	)
	return created.CustomField.CustomFieldID, nil
}

// ensureDropdownOption makes sure a dropdown custom field carries the given
// option, appending it when missing. The field definition is fetched from
// the editpage endpoint and written back pruned to the PUT allow-list.
func (c *Client) ensureDropdownOption(ctx context.Context, label, module, option string) error {
	if option == "" {
		return nil
	}
	fieldID, err := c.customFieldID(ctx, label, module)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("entity", module)
	query.Set("field_id", fieldID)

	var page struct {
		Field map[string]any `json:"field"`
	}
	if err := c.get(ctx, "/settings/fields/editpage", query, &page); err != nil {
		return err
	}
	// The editpage response may omit the field object entirely.
	if page.Field == nil {
		page.Field = map[string]any{}
	}

	options, _ := page.Field["values"].([]any)
	for _, raw := range options {
		if existing, ok := raw.(map[string]any); ok {
			if existing["name"] == option {
				return nil
			}
		}
	}

	options = append(options, map[string]any{
		"is_active": true,
		"name":      option,
		"order":     len(options) + 1,
	})
	page.Field["values"] = options

	clean := pruneFields(page.Field, customFieldPutKeys)
	if err := c.put(ctx, "/settings/fields/"+fieldID+"/", nil, clean, nil); err != nil {
		return err
	}

	c.logger.Info("Added dropdown option",
		zap.String("label", label),
		zap.String("module", module),
		zap.String("option", option),
	)
	return nil
}
