package storefront

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/attrimport"
)

const attributeBulkCreateMutation = `
mutation attributeBulkCreate($attributes: [AttributeBulkCreateInput!]!, $errorPolicy: ErrorPolicyEnum) {
    attributeBulkCreate(attributes: $attributes, errorPolicy: $errorPolicy) {
        count
        errors {
            path
            message
        }
        results {
            attribute {
                id
                name
                externalReference
                slug
            }
        }
    }
}`

var _ attrimport.Publisher = (*Client)(nil)

// PublishAttributes creates the attributes through attributeBulkCreate and
// returns how many the storefront accepted. With REJECT_EVERYTHING any
// invalid entry rejects the whole batch.
func (c *Client) PublishAttributes(ctx context.Context, attrs []attrimport.Attribute, errorPolicy string) (int, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return 0, err
	}

	inputs := make([]map[string]any, len(attrs))
	for i, attr := range attrs {
		input := map[string]any{
			"name":              attr.Name,
			"externalReference": attr.ExternalReference,
			"inputType":         attr.InputType,
		}
		if len(attr.Values) > 0 {
			values := make([]map[string]any, len(attr.Values))
			for j, v := range attr.Values {
				values[j] = map[string]any{"name": v.Name}
			}
			input["values"] = values
		}
		inputs[i] = input
	}

	var payload struct {
		AttributeBulkCreate struct {
			Count  int            `json:"count"`
			Errors []GraphQLError `json:"errors"`
		} `json:"attributeBulkCreate"`
	}
	err = c.do(ctx, token, attributeBulkCreateMutation, map[string]any{
		"attributes":  inputs,
		"errorPolicy": errorPolicy,
	}, &payload)
	if err != nil {
		return 0, err
	}
	if len(payload.AttributeBulkCreate.Errors) > 0 {
		first := payload.AttributeBulkCreate.Errors[0]
		return 0, fmt.Errorf("%w: %s", ErrMutationRejected, first.Message)
	}

	c.logger.Info("Attributes published to storefront",
		zap.Int("count", payload.AttributeBulkCreate.Count),
	)
	return payload.AttributeBulkCreate.Count, nil
}
