package zoho

import (
	"context"

	"go.uber.org/zap"
)

type categoryRecord struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// EnsureCategory finds an expense category by exact name, creating it when
// absent.
func (c *Client) EnsureCategory(ctx context.Context, name string) (string, error) {
	var listing struct {
		Categories []categoryRecord `json:"categories"`
	}
	if err := c.get(ctx, "/settings/categories", nil, &listing); err != nil {
		return "", err
	}
	for _, cat := range listing.Categories {
		if cat.CategoryName == name {
			return cat.CategoryID, nil
		}
	}

	var created struct {
		Category categoryRecord `json:"category"`
	}
	payload := map[string]any{"category_name": name}
	if err := c.post(ctx, "/settings/categories", nil, payload, &created); err != nil {
		return "", err
	}

	c.logger.Info("Created Zoho category",
		zap.String("category", name),
		zap.String("category_id", created.Category.CategoryID),
	)
	return created.Category.CategoryID, nil
}
