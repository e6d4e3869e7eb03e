package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/draheim/zoho-sync/internal/domain/commerce"
	"github.com/draheim/zoho-sync/internal/infrastructure/persistence/models"
)

// GormOrderRepository reads confirmed orders from the storefront schema.
// Read-only; the storefront owns these tables.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// GetByID loads an order with its user, lines, variants, products and
// per-line attribute assignments.
func (r *GormOrderRepository) GetByID(ctx context.Context, id string) (*commerce.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("User.DefaultBillingAddress").
		Preload("User.DefaultShippingAddress").
		Preload("Channel").
		Preload("Lines.Variant.Product.Category").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", commerce.ErrOrderNotFound, id)
		}
		return nil, err
	}
	if model.User == nil {
		return nil, fmt.Errorf("%w: order %s has no associated user", commerce.ErrOrderNotFound, id)
	}

	order := &commerce.Order{
		ID:      model.ID,
		Number:  strconv.FormatInt(model.Number, 10),
		Channel: model.Channel.Slug,
		User:    toUser(model.User),
		Lines:   make([]commerce.OrderLine, 0, len(model.Lines)),
	}

	for _, lineModel := range model.Lines {
		line, err := r.toLine(ctx, lineModel, model.ChannelID)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	return order, nil
}

func (r *GormOrderRepository) toLine(ctx context.Context, model models.OrderLineModel, channelID int64) (commerce.OrderLine, error) {
	line := commerce.OrderLine{
		ProductSKU:     model.ProductSKU,
		ProductName:    model.ProductName,
		Quantity:       model.Quantity,
		UnitPriceGross: model.UnitPriceGrossAmount,
	}
	if model.Variant == nil {
		return line, fmt.Errorf("%w: order line %s has no variant", commerce.ErrVariantNotFound, model.ID)
	}

	variant := model.Variant
	productAttrs, err := r.productAttributes(ctx, variant.ProductID)
	if err != nil {
		return line, err
	}
	variantAttrs, err := r.variantAttributes(ctx, variant.ID)
	if err != nil {
		return line, err
	}

	var category string
	if variant.Product.Category != nil {
		category = variant.Product.Category.Name
	}
	line.Variant = commerce.Variant{
		SKU: variant.SKU,
		Product: commerce.Product{
			Name:        variant.Product.Name,
			Description: variant.Product.DescriptionPlain,
			Category:    category,
			Attributes:  productAttrs,
		},
		Attributes: variantAttrs,
	}

	cost, err := r.costPrice(ctx, variant.ID, channelID)
	if err != nil {
		return line, err
	}
	line.CostPrice = cost
	return line, nil
}

func (r *GormOrderRepository) productAttributes(ctx context.Context, productID int64) ([]commerce.AttributeAssignment, error) {
	var rows []models.AttributeRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.slug AS slug, v.name AS value
		FROM attribute_assignedproductattributevalue apv
		JOIN attribute_attributevalue v ON v.id = apv.value_id
		JOIN attribute_attribute a ON a.id = v.attribute_id
		WHERE apv.product_id = ?
		ORDER BY a.slug, apv.sort_order`, productID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product attributes: %w", err)
	}
	return groupAttributeRows(rows), nil
}

func (r *GormOrderRepository) variantAttributes(ctx context.Context, variantID int64) ([]commerce.AttributeAssignment, error) {
	var rows []models.AttributeRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.slug AS slug, v.name AS value
		FROM attribute_assignedvariantattribute ava
		JOIN attribute_assignedvariantattributevalue avv ON avv.assignment_id = ava.id
		JOIN attribute_attributevalue v ON v.id = avv.value_id
		JOIN attribute_attribute a ON a.id = ava.attribute_id
		WHERE ava.variant_id = ?
		ORDER BY a.slug, avv.sort_order`, variantID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load variant attributes: %w", err)
	}
	return groupAttributeRows(rows), nil
}

// costPrice reads the variant's cost for the order's channel; zero when the
// variant is unlisted or has no cost.
func (r *GormOrderRepository) costPrice(ctx context.Context, variantID, channelID int64) (decimal.Decimal, error) {
	var listing models.VariantChannelListingModel
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND channel_id = ?", variantID, channelID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if listing.CostPriceAmount == nil {
		return decimal.Zero, nil
	}
	return *listing.CostPriceAmount, nil
}

// groupAttributeRows folds ordered (slug, value) rows into assignments,
// preserving value order within each slug.
func groupAttributeRows(rows []models.AttributeRow) []commerce.AttributeAssignment {
	var assignments []commerce.AttributeAssignment
	index := map[string]int{}
	for _, row := range rows {
		if i, ok := index[row.Slug]; ok {
			assignments[i].Values = append(assignments[i].Values, row.Value)
			continue
		}
		index[row.Slug] = len(assignments)
		assignments = append(assignments, commerce.AttributeAssignment{
			Slug:   row.Slug,
			Values: []string{row.Value},
		})
	}
	return assignments
}

func toUser(model *models.UserModel) commerce.User {
	user := commerce.User{
		Email:     model.Email,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Metadata:  model.Metadata,
	}
	if model.DefaultBillingAddress != nil {
		user.BillingAddress = toAddress(model.DefaultBillingAddress)
	}
	if model.DefaultShippingAddress != nil {
		user.ShippingAddress = toAddress(model.DefaultShippingAddress)
	}
	return user
}

func toAddress(model *models.AddressModel) commerce.Address {
	return commerce.Address{
		CompanyName:    model.CompanyName,
		StreetAddress1: model.StreetAddress1,
		StreetAddress2: model.StreetAddress2,
		City:           model.City,
		CountryArea:    model.CountryArea,
		PostalCode:     model.PostalCode,
		Country:        model.Country,
	}
}

var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
