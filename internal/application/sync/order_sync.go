package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
	"github.com/draheim/zoho-sync/internal/domain/commerce"
)

// einMetadataKey is the storefront account metadata key holding the
// customer's tax identification; it mirrors the label of the corresponding
// contact custom field.
const einMetadataKey = "EIN / License Number / Reseller's Permit"

// defaultCategory labels items whose product has no category.
const defaultCategory = "Default Category"

// OrderSyncService turns one confirmed storefront order into one estimate
// in the accounting system: find-or-create the customer, find-or-create
// every line's catalog item, then create the estimate.
//
// The pipeline is best-effort with no rollback: remote entities created
// before a mid-loop failure stay created, and the attempt reports total
// failure. Re-running is safe as long as the matching keys (email, SKU,
// vendor name) land on the previously created records.
type OrderSyncService struct {
	orders    commerce.OrderRepository
	gateway   accounting.Gateway
	logger    *zap.Logger
	sendEmail bool
}

func NewOrderSyncService(orders commerce.OrderRepository, gateway accounting.Gateway, logger *zap.Logger, sendEmail bool) *OrderSyncService {
	return &OrderSyncService{
		orders:    orders,
		gateway:   gateway,
		logger:    logger,
		sendEmail: sendEmail,
	}
}

// SyncOrder runs the full pipeline for one order. It never returns a bare
// error; every failure, including a panic below this frame, is folded into
// the Result.
func (s *OrderSyncService) SyncOrder(ctx context.Context, orderID string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Order sync panicked",
				zap.String("order_id", orderID),
				zap.Any("panic", r),
			)
			result = failure(orderID, FailurePanic, fmt.Errorf("panic: %v", r))
		}
	}()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return failure(orderID, FailureOrderLookup, err)
	}

	customer, err := s.gateway.EnsureCustomer(ctx, customerInput(order.User))
	if err != nil {
		return failure(orderID, FailureCustomer, err)
	}

	lines := make([]accounting.EstimateLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		itemID, err := s.ensureLineItem(ctx, line)
		if err != nil {
			return failure(orderID, FailureItem, fmt.Errorf("line %q: %w", line.ProductSKU, err))
		}
		lines = append(lines, accounting.EstimateLine{
			ItemID:   itemID,
			Rate:     line.UnitPriceGross,
			Quantity: line.Quantity,
		})
	}

	estimate, err := s.gateway.CreateEstimate(ctx, accounting.EstimateInput{
		CustomerID:     customer.ContactID,
		ContactPersons: []string{customer.ContactPersonID},
		Lines:          lines,
		SendEmail:      s.sendEmail,
	})
	if err != nil {
		return failure(orderID, FailureEstimate, err)
	}

	s.logger.Info("Order synced to estimate",
		zap.String("order_id", orderID),
		zap.String("order_number", order.Number),
		zap.String("estimate_id", estimate.EstimateID),
		zap.Int("lines", len(lines)),
	)
	return success(orderID, estimate)
}

// ensureLineItem resolves one order line to a catalog item id, creating the
// item (and its vendor) when absent.
func (s *OrderSyncService) ensureLineItem(ctx context.Context, line commerce.OrderLine) (string, error) {
	attributes, brand := ExtractLineAttributes(line)
	product := line.Variant.Product

	category := product.Category
	if category == "" {
		category = defaultCategory
	}

	// A multi-valued brand resolves to one vendor: the first value.
	vendor := brand.First()
	if values := brand.Values(); len(values) > 1 {
		s.logger.Warn("Order line carries multiple brands, using the first as vendor",
			zap.String("sku", line.ProductSKU),
			zap.String("vendor", vendor),
			zap.Strings("dropped", values[1:]),
		)
	}

	return s.gateway.EnsureItem(ctx, accounting.ItemInput{
		SKU:          line.ProductSKU,
		Name:         line.ProductName,
		Rate:         line.UnitPriceGross,
		PurchaseRate: line.CostPrice,
		Description:  describeItem(attributes, product.Description),
		Category:     category,
		Vendor:       vendor,
	})
}

// customerInput maps a storefront account onto the accounting customer
// shape. The company comes from the shipping address; the tax id from
// account metadata.
func customerInput(user commerce.User) accounting.CustomerInput {
	return accounting.CustomerInput{
		Email:        user.Email,
		DisplayName:  user.DisplayName(),
		CompanyName:  user.ShippingAddress.CompanyName,
		EINOrLicense: user.Metadata[einMetadataKey],
		Billing:      accountingAddress(user.BillingAddress),
		Shipping:     accountingAddress(user.ShippingAddress),
	}
}

func accountingAddress(a commerce.Address) accounting.Address {
	return accounting.Address{
		Street:  a.StreetAddress1,
		Street2: a.StreetAddress2,
		City:    a.City,
		State:   a.CountryArea,
		Zip:     a.PostalCode,
		Country: a.Country,
	}
}
