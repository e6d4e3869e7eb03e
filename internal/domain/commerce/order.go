package commerce

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned when an order ID does not exist.
	ErrOrderNotFound = errors.New("commerce: order not found")

	// ErrProductNotFound is returned when a product ID does not exist.
	ErrProductNotFound = errors.New("commerce: product not found")

	// ErrVariantNotFound is returned when a variant ID does not exist.
	ErrVariantNotFound = errors.New("commerce: variant not found")
)

// Address is a storefront postal address.
type Address struct {
	CompanyName    string
	StreetAddress1 string
	StreetAddress2 string
	City           string
	CountryArea    string
	PostalCode     string
	Country        string
}

// User is the storefront account that placed an order.
type User struct {
	Email           string
	FirstName       string
	LastName        string
	Metadata        map[string]string
	BillingAddress  Address
	ShippingAddress Address
}

// DisplayName returns "First Last", falling back to the local part of the
// email address when no first name is set.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// AttributeAssignment is one attribute slug with its assigned values, either
// at product or at variant level.
type AttributeAssignment struct {
	Slug   string
	Values []string
}

// Product is the catalog product behind an order line.
type Product struct {
	Name        string
	Description string
	Category    string
	Attributes  []AttributeAssignment
}

// Variant is the concrete purchasable variant behind an order line.
type Variant struct {
	SKU        string
	Product    Product
	Attributes []AttributeAssignment
}

// OrderLine is one line of a confirmed order. CostPrice is resolved from the
// variant's channel listing for the order's channel; zero when unlisted.
type OrderLine struct {
	ProductSKU     string
	ProductName    string
	Quantity       int
	UnitPriceGross decimal.Decimal
	CostPrice      decimal.Decimal
	Variant        Variant
}

// Order is a confirmed storefront order as read from the commerce database.
type Order struct {
	ID      string
	Number  string
	Channel string
	User    User
	Lines   []OrderLine
}

// OrderRepository reads confirmed orders from the storefront schema. The
// storefront owns that schema; this repository never writes to it.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}
