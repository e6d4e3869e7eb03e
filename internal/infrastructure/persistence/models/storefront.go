// Package models maps the storefront tables this service reads and the
// tables it owns. The storefront models cover only the columns the sync
// pipeline needs; the storefront schema is authoritative.
package models

import (
	"github.com/shopspring/decimal"
)

// AddressModel maps the storefront address table.
type AddressModel struct {
	ID             int64  `gorm:"primaryKey"`
	CompanyName    string `gorm:"column:company_name"`
	StreetAddress1 string `gorm:"column:street_address_1"`
	StreetAddress2 string `gorm:"column:street_address_2"`
	City           string
	CountryArea    string `gorm:"column:country_area"`
	PostalCode     string `gorm:"column:postal_code"`
	Country        string
}

func (AddressModel) TableName() string { return "account_address" }

// UserModel maps the storefront account table.
type UserModel struct {
	ID                       int64 `gorm:"primaryKey"`
	Email                    string
	FirstName                string            `gorm:"column:first_name"`
	LastName                 string            `gorm:"column:last_name"`
	Metadata                 map[string]string `gorm:"serializer:json"`
	DefaultBillingAddressID  *int64            `gorm:"column:default_billing_address_id"`
	DefaultShippingAddressID *int64            `gorm:"column:default_shipping_address_id"`

	DefaultBillingAddress  *AddressModel `gorm:"foreignKey:DefaultBillingAddressID"`
	DefaultShippingAddress *AddressModel `gorm:"foreignKey:DefaultShippingAddressID"`
}

func (UserModel) TableName() string { return "account_user" }

// ChannelModel maps the storefront sales channel table.
type ChannelModel struct {
	ID   int64 `gorm:"primaryKey"`
	Slug string
}

func (ChannelModel) TableName() string { return "channel_channel" }

// CategoryModel maps the product category table.
type CategoryModel struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func (CategoryModel) TableName() string { return "product_category" }

// ProductModel maps the product table.
type ProductModel struct {
	ID               int64 `gorm:"primaryKey"`
	Name             string
	DescriptionPlain string `gorm:"column:description_plaintext"`
	CategoryID       *int64 `gorm:"column:category_id"`

	Category *CategoryModel `gorm:"foreignKey:CategoryID"`
}

func (ProductModel) TableName() string { return "product_product" }

// VariantModel maps the product variant table.
type VariantModel struct {
	ID        int64 `gorm:"primaryKey"`
	SKU       string
	ProductID int64 `gorm:"column:product_id"`

	Product ProductModel `gorm:"foreignKey:ProductID"`
}

func (VariantModel) TableName() string { return "product_productvariant" }

// VariantChannelListingModel maps per-channel variant pricing.
type VariantChannelListingModel struct {
	ID              int64            `gorm:"primaryKey"`
	VariantID       int64            `gorm:"column:variant_id"`
	ChannelID       int64            `gorm:"column:channel_id"`
	CostPriceAmount *decimal.Decimal `gorm:"column:cost_price_amount"`
}

func (VariantChannelListingModel) TableName() string {
	return "product_productvariantchannellisting"
}

// OrderModel maps the storefront order table.
type OrderModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Number    int64
	UserID    *int64 `gorm:"column:user_id"`
	ChannelID int64  `gorm:"column:channel_id"`

	User    *UserModel       `gorm:"foreignKey:UserID"`
	Channel ChannelModel     `gorm:"foreignKey:ChannelID"`
	Lines   []OrderLineModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "order_order" }

// OrderLineModel maps one order line.
type OrderLineModel struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	OrderID              string `gorm:"column:order_id;type:uuid"`
	ProductSKU           string `gorm:"column:product_sku"`
	ProductName          string `gorm:"column:product_name"`
	Quantity             int
	UnitPriceGrossAmount decimal.Decimal `gorm:"column:unit_price_gross_amount"`
	VariantID            *int64          `gorm:"column:variant_id"`

	Variant *VariantModel `gorm:"foreignKey:VariantID"`
}

func (OrderLineModel) TableName() string { return "order_orderline" }

// AttributeRow is the flattened result of the attribute-assignment joins:
// one assigned value of one attribute on a product or variant.
type AttributeRow struct {
	Slug  string
	Value string
}

// Attribute assignment tables, declared for test schemas and the raw joins
// in the order repository.

type AttributeModel struct {
	ID   int64 `gorm:"primaryKey"`
	Slug string
	Name string
}

func (AttributeModel) TableName() string { return "attribute_attribute" }

type AttributeValueModel struct {
	ID          int64 `gorm:"primaryKey"`
	AttributeID int64 `gorm:"column:attribute_id"`
	Name        string
	Slug        string
	SortOrder   *int `gorm:"column:sort_order"`
}

func (AttributeValueModel) TableName() string { return "attribute_attributevalue" }

type AssignedProductAttributeValueModel struct {
	ID        int64 `gorm:"primaryKey"`
	ProductID int64 `gorm:"column:product_id"`
	ValueID   int64 `gorm:"column:value_id"`
	SortOrder *int  `gorm:"column:sort_order"`
}

func (AssignedProductAttributeValueModel) TableName() string {
	return "attribute_assignedproductattributevalue"
}

type AssignedVariantAttributeModel struct {
	ID          int64 `gorm:"primaryKey"`
	VariantID   int64 `gorm:"column:variant_id"`
	AttributeID int64 `gorm:"column:attribute_id"`
}

func (AssignedVariantAttributeModel) TableName() string {
	return "attribute_assignedvariantattribute"
}

type AssignedVariantAttributeValueModel struct {
	ID           int64 `gorm:"primaryKey"`
	AssignmentID int64 `gorm:"column:assignment_id"`
	ValueID      int64 `gorm:"column:value_id"`
	SortOrder    *int  `gorm:"column:sort_order"`
}

func (AssignedVariantAttributeValueModel) TableName() string {
	return "attribute_assignedvariantattributevalue"
}
