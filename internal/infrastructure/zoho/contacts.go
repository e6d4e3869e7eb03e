package zoho

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// einFieldLabel is the contact custom field that carries the customer's tax
// identification, populated from storefront account metadata.
const einFieldLabel = "EIN / License Number / Reseller's Permit"

type contactRecord struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	ContactType string `json:"contact_type"`
}

type contactPersonRecord struct {
	ContactPersonID string `json:"contact_person_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
}

// EnsureVendor finds a vendor contact by exact name, creating it when
// absent. The vendor listing is filtered server-side by contact type and
// scanned client-side for an exact name match.
func (c *Client) EnsureVendor(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("contact_type", "vendor")

	var listing struct {
		Contacts []contactRecord `json:"contacts"`
	}
	if err := c.get(ctx, "/contacts", query, &listing); err != nil {
		return "", err
	}
	for _, v := range listing.Contacts {
		if v.ContactName == name {
			return v.ContactID, nil
		}
	}

	var created struct {
		Contact contactRecord `json:"contact"`
	}
	payload := map[string]any{
		"contact_name": name,
		"contact_type": "vendor",
	}
	if err := c.post(ctx, "/contacts", nil, payload, &created); err != nil {
		return "", err
	}

	c.logger.Info("Created Zoho vendor",
		zap.String("vendor", name),
		zap.String("contact_id", created.Contact.ContactID),
	)
	return created.Contact.ContactID, nil
}

// EnsureCustomer finds a customer contact by email, creating the contact and
// its primary contact person when absent. Uniqueness rests on the remote
// service's email constraint.
func (c *Client) EnsureCustomer(ctx context.Context, in accounting.CustomerInput) (*accounting.Customer, error) {
	einFieldID, err := c.customFieldID(ctx, einFieldLabel, "contact")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("email", in.Email)
	var listing struct {
		Contacts []contactRecord `json:"contacts"`
	}
	if err := c.get(ctx, "/contacts", query, &listing); err != nil {
		return nil, err
	}

	if len(listing.Contacts) > 0 {
		contact := listing.Contacts[0]
		var persons struct {
			ContactPersons []contactPersonRecord `json:"contact_persons"`
		}
		if err := c.get(ctx, "/contacts/"+contact.ContactID+"/contactpersons", nil, &persons); err != nil {
			return nil, err
		}
		if len(persons.ContactPersons) == 0 {
			return nil, fmt.Errorf("%w: contact %s has no contact persons", accounting.ErrNotFound, contact.ContactID)
		}
		return &accounting.Customer{
			ContactID:       contact.ContactID,
			ContactName:     contact.ContactName,
			ContactPersonID: persons.ContactPersons[0].ContactPersonID,
		}, nil
	}

	// The display name doubles as contact name unless it is just the email,
	// in which case the company reads better on documents.
	contactName := in.DisplayName
	if contactName == in.Email {
		contactName = in.CompanyName
	}

	payload := map[string]any{
		"contact_name":      contactName,
		"company_name":      in.CompanyName,
		"contact_type":      "customer",
		"customer_sub_type": "business",
		"billing_address":   addressPayload(in.DisplayName, in.Billing),
		"shipping_address":  addressPayload(in.DisplayName, in.Shipping),
		"custom_fields": []map[string]any{
			{"customfield_id": einFieldID, "value": in.EINOrLicense},
		},
	}
	var created struct {
		Contact contactRecord `json:"contact"`
	}
	if err := c.post(ctx, "/contacts", nil, payload, &created); err != nil {
		return nil, err
	}

	first, last := splitContactName(in.DisplayName)
	personPayload := map[string]any{
		"contact_id": created.Contact.ContactID,
		"first_name": first,
		"last_name":  last,
		"email":      in.Email,
	}
	var person struct {
		ContactPerson contactPersonRecord `json:"contact_person"`
	}
	if err := c.post(ctx, "/contacts/contactpersons", nil, personPayload, &person); err != nil {
		return nil, err
	}

	c.logger.Info("Created Zoho customer",
		zap.String("email", in.Email),
		zap.String("contact_id", created.Contact.ContactID),
	)
	return &accounting.Customer{
		ContactID:       created.Contact.ContactID,
		ContactName:     created.Contact.ContactName,
		ContactPersonID: person.ContactPerson.ContactPersonID,
	}, nil
}

// addressPayload maps a storefront address onto the Books contact address
// shape. The country is fixed; the storefront sells domestically only.
func addressPayload(attention string, a accounting.Address) map[string]any {
	country := a.Country
	if country == "" {
		country = "U.S.A."
	}
	return map[string]any{
		"attention":  attention,
		"country":    country,
		"city":       a.City,
		"state":      a.State,
		"address":    a.Street,
		"street2":    a.Street2,
		"state_code": a.State,
		"zip":        a.Zip,
	}
}

// splitContactName splits a display name into first and last name. Names
// without spaces are split on dots ("jane.doe"); a single bare token
// becomes the last name.
func splitContactName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		parts = strings.Split(name, ".")
	}
	if len(parts) > 1 {
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "", name
}
