package zoho

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

func TestClient_EnsureVendor_ExactMatch(t *testing.T) {
	var creates int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "vendor", r.URL.Query().Get("contact_type"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"contacts": []map[string]any{
					{"contact_id": "v-1", "contact_name": "Brown Jordan Inc"},
					{"contact_id": "v-2", "contact_name": "Brown Jordan"},
				},
			})
		case http.MethodPost:
			creates++
		}
	}))

	// Exact name only; "Brown Jordan Inc" must not shadow "Brown Jordan".
	id, err := client.EnsureVendor(t.Context(), "Brown Jordan")
	require.NoError(t, err)
	assert.Equal(t, "v-2", id)
	assert.Zero(t, creates)
}

func TestClient_EnsureVendor_CreatesWhenAbsent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"contacts": []any{}})
		case http.MethodPost:
			body := decodeBody(t, r)
			assert.Equal(t, "Kingsley Bate", body["contact_name"])
			assert.Equal(t, "vendor", body["contact_type"])
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"contact": map[string]any{"contact_id": "v-9", "contact_name": "Kingsley Bate"},
			})
		}
	}))

	id, err := client.EnsureVendor(t.Context(), "Kingsley Bate")
	require.NoError(t, err)
	assert.Equal(t, "v-9", id)
}

func TestClient_EnsureCustomer_ExistingByEmail(t *testing.T) {
	var posts int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
			return
		}
		switch r.URL.Path {
		case "/books/v3/settings/customfields":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"customfields": map[string]any{
					"contact": []map[string]any{
						{"customfield_id": "cf-ein", "label": einFieldLabel},
					},
				},
			})
		case "/books/v3/contacts":
			assert.Equal(t, "jane@acme.com", r.URL.Query().Get("email"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"contacts": []map[string]any{
					{"contact_id": "c-1", "contact_name": "Jane Doe"},
				},
			})
		case "/books/v3/contacts/c-1/contactpersons":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"contact_persons": []map[string]any{
					{"contact_person_id": "p-1", "email": "jane@acme.com"},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	customer, err := client.EnsureCustomer(t.Context(), accounting.CustomerInput{
		Email:       "jane@acme.com",
		DisplayName: "Jane Doe",
		CompanyName: "Acme Interiors",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", customer.ContactID)
	assert.Equal(t, "p-1", customer.ContactPersonID)
	assert.Zero(t, posts, "lookup of an existing customer must not create anything")
}

func TestClient_EnsureCustomer_CreatesContactAndPerson(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/settings/customfields":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"customfields": map[string]any{
					"contact": []map[string]any{
						{"customfield_id": "cf-ein", "label": einFieldLabel},
					},
				},
			})
		case r.URL.Path == "/books/v3/contacts" && r.Method == http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"contacts": []any{}})
		case r.URL.Path == "/books/v3/contacts" && r.Method == http.MethodPost:
			body := decodeBody(t, r)
			assert.Equal(t, "Jane Doe", body["contact_name"])
			assert.Equal(t, "Acme Interiors", body["company_name"])
			assert.Equal(t, "customer", body["contact_type"])
			assert.Equal(t, "business", body["customer_sub_type"])

			billing, ok := body["billing_address"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Jane Doe", billing["attention"])
			assert.Equal(t, "U.S.A.", billing["country"])
			assert.Equal(t, "Seattle", billing["city"])

			fields, ok := body["custom_fields"].([]any)
			require.True(t, ok)
			require.Len(t, fields, 1)
			field := fields[0].(map[string]any)
			assert.Equal(t, "cf-ein", field["customfield_id"])
			assert.Equal(t, "91-1144442", field["value"])

			writeJSON(t, w, http.StatusCreated, map[string]any{
				"contact": map[string]any{"contact_id": "c-7", "contact_name": "Jane Doe"},
			})
		case r.URL.Path == "/books/v3/contacts/contactpersons" && r.Method == http.MethodPost:
			body := decodeBody(t, r)
			assert.Equal(t, "c-7", body["contact_id"])
			assert.Equal(t, "Jane", body["first_name"])
			assert.Equal(t, "Doe", body["last_name"])
			assert.Equal(t, "jane@acme.com", body["email"])
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"contact_person": map[string]any{"contact_person_id": "p-7"},
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	customer, err := client.EnsureCustomer(t.Context(), accounting.CustomerInput{
		Email:        "jane@acme.com",
		DisplayName:  "Jane Doe",
		CompanyName:  "Acme Interiors",
		EINOrLicense: "91-1144442",
		Billing:      accounting.Address{City: "Seattle", State: "WA", Street: "1 Pike St", Zip: "98101"},
		Shipping:     accounting.Address{City: "Seattle", State: "WA", Street: "1 Pike St", Zip: "98101"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-7", customer.ContactID)
	assert.Equal(t, "p-7", customer.ContactPersonID)
}

func TestClient_EnsureCustomer_CompanyNameWhenDisplayNameIsEmail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/settings/customfields":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"customfields": map[string]any{
					"contact": []map[string]any{
						{"customfield_id": "cf-ein", "label": einFieldLabel},
					},
				},
			})
		case r.URL.Path == "/books/v3/contacts" && r.Method == http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"contacts": []any{}})
		case r.URL.Path == "/books/v3/contacts" && r.Method == http.MethodPost:
			body := decodeBody(t, r)
			assert.Equal(t, "Acme Interiors", body["contact_name"])
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"contact": map[string]any{"contact_id": "c-8"},
			})
		case r.URL.Path == "/books/v3/contacts/contactpersons":
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"contact_person": map[string]any{"contact_person_id": "p-8"},
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	customer, err := client.EnsureCustomer(t.Context(), accounting.CustomerInput{
		Email:       "jane@acme.com",
		DisplayName: "jane@acme.com",
		CompanyName: "Acme Interiors",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-8", customer.ContactID)
}

func TestSplitContactName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
	}{
		{"first and last", "Jane Doe", "Jane", "Doe"},
		{"three parts", "Jane van Doe", "Jane", "van Doe"},
		{"dotted local part", "jane.doe", "jane", "doe"},
		{"single token", "jane", "", "jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitContactName(tt.input)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}
