package zoho

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// newTestConfig creates a config pointed at nowhere in particular; tests
// rewire the base URLs to an httptest server.
func newTestConfig() *Config {
	return NewConfig("client-id", "client-secret", "refresh-token", "org-1")
}

// newTestClient creates a client whose Books API calls hit the given
// handler. Authentication is a fixed token.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := newTestConfig()
	config.APIBaseURL = server.URL

	client, err := NewClient(config, StaticTokenSource("test-token"), zap.NewNop())
	require.NoError(t, err)
	return client, server
}

// writeJSON writes a Books API envelope response.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, body map[string]any) {
	t.Helper()
	if _, ok := body["code"]; !ok {
		body["code"] = 0
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// decodeBody decodes a request body into a generic map.
func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestClient_DoRequest_ScopesAndAuthenticates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/v3/contacts", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "Zoho-oauthtoken test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"contacts": []any{}})
	}))

	var out struct {
		Contacts []any `json:"contacts"`
	}
	err := client.get(t.Context(), "/contacts", nil, &out)
	require.NoError(t, err)
	assert.Empty(t, out.Contacts)
}

func TestClient_DoRequest_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"code":    57,
			"message": "You are not authorized to perform this operation",
		})
	}))

	err := client.get(t.Context(), "/contacts", nil, &struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounting.ErrRequestFailed)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestClient_DoRequest_EnvelopeError(t *testing.T) {
	// The Books API can report failure inside a 200 response.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"code":    1002,
			"message": "Item already exists",
		})
	}))

	err := client.get(t.Context(), "/items", nil, &struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounting.ErrRequestFailed)
	assert.Contains(t, err.Error(), "Item already exists")
}

func TestPruneFields(t *testing.T) {
	obj := map[string]any{
		"customer_id": "c-1",
		"status":      "drawn",
		"total":       120.5,
		"notes":       "keep me",
	}
	clean := pruneFields(obj, []string{"customer_id", "notes", "missing"})

	assert.Equal(t, map[string]any{
		"customer_id": "c-1",
		"notes":       "keep me",
	}, clean)
	// The source object is left untouched.
	assert.Contains(t, obj, "status")
}

func TestNumber_MarshalJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]any{
		"rate": Number{decimalFromString(t, "1299.95")},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":1299.95}`, string(payload))
}
