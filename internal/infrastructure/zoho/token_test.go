package zoho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := store.Load(t.Context())
	assert.ErrorIs(t, err, ErrNoTokenRecord)

	rec := TokenRecord{AccessToken: "abc123", Expiry: 1756400000}
	require.NoError(t, store.Save(t.Context(), rec))

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestTokenRecord_Valid(t *testing.T) {
	now := time.Unix(1756400000, 0)

	tests := []struct {
		name  string
		rec   TokenRecord
		valid bool
	}{
		{"fresh", TokenRecord{AccessToken: "abc", Expiry: 1756400100}, true},
		{"expired", TokenRecord{AccessToken: "abc", Expiry: 1756399900}, false},
		{"expires this instant", TokenRecord{AccessToken: "abc", Expiry: 1756400000}, false},
		{"empty token", TokenRecord{Expiry: 1756400100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.rec.Valid(now))
		})
	}
}

// memoryTokenStore keeps the record in memory and counts saves.
type memoryTokenStore struct {
	rec   *TokenRecord
	saves int
}

func (s *memoryTokenStore) Load(context.Context) (TokenRecord, error) {
	if s.rec == nil {
		return TokenRecord{}, ErrNoTokenRecord
	}
	return *s.rec, nil
}

func (s *memoryTokenStore) Save(_ context.Context, rec TokenRecord) error {
	s.rec = &rec
	s.saves++
	return nil
}

func newTestTokenSource(t *testing.T, store TokenStore, handler http.Handler) *OAuthTokenSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := newTestConfig()
	config.AccountsBaseURL = server.URL
	return NewOAuthTokenSource(config, store, zap.NewNop())
}

func TestOAuthTokenSource_FreshRecordSkipsNetwork(t *testing.T) {
	now := time.Unix(1756400000, 0)
	store := &memoryTokenStore{rec: &TokenRecord{
		AccessToken: "cached",
		Expiry:      float64(now.Add(time.Hour).Unix()),
	}}

	source := newTestTokenSource(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("fresh token must not trigger a refresh")
	}))
	source.now = func() time.Time { return now }

	token, err := source.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Zero(t, store.saves)
}

func TestOAuthTokenSource_RefreshesAndPersists(t *testing.T) {
	now := time.Unix(1756400000, 0)
	store := &memoryTokenStore{rec: &TokenRecord{
		AccessToken: "stale",
		Expiry:      float64(now.Add(-time.Minute).Unix()),
	}}

	var refreshes int
	source := newTestTokenSource(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","expires_in":3600}`))
	}))
	source.now = func() time.Time { return now }

	token, err := source.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, 1, store.saves)

	// The persisted expiry is skewed 300s early so the token is never used
	// right at its deadline.
	wantExpiry := float64(now.Add(3600*time.Second - refreshSkew).Unix())
	assert.Equal(t, wantExpiry, store.rec.Expiry)
}

func TestOAuthTokenSource_RejectedGrant(t *testing.T) {
	store := &memoryTokenStore{}
	source := newTestTokenSource(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))

	_, err := source.Token(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, accounting.ErrAuthFailed)
	assert.Zero(t, store.saves)
}
