package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// refreshSkew is subtracted from the granted lifetime so callers never hand
// out a token that expires mid-request.
const refreshSkew = 300 * time.Second

// ErrNoTokenRecord is returned by a TokenStore when no credential has been
// persisted yet.
var ErrNoTokenRecord = errors.New("zoho: no token record")

// TokenSource yields a bearer token valid at the time of the call. It is the
// injectable credential provider every gateway operation receives; the
// caller owns its lifecycle.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenRecord is the persisted credential: the access token plus its expiry
// as epoch seconds. The float shape is the on-disk contract.
type TokenRecord struct {
	AccessToken string  `json:"access_token"`
	Expiry      float64 `json:"expiry"`
}

// Valid reports whether the record is usable at the given instant.
func (r TokenRecord) Valid(now time.Time) bool {
	return r.AccessToken != "" && float64(now.Unix()) < r.Expiry
}

// TokenStore persists a single TokenRecord. Load returns ErrNoTokenRecord
// (or any read error) when no usable record exists; callers treat every load
// failure as "refresh now".
type TokenStore interface {
	Load(ctx context.Context) (TokenRecord, error)
	Save(ctx context.Context, rec TokenRecord) error
}

// ---------------------------------------------------------------------------
// FileTokenStore
// ---------------------------------------------------------------------------

// FileTokenStore keeps the credential as a JSON file at a well-known path.
// There is no file locking: two refreshers racing a write both end up with a
// valid token, which is acceptable for this credential.
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

func (s *FileTokenStore) Load(_ context.Context) (TokenRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return TokenRecord{}, ErrNoTokenRecord
		}
		return TokenRecord{}, fmt.Errorf("zoho: failed to read token file: %w", err)
	}
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TokenRecord{}, fmt.Errorf("zoho: failed to parse token file: %w", err)
	}
	return rec, nil
}

func (s *FileTokenStore) Save(_ context.Context, rec TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("zoho: failed to encode token record: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("zoho: failed to write token file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// RedisTokenStore
// ---------------------------------------------------------------------------

// RedisTokenStore keeps the credential in Redis so replicas share one
// refresh cycle instead of each keeping a private file.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = "zoho:access_token"
	}
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (TokenRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return TokenRecord{}, ErrNoTokenRecord
		}
		return TokenRecord{}, fmt.Errorf("zoho: failed to read token from redis: %w", err)
	}
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TokenRecord{}, fmt.Errorf("zoho: failed to parse token record: %w", err)
	}
	return rec, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, rec TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("zoho: failed to encode token record: %w", err)
	}
	ttl := time.Until(time.Unix(int64(rec.Expiry), 0))
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("zoho: failed to write token to redis: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// OAuthTokenSource
// ---------------------------------------------------------------------------

// OAuthTokenSource returns the persisted token while it is fresh and
// performs a refresh-token grant against the accounts server when it is
// missing, unreadable, or expired. A rejected grant is fatal for the calling
// operation; there is no retry.
type OAuthTokenSource struct {
	config     *Config
	store      TokenStore
	httpClient *http.Client
	logger     *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewOAuthTokenSource(config *Config, store TokenStore, logger *zap.Logger) *OAuthTokenSource {
	return &OAuthTokenSource{
		config: config,
		store:  store,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Token returns the cached access token when it is still fresh, refreshing
// otherwise. A fresh cached record never touches the network.
func (s *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	rec, err := s.store.Load(ctx)
	if err == nil && rec.Valid(s.now()) {
		return rec.AccessToken, nil
	}
	if err != nil && !errors.Is(err, ErrNoTokenRecord) {
		s.logger.Warn("Token record unreadable, refreshing", zap.Error(err))
	}
	return s.refresh(ctx)
}

// refresh performs the refresh-token grant and persists the new record
// before returning it.
func (s *OAuthTokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("refresh_token", s.config.RefreshToken)
	form.Set("client_id", s.config.ClientID)
	form.Set("client_secret", s.config.ClientSecret)
	form.Set("grant_type", "refresh_token")

	endpoint := s.config.AccountsBaseURL + "/oauth/v2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zoho: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", accounting.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("%w: failed to parse token response: %v", accounting.ErrAuthFailed, err)
	}
	if grant.AccessToken == "" {
		s.logger.Error("Refresh grant rejected", zap.String("error", grant.Error))
		return "", fmt.Errorf("%w: refresh grant returned no access token", accounting.ErrAuthFailed)
	}

	rec := TokenRecord{
		AccessToken: grant.AccessToken,
		Expiry:      float64(s.now().Add(time.Duration(grant.ExpiresIn)*time.Second - refreshSkew).Unix()),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return "", err
	}

	s.logger.Debug("Refreshed Zoho access token",
		zap.Int64("expires_in", grant.ExpiresIn),
	)
	return rec.AccessToken, nil
}

// StaticTokenSource returns a fixed token. Test helper.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}
