package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// maxResponseSize caps response bodies read from the Books API (10MB).
const maxResponseSize = 10 * 1024 * 1024

// booksBasePath is the versioned path prefix of the Books API.
const booksBasePath = "/books/v3"

// authScheme is the Authorization header scheme the Books API expects.
const authScheme = "Zoho-oauthtoken"

// Client implements accounting.Gateway against the Zoho Books REST API.
// It holds no state besides configuration; every find-or-create operation
// re-queries the remote collection.
type Client struct {
	config     *Config
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Books API client. The token source is injected; its
// lifecycle belongs to the caller.
func NewClient(config *Config, tokens TokenSource, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// envelope is the common wrapper on every Books API response body.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// doRequest performs one Books API call. Every request is scoped by the
// organization_id query parameter and authenticated with the current bearer
// token. A non-2xx status or a non-zero envelope code becomes an error that
// propagates to the caller untouched.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("organization_id", c.config.OrganizationID)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("zoho: failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.config.APIBaseURL + booksBasePath + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("zoho: failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authScheme+" "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", accounting.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("zoho: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("Books API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: HTTP %d: %s", accounting.ErrRequestFailed, resp.StatusCode, apiMessage(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", accounting.ErrInvalidResponse, err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("%w: code %d: %s", accounting.ErrRequestFailed, env.Code, env.Message)
	}

	return respBody, nil
}

// get performs a GET and decodes the response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// post performs a POST and decodes the response into out (out may be nil).
func (c *Client) post(ctx context.Context, path string, query url.Values, payload, out any) error {
	body, err := c.doRequest(ctx, http.MethodPost, path, query, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

// put performs a PUT and decodes the response into out (out may be nil).
func (c *Client) put(ctx context.Context, path string, query url.Values, payload, out any) error {
	body, err := c.doRequest(ctx, http.MethodPut, path, query, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", accounting.ErrInvalidResponse, err)
	}
	return nil
}

// apiMessage extracts the envelope message from an error body; best effort.
func apiMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		return "no message"
	}
	return env.Message
}

// pruneFields returns a copy of obj containing only the allowed keys. The
// Books API rejects server-generated fields when they are echoed back on
// PUT, so update payloads must be cut down to an explicit allow-list.
func pruneFields(obj map[string]any, allowed []string) map[string]any {
	clean := make(map[string]any, len(allowed))
	for _, key := range allowed {
		if v, ok := obj[key]; ok {
			clean[key] = v
		}
	}
	return clean
}

// Ensure Client implements the accounting gateway.
var _ accounting.Gateway = (*Client)(nil)
