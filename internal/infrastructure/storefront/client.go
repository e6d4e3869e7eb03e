// Package storefront is a client for the storefront's GraphQL admin API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	stdsync "sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAuthFailed is returned when tokenCreate rejects the credentials.
	ErrAuthFailed = errors.New("storefront: authentication failed")

	// ErrRequestFailed is returned for transport-level failures.
	ErrRequestFailed = errors.New("storefront: request failed")

	// ErrMutationRejected is returned when a mutation reports errors.
	ErrMutationRejected = errors.New("storefront: mutation rejected")
)

// maxResponseBytes bounds a GraphQL response body read.
const maxResponseBytes = 10 << 20

// GraphQLError is one error entry in a GraphQL response or mutation result.
type GraphQLError struct {
	Path    []any  `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Client talks to the storefront admin API with a bearer token obtained
// from the tokenCreate mutation. The token is fetched lazily and reused.
type Client struct {
	endpoint   string
	email      string
	password   string
	httpClient *http.Client
	logger     *zap.Logger

	mu    stdsync.Mutex
	token string
}

func NewClient(endpoint, email, password string, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		email:      email,
		password:   password,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

const tokenCreateMutation = `
mutation tokenCreate($email: String!, $password: String!) {
    tokenCreate(email: $email, password: $password) {
        token
        errors {
            field
            message
        }
    }
}`

// Authenticate obtains a fresh bearer token. Callers normally do not need
// this; request helpers authenticate on demand.
func (c *Client) Authenticate(ctx context.Context) error {
	var payload struct {
		TokenCreate struct {
			Token  string         `json:"token"`
			Errors []GraphQLError `json:"errors"`
		} `json:"tokenCreate"`
	}
	err := c.do(ctx, "", tokenCreateMutation, map[string]any{
		"email":    c.email,
		"password": c.password,
	}, &payload)
	if err != nil {
		return err
	}
	if payload.TokenCreate.Token == "" {
		return fmt.Errorf("%w: check the credentials", ErrAuthFailed)
	}

	c.mu.Lock()
	c.token = payload.TokenCreate.Token
	c.mu.Unlock()

	c.logger.Debug("Storefront token obtained")
	return nil
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

// do posts one GraphQL operation and decodes response.data into out.
// An empty token skips the Authorization header (used by tokenCreate).
func (c *Client) do(ctx context.Context, token, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrRequestFailed, err)
		}
	}
	return nil
}
