package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the remote subtitle cache / account server.
// Every call carries the session bearer token and goes through the
// retry policy; only transient failures are retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryPolicy
}

// Config holds the connection settings for the remote store
type Config struct {
	BaseURL string
	Token   string
	Timeout int // seconds, 0 means default
	Retry   RetryPolicy
}

const defaultTimeout = 30

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("server base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	policy := cfg.Retry
	if policy.Attempts == 0 {
		policy = DefaultRetryPolicy()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		retry: policy,
	}, nil
}

// SetToken replaces the bearer token, used after login
func (c *Client) SetToken(token string) {
	c.token = token
}

// GetSubtitle looks up the shared subtitle record for a fingerprint.
// A missing record surfaces as a NotFound APIError, which callers
// treat as normal control flow.
func (c *Client) GetSubtitle(ctx context.Context, md5 string) (*SubtitleRecord, error) {
	var record SubtitleRecord
	err := c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/api/subtitle/getSubtitle",
			url.Values{"md5": {md5}}, nil, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateSubtitle stores a freshly generated subtitle record.
// Two clients generating for the same fingerprint race here; the
// last write wins.
func (c *Client) CreateSubtitle(ctx context.Context, record *SubtitleRecord) error {
	return c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodPost, "/api/subtitle", nil, record, nil)
	})
}

// UpdateSubtitle applies a partial update to an existing record
func (c *Client) UpdateSubtitle(ctx context.Context, patch SubtitlePatch) error {
	return c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodPut, "/api/subtitle/updateSubtitle",
			url.Values{"md5": {patch.MD5}}, patch, nil)
	})
}

// GetUser fetches the account and usage ledger for the session token
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	err := c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/api/user/user", nil, nil, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser writes back the full usage ledger.
// This is a read-modify-write against the authoritative copy with no
// compare-and-swap; concurrent updates of the same user can lose one.
func (c *Client) UpdateUser(ctx context.Context, stats UserStats) error {
	return c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodPut, "/api/user/updateUser", nil, stats, nil)
	})
}

// Login exchanges credentials for a bearer token and adopts it
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/api/user/login",
			url.Values{"username": {username}, "password": {password}}, nil, &result)
	})
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// GetNotebook fetches the user's saved word lookups
func (c *Client) GetNotebook(ctx context.Context) ([]NotebookEntry, error) {
	var entries []NotebookEntry
	err := c.retry.Do(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/api/user/notebook", nil, nil, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// doJSON performs a single request attempt and classifies failures
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return &APIError{Kind: KindFatal, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &APIError{Kind: KindFatal, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &APIError{Kind: KindCancelled, Message: "request cancelled", Cause: ctx.Err()}
		}
		// connection aborted / network unreachable
		return &APIError{Kind: KindTransient, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransient, Message: "failed to read response body", Cause: err}
	}

	var env envelope
	// body may be empty or non-JSON on errors, that is fine
	_ = json.Unmarshal(responseBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := env.Message
		if message == "" {
			message = strings.TrimSpace(string(responseBody))
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			Kind:    classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: message,
		}
	}

	if !env.Success {
		return &APIError{
			Kind:    KindFatal,
			Status:  resp.StatusCode,
			Message: env.Message,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Kind: KindFatal, Message: "failed to parse response", Cause: err}
		}
	}

	return nil
}
