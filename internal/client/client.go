// Package client is the storefront's data layer over the collection API.
// Every method is a single HTTP round trip except where noted.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// APIError is returned when the API answers with ok=false
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the collection API
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	log        logrus.FieldLogger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sends key as x-api-key on every request
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the API served at baseURL, e.g. http://localhost:8080
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response shape shared by every route
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Item  json.RawMessage `json:"item"`
	ID    string          `json:"id"`
	Error string          `json:"error"`
}

// List fetches a collection, optionally filtered, into out
func (c *Client) List(ctx context.Context, collection string, filters url.Values, out interface{}) error {
	path := "/api/json/" + url.PathEscape(collection)
	if len(filters) > 0 {
		path += "?" + filters.Encode()
	}

	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeInto(env.Data, out)
}

// Create posts body and decodes the stored item into out
func (c *Client) Create(ctx context.Context, collection string, body interface{}, out interface{}) error {
	env, err := c.do(ctx, http.MethodPost, "/api/json/"+url.PathEscape(collection), body)
	if err != nil {
		return err
	}
	return decodeInto(env.Item, out)
}

// Update shallow-merges body, which must carry an id, and decodes the result into out
func (c *Client) Update(ctx context.Context, collection string, body interface{}, out interface{}) error {
	env, err := c.do(ctx, http.MethodPut, "/api/json/"+url.PathEscape(collection), body)
	if err != nil {
		return err
	}
	return decodeInto(env.Item, out)
}

// Delete removes the record with id
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/json/"+url.PathEscape(collection), map[string]string{"id": id})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

func decodeInto(raw json.RawMessage, out interface{}) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
