// Package client is a Go client for the call log REST API.
//
// GET responses are cached per request path and query. A successful
// mutation drops every cached entry under the collection it touched, so the
// next read goes back to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gitea.jw6.us/james/calllog/internal/schema"
)

const (
	callLogsPath  = "/api/call-logs"
	templatesPath = "/api/templates"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Errors  []schema.FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("calllog api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("calllog api: %d %s (%d field errors)", e.Status, e.Message, len(e.Errors))
}

// Client talks to one call log server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	caching bool

	mu    sync.Mutex
	cache map[string][]byte
	// gen is bumped on every invalidation so a read that started before a
	// mutation does not repopulate the cache with stale data.
	gen    uint64
	flight singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithoutCache disables the GET cache.
func WithoutCache() Option {
	return func(c *Client) { c.caching = false }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		caching: true,
		cache:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions narrows ListCallLogs. Zero values are omitted.
type ListOptions struct {
	CallType      schema.CallType
	Search        string
	FavoritesOnly bool
	Recent        bool
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.CallType != "" {
		q.Set("callType", string(o.CallType))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.FavoritesOnly {
		q.Set("favorite", "true")
	}
	if o.Recent {
		q.Set("sort", "recent")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CallLogInput is the body of CreateCallLog. Nil optional fields take the
// server defaults.
type CallLogInput struct {
	ContactName string          `json:"contactName"`
	PhoneNumber string          `json:"phoneNumber"`
	CallType    schema.CallType `json:"callType"`
	Duration    *int            `json:"duration,omitempty"`
	IsFavorite  *bool           `json:"isFavorite,omitempty"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
}

// CallLogUpdate is the body of UpdateCallLog. Only non-nil fields are sent.
type CallLogUpdate struct {
	ContactName *string          `json:"contactName,omitempty"`
	PhoneNumber *string          `json:"phoneNumber,omitempty"`
	CallType    *schema.CallType `json:"callType,omitempty"`
	Duration    *int             `json:"duration,omitempty"`
	IsFavorite  *bool            `json:"isFavorite,omitempty"`
	Timestamp   *time.Time       `json:"timestamp,omitempty"`
}

// Composed is a rendered WhatsApp message and its deep link.
type Composed struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func (c *Client) ListCallLogs(ctx context.Context, opts ListOptions) ([]schema.CallLog, error) {
	var logs []schema.CallLog
	err := c.get(ctx, callLogsPath+opts.query(), &logs)
	return logs, err
}

func (c *Client) GetCallLog(ctx context.Context, id string) (*schema.CallLog, error) {
	var log schema.CallLog
	if err := c.get(ctx, callLogsPath+"/"+url.PathEscape(id), &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *Client) CreateCallLog(ctx context.Context, in CallLogInput) (*schema.CallLog, error) {
	var log schema.CallLog
	if err := c.mutate(ctx, http.MethodPost, callLogsPath, callLogsPath, in, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *Client) UpdateCallLog(ctx context.Context, id string, in CallLogUpdate) (*schema.CallLog, error) {
	var log schema.CallLog
	if err := c.mutate(ctx, http.MethodPatch, callLogsPath+"/"+url.PathEscape(id), callLogsPath, in, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *Client) DeleteCallLog(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, callLogsPath+"/"+url.PathEscape(id), callLogsPath, nil, nil)
}

// ComposeWhatsApp renders a message for a call log. An empty templateID uses
// the server's default greeting. The result is not cached.
func (c *Client) ComposeWhatsApp(ctx context.Context, id, templateID string) (*Composed, error) {
	path := callLogsPath + "/" + url.PathEscape(id) + "/whatsapp"
	if templateID != "" {
		path += "?templateId=" + url.QueryEscape(templateID)
	}
	var out Composed
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTemplates(ctx context.Context) ([]schema.MessageTemplate, error) {
	var templates []schema.MessageTemplate
	err := c.get(ctx, templatesPath, &templates)
	return templates, err
}

func (c *Client) CreateTemplate(ctx context.Context, name, message string) (*schema.MessageTemplate, error) {
	body := map[string]string{"name": name, "message": message}
	var tmpl schema.MessageTemplate
	if err := c.mutate(ctx, http.MethodPost, templatesPath, templatesPath, body, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, templatesPath+"/"+url.PathEscape(id), templatesPath, nil, nil)
}

// Invalidate drops every cached response whose key starts with prefix.
func (c *Client) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for key := range c.cache {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
		}
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.caching {
		return c.do(ctx, http.MethodGet, path, nil, out)
	}

	c.mu.Lock()
	body, ok := c.cache[path]
	gen := c.gen
	c.mu.Unlock()

	if !ok {
		// The shared request outlives any single caller; each caller stops
		// waiting when its own context ends.
		flightCtx := context.WithoutCancel(ctx)
		ch := c.flight.DoChan(path, func() (any, error) {
			var raw json.RawMessage
			if err := c.do(flightCtx, http.MethodGet, path, nil, &raw); err != nil {
				return nil, err
			}
			c.mu.Lock()
			if c.gen == gen {
				c.cache[path] = raw
			}
			c.mu.Unlock()
			return []byte(raw), nil
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return res.Err
			}
			body = res.Val.([]byte)
		}
	}
	return json.Unmarshal(body, out)
}

func (c *Client) mutate(ctx context.Context, method, path, invalidates string, in, out any) error {
	if err := c.do(ctx, method, path, in, out); err != nil {
		return err
	}
	c.Invalidate(invalidates)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(payload, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
