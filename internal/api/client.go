package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client wraps HTTP calls to the media-mirror REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	stream  *resty.Client
	logger  *zap.Logger
}

// NewClient creates a new API client.
func NewClient(baseURL, apiKey string, timeout ...time.Duration) *Client {
	httpTimeout := 30 * time.Second
	if len(timeout) > 0 && timeout[0] > 0 {
		httpTimeout = timeout[0]
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(httpTimeout).
			SetHeader("Accept", "application/json"),
		// Log streams can outlive any sensible request timeout.
		stream: resty.New().
			SetBaseURL(baseURL),
		logger: zap.NewNop(),
	}
}

// SetAPIKey updates the key sent with subsequent requests.
func (c *Client) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}

// SetLogger routes request logging to logger.
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTimeout clones the client with a different HTTP timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := NewClient(c.baseURL, c.apiKey, timeout)
	clone.logger = c.logger
	return clone
}

func (c *Client) request(ctx context.Context, rc *resty.Client) *resty.Request {
	req := rc.R()
	if ctx != nil {
		req.SetContext(ctx)
	}
	if c.apiKey != "" {
		req.SetHeader("X-API-KEY", c.apiKey)
	}
	return req
}

// call is one JSON request against the API.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

// send executes k and returns the body of a 2xx response. Any other status
// becomes a *StatusError.
func (c *Client) send(ctx context.Context, k call) ([]byte, error) {
	req := c.request(ctx, c.http)
	if len(k.query) > 0 {
		req.SetQueryParamsFromValues(k.query)
	}
	if k.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(k.body)
	}

	log := c.logger.With(zap.String("method", k.method), zap.String("path", k.path))
	log.Debug("api request")
	resp, err := req.Execute(k.method, k.path)
	if err != nil {
		log.Warn("api request failed", zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() >= 400 {
		log.Warn("api error response", zap.Int("status", resp.StatusCode()))
		return nil, statusError(resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.send(ctx, call{method: http.MethodGet, path: path, query: query})
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.send(ctx, call{method: http.MethodPost, path: path, body: body})
}

func (c *Client) put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.send(ctx, call{method: http.MethodPut, path: path, body: body})
}

// del sends a DELETE, with a JSON body when body is non-nil.
func (c *Client) del(ctx context.Context, path string, body any) ([]byte, error) {
	return c.send(ctx, call{method: http.MethodDelete, path: path, body: body})
}

// openStream performs a GET whose body the caller reads and closes.
func (c *Client) openStream(ctx context.Context, path string) (io.ReadCloser, error) {
	c.logger.Debug("api stream", zap.String("path", path))
	resp, err := c.request(ctx, c.stream).
		SetDoNotParseResponse(true).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body := resp.RawBody()
	if resp.StatusCode() >= 400 {
		defer body.Close()
		data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		return nil, statusError(resp.StatusCode(), data)
	}
	return body, nil
}

// decode unmarshals a response body into T.
func decode[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// pageQuery holds paging values and the non-empty filters of a list call.
func pageQuery(page, size int, filters map[string]string) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("page_size", strconv.Itoa(size))
	}
	for k, v := range filters {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// errorKeys are the fields error responses carry their message in, by
// precedence. Aborts use description, validation failures use detail.
var errorKeys = []string{"error", "description", "detail"}

func statusError(status int, body []byte) error {
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		for _, k := range errorKeys {
			if msg := errorMessage(payload[k]); msg != "" {
				return &StatusError{Code: status, Message: msg}
			}
		}
	}
	return &StatusError{Code: status, Message: strings.TrimSpace(string(body))}
}

// errorMessage reads a decoded error value: a plain string, or an object
// with code and message that may itself sit under an error key.
func errorMessage(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if inner := errorMessage(v["error"]); inner != "" {
			return inner
		}
		code, _ := v["code"].(string)
		msg, _ := v["message"].(string)
		parts := []string{strings.TrimSpace(code), strings.TrimSpace(msg)}
		return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), ": ")
	}
	return ""
}
