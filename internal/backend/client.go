package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 8 << 20

type idempotencyKey struct{}

// WithIdempotencyKey attaches an Idempotency-Key header value to every
// request issued with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKeyFrom returns the key attached by WithIdempotencyKey.
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

// Config configures the REST client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client issues JSON requests against the sales backend.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client. The base URL must be absolute.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("parse backend url: %q is not absolute", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: base, token: cfg.Token, http: httpClient, logger: logger}, nil
}

// resolve joins a store path onto the base URL. Store paths are relative to
// the API root even when written with a leading slash.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	return c.resolveRef(strings.TrimLeft(path, "/"), query)
}

// resolveRef resolves ref against the base URL as-is, so absolute URLs and
// root-relative paths returned by the backend keep their own prefix.
func (c *Client) resolveRef(ref string, query url.Values) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	target := c.baseURL.ResolveReference(parsed)
	if len(query) > 0 {
		q := target.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	return target.String(), nil
}

// Do sends one request. A non-2xx answer is a failed envelope with a nil
// error; the error return is reserved for transport failures and always
// wraps ErrTransport.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (Result[gjson.Result], error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return fail[gjson.Result](0, err.Error()), fmt.Errorf("%w: build url: %v", ErrTransport, err)
	}
	return c.send(ctx, method, target, body)
}

func (c *Client) send(ctx context.Context, method, target string, body any) (Result[gjson.Result], error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fail[gjson.Result](0, err.Error()), fmt.Errorf("%w: encode body: %v", ErrTransport, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail[gjson.Result](0, err.Error()), fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if key := IdempotencyKeyFrom(ctx); key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("url", target),
			slog.Any("error", err))
		return fail[gjson.Result](0, err.Error()), fmt.Errorf("%w: %s %s: %v", ErrTransport, method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail[gjson.Result](resp.StatusCode, err.Error()), fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	c.logger.DebugContext(ctx, "backend request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail[gjson.Result](resp.StatusCode, ExtractMessage(payload, resp.StatusCode)), nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return succeed(gjson.Result{}, resp.StatusCode), nil
	}
	if !gjson.ValidBytes(payload) {
		return fail[gjson.Result](resp.StatusCode, "invalid JSON response"), nil
	}
	return succeed(gjson.ParseBytes(payload), resp.StatusCode), nil
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
