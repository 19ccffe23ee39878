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
	"sync"
	"time"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/google/uuid"
)

const maxBodySize = 16 << 20

type Option func(*RESTClient)

func WithHTTPClient(c *http.Client) Option {
	return func(r *RESTClient) { r.http = c }
}

func WithAccessToken(token string) Option {
	return func(r *RESTClient) { r.accessToken = token }
}

// WithTimeout bounds every request; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *RESTClient) { r.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(r *RESTClient) { r.logger = l }
}

type RESTClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  logging.Logger

	mu          sync.RWMutex
	accessToken string
}

func NewRESTClient(baseURL string, opts ...Option) (*RESTClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	c := &RESTClient{base: u, http: http.DefaultClient, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "rest")
	return c, nil
}

// SetAccessToken replaces the bearer token used by subsequent requests.
func (c *RESTClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *RESTClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *RESTClient) List(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint(q.Values(), collection), nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	if err := requireIDs(records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *RESTClient) Create(ctx context.Context, collection string, r models.Record) ([]models.Record, error) {
	return c.save(ctx, http.MethodPost, collection, r)
}

func (c *RESTClient) Update(ctx context.Context, collection string, r models.Record) ([]models.Record, error) {
	return c.save(ctx, http.MethodPut, collection, r)
}

func (c *RESTClient) save(ctx context.Context, method, collection string, r models.Record) ([]models.Record, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRecord, err)
	}
	body, err := c.do(ctx, method, c.endpoint(nil, collection), payload)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

func (c *RESTClient) Delete(ctx context.Context, collection string, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.endpoint(nil, collection, id), nil)
	return err
}

func (c *RESTClient) Ping(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "ping"), nil)
	if err != nil {
		return err
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %w: ping: %w", common.ErrNetworkFailure, common.ErrParseFailure, err)
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: %w: ping status %q", common.ErrNetworkFailure, common.ErrUnavailable, resp.Status)
	}
	return nil
}

func (c *RESTClient) endpoint(params url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.base.JoinPath(escaped...)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *RESTClient) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	c.logger.Debug(ctx, "request done",
		"method", method, "url", target, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if err := statusError(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *RESTClient) mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
}

func statusError(code int, body []byte) error {
	if code >= 200 && code <= 299 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", common.ErrNetworkFailure, common.ErrUnauthorized, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", common.ErrNetworkFailure, common.ErrorNotFound, msg)
	case code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %w: status %d", common.ErrNetworkFailure, common.ErrUnavailable, code)
	default:
		return fmt.Errorf("%w: status %d: %s", common.ErrNetworkFailure, code, msg)
	}
}
