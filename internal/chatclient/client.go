// Package chatclient talks to the chat service over HTTP and websockets.
// *Client implements transcript.Backend.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"openchat/internal/transcript"
)

var _ transcript.Backend = (*Client)(nil)

// StatusError is an unexpected HTTP response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type errorBody struct {
	Error        string `json:"error"`
	RetryAfterMS int64  `json:"retry_after_ms"`
}

// DefaultPingInterval matches the server's keepalive period.
const DefaultPingInterval = 30 * time.Second

type Client struct {
	base         *url.URL
	http         *http.Client
	dialer       *websocket.Dialer
	token        string
	identity     transcript.Identity
	pingInterval time.Duration
	logger       *zap.SugaredLogger
}

type Option func(*Client)

// WithToken sends a signed identity token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithIdentity sets the handle attached to reactions.
func WithIdentity(id transcript.Identity) Option {
	return func(c *Client) { c.identity = id }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
		c.dialer.HandshakeTimeout = d
	}
}

// WithPingInterval sets the expected server keepalive period. A feed that
// stays silent for two periods is treated as dropped.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.Sugar() }
}

func New(serverURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", serverURL)
	}

	c := &Client{
		base:         base,
		http:         &http.Client{Timeout: 10 * time.Second},
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		pingInterval: DefaultPingInterval,
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(p string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/api" + p
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, p string, query url.Values, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p, query), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := decodeError(resp)
		c.logger.Debugw("Request failed", "method", req.Method, "url", req.URL.Path, "status", resp.StatusCode, "error", err)
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// decodeError maps a failed response onto the transcript error kinds.
func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return &transcript.ValidationError{Reason: body.Error}
	case http.StatusForbidden:
		if isMessageDelete(resp.Request) {
			return &transcript.AuthorizationError{Action: "delete"}
		}
		return &transcript.AuthorizationError{Reason: body.Error}
	case http.StatusNotFound:
		return transcript.ErrNotFound
	case http.StatusTooManyRequests:
		wait := time.Duration(body.RetryAfterMS) * time.Millisecond
		if wait <= 0 {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		return &transcript.RateLimitError{Remaining: wait}
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

func isMessageDelete(req *http.Request) bool {
	return req != nil && req.Method == http.MethodDelete &&
		strings.Contains(req.URL.Path, "/api/messages/") && !strings.Contains(req.URL.Path, "/reactions")
}

// IsUnauthorized reports whether err is a rejected or missing identity.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}
