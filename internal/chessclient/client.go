package chessclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-boardchess/pkg/chessdto"
	"github.com/valyala/fasthttp"
)

// Client talks to a running chess-server over its JSON API.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response. Action is set when the server still
// returned the session state alongside a rule error.
type APIError struct {
	Status int
	chessdto.DomainError
	Action *chessdto.ActionResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chess api error: status=%d code=%s: %s", e.Status, e.Code, e.DomainError.Error())
}

// ActionOf returns the action payload carried by err, if any.
func ActionOf(err error) *chessdto.ActionResponse {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Action
	}
	return nil
}

// Health reports whether the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, "/healthz", nil, nil, true)
	return err
}

func (c *Client) Start(ctx context.Context, req chessdto.StartRequest) (*chessdto.ActionResponse, error) {
	return c.action(ctx, "/api/games", req)
}

func (c *Client) Status(ctx context.Context, id string) (*chessdto.SessionState, error) {
	var st chessdto.SessionState
	if _, err := c.do(ctx, fasthttp.MethodGet, gamePath(id, ""), nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Select(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "select"), chessdto.SquareRequest{Square: square})
}

func (c *Client) Move(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "move"), chessdto.SquareRequest{Square: square})
}

func (c *Client) MoveDirect(ctx context.Context, id, from, to string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "move"), chessdto.SquareRequest{From: from, Square: to})
}

func (c *Client) Click(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "click"), chessdto.SquareRequest{Square: square})
}

func (c *Client) Undo(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "undo"), nil)
}

func (c *Client) Redo(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "redo"), nil)
}

func (c *Client) ComputerMove(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "computer"), nil)
}

func (c *Client) Resign(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gamePath(id, "resign"), nil)
}

// BoardPNG fetches the rendered board image.
func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, gamePath(id, "board.png"), nil, nil, true)
}

func (c *Client) History(ctx context.Context, player string, limit int) ([]*chessdto.GameRecord, error) {
	q := url.Values{}
	if p := strings.TrimSpace(player); p != "" {
		q.Set("player", p)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/history"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var resp chessdto.HistoryResponse
	if _, err := c.do(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) Game(ctx context.Context, id int64) (*chessdto.GameRecord, error) {
	var rec chessdto.GameRecord
	if _, err := c.do(ctx, fasthttp.MethodGet, "/api/records/"+strconv.FormatInt(id, 10), nil, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Profile(ctx context.Context, name string) (*chessdto.PlayerProfile, error) {
	var p chessdto.PlayerProfile
	if _, err := c.do(ctx, fasthttp.MethodGet, "/api/players/"+url.PathEscape(strings.TrimSpace(name)), nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) action(ctx context.Context, path string, in any) (*chessdto.ActionResponse, error) {
	var resp chessdto.ActionResponse
	if _, err := c.do(ctx, fasthttp.MethodPost, path, in, &resp, false); err != nil {
		return ActionOf(err), err
	}
	return &resp, nil
}

func gamePath(id, action string) string {
	p := "/api/games/" + url.PathEscape(strings.TrimSpace(id))
	if action != "" {
		p += "/" + action
	}
	return p
}

// do performs one request. Only idempotent calls are retried, and only on
// transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, method, path string, in any, out any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = decodeAPIError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
		} else {
			body := append([]byte(nil), resp.Body()...)
			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					return nil, fmt.Errorf("decode response: %w", err)
				}
			}
			return body, nil
		}

		if attempt == attempts {
			break
		}
		if err := c.sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return nil, lastErr
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var action chessdto.ActionResponse
	if err := json.Unmarshal(body, &action); err == nil && action.Error != nil {
		apiErr.DomainError = *action.Error
		if action.State != nil {
			apiErr.Action = &action
		}
		return apiErr
	}
	apiErr.DomainError = chessdto.DomainError{Code: chessdto.CodeInternal, Message: truncate(string(body), 512), Retryable: status >= 500}
	return apiErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
