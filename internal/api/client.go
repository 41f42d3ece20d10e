package api

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

	"github.com/maks2008271/supercell-shop/internal/domain"
)

// Default HTTP timeout for catalog and order interactions.
const defaultTimeout = 8 * time.Second

// InitDataHeader carries the host session payload used to authorise purchases.
const InitDataHeader = "X-Telegram-Init-Data"

// ErrBaseURLRequired is returned when the client is constructed without a
// backend address.
var ErrBaseURLRequired = errors.New("api: base url is required")

// Client issues catalog, profile, search and purchase calls against the shop
// backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// NewClient constructs an API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Products fetches the entire catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.getJSON(ctx, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductsByGame fetches the catalog scoped to a single game.
func (c *Client) ProductsByGame(ctx context.Context, game string) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("game", strings.TrimSpace(game))
	var out []domain.Product
	if err := c.getJSON(ctx, "/api/products", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product fetches a single product by identifier.
func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	var out domain.Product
	if err := c.getJSON(ctx, "/api/product/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// User fetches the profile for the given user identifier.
func (c *Client) User(ctx context.Context, userID int64) (domain.UserProfile, error) {
	var out domain.UserProfile
	if err := c.getJSON(ctx, "/api/user/"+strconv.FormatInt(userID, 10), nil, &out); err != nil {
		return domain.UserProfile{}, err
	}
	return out, nil
}

// UserOrders fetches the order history for the given user, newest first.
func (c *Client) UserOrders(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.Order
	if err := c.getJSON(ctx, "/api/user/"+strconv.FormatInt(userID, 10)+"/orders", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs the server-side product search for the given query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	var out []domain.Product
	if err := c.getJSON(ctx, "/api/search", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductImageURL resolves the image endpoint for a remote file identifier.
func (c *Client) ProductImageURL(fileID string) string {
	return c.baseURL + "/api/product-image/" + url.PathEscape(fileID)
}

// PurchaseRequest carries the order creation payload. InitData is the host
// session token forwarded in the auth header; the server rejects requests
// without a valid one.
type PurchaseRequest struct {
	UserID      int64
	ProductID   int64
	SupercellID string
	InitData    string
}

// PurchaseResult mirrors the backend payload for a created order.
type PurchaseResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	OrderID    int64  `json:"order_id,omitempty"`
	PickupCode string `json:"pickup_code,omitempty"`
}

// Purchase submits an order. A non-2xx response or success=false carries the
// server's human-readable reason in the returned error or result message.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	body, err := json.Marshal(map[string]any{
		"user_id":      req.UserID,
		"product_id":   req.ProductID,
		"supercell_id": strings.TrimSpace(req.SupercellID),
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/purchase", bytes.NewReader(body))
	if err != nil {
		return PurchaseResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.InitData != "" {
		httpReq.Header.Set(InitDataHeader, req.InitData)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return PurchaseResult{}, &RequestError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return PurchaseResult{}, decodeError(resp)
	}

	var result PurchaseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PurchaseResult{}, &RequestError{cause: err}
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{cause: err}
	}
	return nil
}

// errorEnvelope matches both error shapes the backend emits.
type errorEnvelope struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env errorEnvelope
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Detail != "" {
			msg = env.Detail
		} else {
			msg = env.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
		if len(msg) > 256 {
			msg = msg[:256]
		}
	}
	return &RequestError{Status: resp.StatusCode, Message: msg}
}
