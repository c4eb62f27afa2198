package yampi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Yampi (Dooki) API base URL; the store alias is appended.
	DefaultBaseURL = "https://api.dooki.com.br/v2"

	// MaxPageSize is the largest page the orders endpoint accepts.
	MaxPageSize = 100

	orderIncludes = "customer,status,items,transactions,shipping_address"
)

// ErrMissingCredentials is returned when alias, token or secret is empty.
var ErrMissingCredentials = errors.New("yampi credentials incomplete")

// Credentials identify one store.
type Credentials struct {
	Alias  string
	Token  string
	Secret string
}

// Complete reports whether all credential fields are set.
func (c Credentials) Complete() bool {
	return c.Alias != "" && c.Token != "" && c.Secret != ""
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yampi: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a minimal HTTP client for the Yampi store API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	loc        *time.Location
	debug      bool
}

// Option configures a Client.
type Option func(*Client)

// WithLocation sets the zone of order timestamps that arrive without one.
// The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewClient constructs a client for one store. A zero timeout means 30s.
func NewClient(baseURL string, creds Credentials, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		creds:      creds,
		loc:        time.UTC,
		debug:      os.Getenv("ENV") == "development",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OrderQuery filters GET /orders.
type OrderQuery struct {
	Page      int
	Limit     int
	StatusIDs []int
	// DateFrom and DateTo are YYYY-MM-DD bounds on created_at.
	DateFrom string
	DateTo   string
	Search   string
}

func (q OrderQuery) values() url.Values {
	v := url.Values{}
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	v.Set("include", orderIncludes)
	for i, id := range q.StatusIDs {
		v.Set(fmt.Sprintf("status_id[%d]", i), strconv.Itoa(id))
	}
	switch {
	case q.DateFrom != "" && q.DateTo != "":
		v.Set("date", fmt.Sprintf("created_at:%s|%s", q.DateFrom, q.DateTo))
	case q.DateFrom != "":
		v.Set("date", "created_at:"+q.DateFrom)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	return v
}

// ListOrders fetches one page of orders with all includes expanded. Orders
// that fail to decode are reported in Rejected instead of failing the page.
func (c *Client) ListOrders(ctx context.Context, q OrderQuery) (*OrdersResponse, error) {
	var resp OrdersResponse
	if err := c.doRequest(ctx, "/orders", q.values(), &resp); err != nil {
		return nil, err
	}
	resp.SetLocation(c.loc)
	return &resp, nil
}

// GetOrder fetches a single order by its Yampi id.
func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var resp Include[Order]
	params := url.Values{"include": {orderIncludes}}
	if err := c.doRequest(ctx, "/orders/"+strconv.FormatInt(id, 10), params, &resp); err != nil {
		return nil, err
	}
	resp.Data.SetLocation(c.loc)
	return &resp.Data, nil
}

// ListStatuses returns the order statuses configured in the checkout.
func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var resp StatusesResponse
	if err := c.doRequest(ctx, "/checkout/statuses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CountProducts returns the catalog size, used to check that the credentials work.
func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var resp struct {
		Meta Meta `json:"meta"`
	}
	if err := c.doRequest(ctx, "/catalog/products", url.Values{"limit": {"1"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Meta.Pagination.Total, nil
}

// doRequest performs an authenticated GET and decodes the JSON response into result.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if !c.creds.Complete() {
		return ErrMissingCredentials
	}

	target := c.baseURL + "/" + url.PathEscape(c.creds.Alias) + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Token", c.creds.Token)
	req.Header.Set("User-Secret-Key", c.creds.Secret)

	if c.debug {
		log.Debug().Str("url", target).Msg("[YAMPI] Outgoing request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Int("bytes", len(respBody)).
			Msg("[YAMPI] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := string(respBody)
		if len(body) > 512 {
			body = body[:512]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
