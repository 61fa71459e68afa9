package sslcommerz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/babulakterfsd/gizmobuy-backend/internal/gateway"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/httpclient"
)

// Config holds SSLCommerz connection settings.
type Config struct {
	// BaseURL is the session-initiation endpoint of the gateway sandbox
	// or live environment.
	BaseURL  string
	StoreID  string
	StorePwd string
	// Timeout bounds the synchronous initiation call. The gateway is
	// never retried; a timeout surfaces to the caller as a failure.
	Timeout time.Duration
}

// poster is the transport seam: satisfied by both the plain retrying client
// and its circuit-breaker wrapper.
type poster interface {
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
}

// Client talks to the SSLCommerz hosted-checkout API. Requests are
// form-encoded per the gateway's v4 session API.
type Client struct {
	cfg  Config
	http poster
}

// New creates a new SSLCommerz client. Retries are disabled deliberately:
// replaying an initiation could open two payment sessions for one order.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: httpclient.New(httpclient.Config{
			Timeout:         cfg.Timeout,
			MaxRetries:      0,
			MaxConnsPerHost: 10,
		}),
	}
}

// NewWithBreaker wraps the transport in a circuit breaker so a gateway outage
// fails checkouts fast instead of holding every request open for the full
// timeout. Individual requests are still never retried.
func NewWithBreaker(cfg Config, logger *slog.Logger) *Client {
	c := New(cfg)
	base := c.http.(*httpclient.Client)
	c.http = httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("sslcommerz"), logger)
	return c
}

// Name returns the gateway name.
func (c *Client) Name() string { return "sslcommerz" }

// sessionResponse is the subset of the gateway's initiation response we use.
type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// InitiateSession opens a hosted-checkout session and returns the page URL.
func (c *Client) InitiateSession(ctx context.Context, input *gateway.InitiateInput) (*gateway.Session, error) {
	form := c.buildForm(input)

	resp, err := c.http.Post(ctx, c.cfg.BaseURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sslcommerz initiation request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, "sslcommerz")
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode sslcommerz response: %w", err)
	}

	if !strings.EqualFold(session.Status, "SUCCESS") || session.GatewayPageURL == "" {
		reason := session.FailedReason
		if reason == "" {
			reason = "no gateway page URL in response"
		}
		return nil, fmt.Errorf("sslcommerz session rejected: %s", reason)
	}

	return &gateway.Session{RedirectURL: session.GatewayPageURL}, nil
}

// buildForm maps the order onto the gateway's field names. Customer and
// shipping fields share the same snapshot because the store ships to the
// purchaser.
func (c *Client) buildForm(input *gateway.InitiateInput) url.Values {
	o := input.Order

	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePwd)
	form.Set("total_amount", strconv.FormatFloat(input.Amount, 'f', 2, 64))
	form.Set("currency", input.Currency)
	form.Set("tran_id", input.TranID)
	form.Set("success_url", input.SuccessURL)
	form.Set("fail_url", input.FailURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("shipping_method", "Courier")
	form.Set("product_name", "gizmobuy gadgets")
	form.Set("product_category", "Electronic")
	form.Set("product_profile", "general")
	form.Set("cus_name", o.CustomerName)
	form.Set("cus_email", o.OrderBy)
	form.Set("cus_add1", o.ShippingInfo.Address)
	form.Set("cus_city", o.ShippingInfo.City)
	form.Set("cus_state", o.ShippingInfo.State)
	form.Set("cus_postcode", o.ShippingInfo.PostalCode)
	form.Set("cus_country", o.ShippingInfo.Country)
	form.Set("cus_phone", o.ShippingInfo.Mobile)
	form.Set("ship_name", o.CustomerName)
	form.Set("ship_add1", o.ShippingInfo.Address)
	form.Set("ship_city", o.ShippingInfo.City)
	form.Set("ship_state", o.ShippingInfo.State)
	form.Set("ship_postcode", o.ShippingInfo.PostalCode)
	form.Set("ship_country", o.ShippingInfo.Country)
	return form
}
