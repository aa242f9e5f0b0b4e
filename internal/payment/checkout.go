package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytetech/academy-backend/internal/config"
)

// Client opens checkout sessions on the payment gateway.
type Client struct {
	httpClient  *http.Client
	secretKey   string
	checkoutURL string
	frontendURL string
}

// NewClient builds a gateway client from app config.
func NewClient(cfg config.Config) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		secretKey:   cfg.PaymentSecretKey,
		checkoutURL: cfg.PaymentCheckoutURL,
		frontendURL: cfg.FrontendURL,
	}
}

// CheckoutParams identifies what is being bought and by whom.  The user and
// course IDs travel as session metadata and come back on the webhook.
type CheckoutParams struct {
	UserID     uint64
	CourseID   uint64
	CourseName string
	// PriceCents is the amount charged, in the smallest currency unit.
	PriceCents int64
}

// CreateCheckoutSession opens a hosted checkout session and returns the URL
// the buyer is redirected to.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.frontendURL+"/purchase/success")
	form.Set("cancel_url", c.frontendURL+"/purchase/cancel")
	form.Set("metadata[user_id]", strconv.FormatUint(p.UserID, 10))
	form.Set("metadata[course_id]", strconv.FormatUint(p.CourseID, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "eur")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.PriceCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.CourseName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.checkoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkout session failed: status %d: %s", resp.StatusCode, body)
	}

	var session struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("decode checkout session: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session has no redirect url")
	}
	return session.URL, nil
}
