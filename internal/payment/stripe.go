package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"natours/internal/core"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// StripeClient ходит в Stripe API через resty; исходящие запросы ограничены rate.Limiter
type StripeClient struct {
	client     *resty.Client
	configured bool
}

func NewStripeClient(cfg core.Stripe) *StripeClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		client.SetRateLimiter(rate.NewLimiter(rate.Limit(cfg.RPS), burst))
	}
	return &StripeClient{client: client, configured: cfg.SecretKey != ""}
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession — POST /v1/checkout/sessions (form-encoded).
// Каждый вызов получает свой Idempotency-Key.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out Session
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormDataFromValues(checkoutForm(req)).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	if err := mapStripeError(resp); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCheckoutSession — GET /v1/checkout/sessions/{id}
func (c *StripeClient) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out Session
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/v1/checkout/sessions/{id}")
	if err != nil {
		return nil, fmt.Errorf("stripe get session: %w", err)
	}
	if err := mapStripeError(resp); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkoutForm(req CheckoutRequest) url.Values {
	f := url.Values{}
	f.Set("mode", "payment")
	f.Set("payment_method_types[0]", "card")
	f.Set("success_url", req.SuccessURL)
	f.Set("cancel_url", req.CancelURL)
	f.Set("client_reference_id", strconv.FormatInt(req.TourID, 10))
	f.Set("metadata[user_id]", strconv.FormatInt(req.UserID, 10))
	if req.CustomerEmail != "" {
		f.Set("customer_email", req.CustomerEmail)
	}
	f.Set("line_items[0][quantity]", "1")
	f.Set("line_items[0][price_data][currency]", "usd")
	f.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(math.Round(req.Price*100)), 10))
	f.Set("line_items[0][price_data][product_data][name]", req.TourName+" Tour")
	if req.TourSummary != "" {
		f.Set("line_items[0][price_data][product_data][description]", req.TourSummary)
	}
	if req.ImageURL != "" {
		f.Set("line_items[0][price_data][product_data][images][0]", req.ImageURL)
	}
	return f
}

func mapStripeError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	var se stripeError
	msg := strings.TrimSpace(string(resp.Body()))
	if err := json.Unmarshal(resp.Body(), &se); err == nil && se.Error.Message != "" {
		msg = se.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("%w: http %d: %s", ErrProvider, resp.StatusCode(), msg)
}
