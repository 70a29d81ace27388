package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionClient — SessionFetcher поверх API бронирований
type SessionClient struct {
	client *resty.Client
}

// NewSessionClient — baseURL API (http://127.0.0.1:3000), token — JWT пользователя
func NewSessionClient(baseURL, token string, timeout time.Duration) *SessionClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &SessionClient{client: c}
}

type sessionResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Session Session `json:"session"`
}

func (c *SessionClient) FetchSession(ctx context.Context, tourID string) (Session, error) {
	var out sessionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetPathParam("tourId", tourID).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Get("/api/v1/bookings/checkout-session/{tourId}")
	if err != nil {
		return Session{}, fmt.Errorf("checkout session request: %w", err)
	}
	if resp.IsError() {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return Session{}, fmt.Errorf("checkout session: %s", msg)
	}
	return out.Session, nil
}

// URLRedirector — «редирект» для терминала: печатает адрес страницы оплаты
type URLRedirector struct {
	Out io.Writer
}

func (r URLRedirector) RedirectToCheckout(_ context.Context, s Session) error {
	if s.URL == "" {
		return fmt.Errorf("session %s has no checkout url", s.ID)
	}
	_, err := fmt.Fprintf(r.Out, "Open to pay: %s\n", s.URL)
	return err
}

// LogAlerter пишет сообщения в zerolog
type LogAlerter struct {
	Log zerolog.Logger
}

func (a LogAlerter) Alert(kind, message string) {
	ev := a.Log.Info()
	if kind == AlertError {
		ev = a.Log.Error()
	}
	ev.Str("kind", kind).Msg(message)
}
