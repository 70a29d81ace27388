// Package checkout — бронирование тура: получить сессию оплаты у API и
// передать её платёжному редиректу. Ошибки не пробрасываются наружу,
// пользователь видит их как сообщение.
package checkout

//go:generate mockgen -source=checkout.go -destination=../../mock/checkout_mock.go -package=mock

import (
	"context"
	"fmt"
)

// Session — сессия оплаты, выданная API
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// SessionFetcher запрашивает сессию оплаты для тура
type SessionFetcher interface {
	FetchSession(ctx context.Context, tourID string) (Session, error)
}

// Redirector передаёт сессию платёжной странице
type Redirector interface {
	RedirectToCheckout(ctx context.Context, session Session) error
}

// Alerter показывает сообщение пользователю
type Alerter interface {
	Alert(kind, message string)
}

const AlertError = "error"

type Widget struct {
	fetcher    SessionFetcher
	redirector Redirector
	alerter    Alerter
}

func New(fetcher SessionFetcher, redirector Redirector, alerter Alerter) *Widget {
	return &Widget{fetcher: fetcher, redirector: redirector, alerter: alerter}
}

// BookTour — запросить сессию и уйти на оплату. При ошибке запроса
// редирект не выполняется, показывается сообщение.
func (w *Widget) BookTour(ctx context.Context, tourID string) {
	session, err := w.fetcher.FetchSession(ctx, tourID)
	if err != nil {
		w.alerter.Alert(AlertError, err.Error())
		return
	}
	if session.ID == "" {
		w.alerter.Alert(AlertError, "checkout session has no id")
		return
	}
	if err := w.redirector.RedirectToCheckout(ctx, session); err != nil {
		w.alerter.Alert(AlertError, fmt.Sprintf("redirect to checkout: %v", err))
	}
}
