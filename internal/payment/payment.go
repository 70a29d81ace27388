// Package payment — создание и проверка платёжных сессий (Stripe Checkout).
package payment

//go:generate mockgen -source=payment.go -destination=../mock/payment_mock.go -package=mock

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("payment: провайдер не настроен")
	ErrProvider      = errors.New("payment: ошибка провайдера")
)

// CheckoutRequest — данные для сессии оплаты одного тура
type CheckoutRequest struct {
	TourID        int64
	TourName      string
	TourSummary   string
	ImageURL      string
	Price         float64 // USD
	UserID        int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session — одноразовый токен для редиректа на оплату
type Session struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	PaymentStatus     string            `json:"payment_status"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	AmountTotal       int64             `json:"amount_total"`
	Metadata          map[string]string `json:"metadata"`
}

// Paid — оплата прошла
func (s Session) Paid() bool { return s.PaymentStatus == "paid" }

// Provider — платёжный провайдер
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}
