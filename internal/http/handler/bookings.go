package handler

// bookings.go — /api/v1/bookings: сессия оплаты и список броней
import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"natours/internal/core"
	"natours/internal/payment"
	"natours/internal/storage"

	"github.com/go-sql-driver/mysql"
)

// плейсхолдер подставляет Stripe при редиректе после оплаты
const checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

func paymentError(err error) error {
	if errors.Is(err, payment.ErrNotConfigured) {
		return &core.AppError{Code: "unavailable", Status: http.StatusServiceUnavailable, Message: "Payments are not available right now", Err: err}
	}
	return &core.AppError{Code: "bad_gateway", Status: http.StatusBadGateway, Message: "Could not create checkout session", Err: err}
}

// CheckoutSession — GET /api/v1/bookings/checkout-session/{tourId}
func CheckoutSession(tours TourStore, payments payment.Provider, cfg core.Config) http.HandlerFunc {
	base := strings.TrimRight(cfg.Stripe.SuccessURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		tourID, err := idParam(r, "tourId")
		if err != nil {
			fail(w, r, err)
			return
		}
		t, err := tours.Get(r.Context(), tourID)
		if err != nil {
			fail(w, r, err)
			return
		}
		sess, err := payments.CreateCheckoutSession(r.Context(), payment.CheckoutRequest{
			TourID:        t.ID,
			TourName:      t.Name,
			TourSummary:   t.Summary,
			ImageURL:      base + "/img/tours/" + t.ImageCover,
			Price:         t.Price,
			UserID:        u.ID,
			CustomerEmail: u.Email,
			SuccessURL:    base + "/?session_id=" + checkoutSessionPlaceholder,
			CancelURL:     base + "/tour/" + t.Slug,
		})
		if err != nil {
			fail(w, r, paymentError(err))
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"session": map[string]string{"id": sess.ID, "url": sess.URL},
		})
	}
}

// ListBookings — GET /api/v1/bookings (admin, lead-guide)
func ListBookings(bookings BookingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := bookings.List(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		core.SuccessList(w, "bookings", items, len(items))
	}
}

// confirmBooking читает сессию у провайдера и, если она оплачена, сохраняет бронь.
// Повторный заход по той же ссылке не создаёт вторую бронь (session_id уникален).
func confirmBooking(ctx context.Context, payments payment.Provider, bookings BookingStore, sessionID string) error {
	sess, err := payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return paymentError(err)
	}
	if !sess.Paid() {
		return core.BadRequest("Payment was not completed", nil)
	}
	tourID, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return core.Internal("сессия без client_reference_id", err)
	}
	userID, err := strconv.ParseInt(sess.Metadata["user_id"], 10, 64)
	if err != nil {
		return core.Internal("сессия без user_id", err)
	}
	b := storage.Booking{
		TourID:    tourID,
		UserID:    userID,
		Price:     float64(sess.AmountTotal) / 100,
		Paid:      true,
		SessionID: sess.ID,
	}
	if err := bookings.Create(ctx, &b); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return nil
		}
		return err
	}
	core.LogInfo("Бронь создана", map[string]interface{}{"tour_id": tourID, "user_id": userID, "session": sess.ID})
	return nil
}
