package httpx

import (
	"net/http"

	"natours/internal/core"
	"natours/internal/http/handler"
	mw "natours/internal/http/middleware"
	"natours/internal/payment"
	"natours/internal/pipeline"
	"natours/internal/storage"
	"natours/internal/view"
	"natours/internal/widget/mapview"

	"github.com/go-chi/chi/v5"
)

// Deps — всё, что нужно маршрутам
type Deps struct {
	Config   core.Config
	CSRFKey  []byte // 32 байта
	Tours    handler.TourStore
	Users    handler.UserStore
	Reviews  handler.ReviewStore
	Bookings handler.BookingStore
	Payments payment.Provider
	Views    *view.Templates
	XSS      *pipeline.XSSSanitizer
	DB       handler.Pinger // nil — без /readyz
	Map      mapview.Options
}

// NewRouter — маршрутизатор после цепочки pipeline: страницы на "/" и четыре ресурса API.
// Всё несопоставленное уходит в ErrorSink как 404.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.NotFound)
	mw.UseCommon(r, cfg.RequestTimeout)

	protect := mw.Protect(cfg.JWT, d.Users)
	params := pipeline.SanitizeParams(d.XSS)

	// health
	r.Get("/healthz", handler.Health)
	if d.DB != nil {
		r.Get("/readyz", handler.Ready(d.DB))
	}

	// страницы
	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(d.CSRFKey, cfg.Secure))

		r.Group(func(r chi.Router) {
			r.Use(mw.IsLoggedIn(cfg.JWT, d.Users))
			r.Get("/", handler.Overview(d.Tours, d.Payments, d.Bookings, d.Views))
			r.With(params).Get("/tour/{slug}", handler.TourPage(d.Tours, d.Reviews, d.Views, d.Map))
			r.Get("/login", handler.LoginPage(d.Views))
		})

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Get("/me", handler.Account(d.Views))
			r.Get("/my-tours", handler.MyTours(d.Tours, d.Views))
			r.Post("/submit-user-data", handler.SubmitUserData(d.Users, d.Views))
		})
	})

	r.Route("/api/v1/tours", func(r chi.Router) {
		r.Get("/", handler.ListTours(d.Tours))
		r.With(params).Get("/{id}", handler.GetTour(d.Tours))
		r.With(params).Get("/{tourId}/reviews", handler.ListReviews(d.Reviews))
		r.With(params, protect, mw.RestrictTo(storage.RoleUser)).
			Post("/{tourId}/reviews", handler.CreateReview(d.Reviews, d.Tours))

		r.Group(func(r chi.Router) {
			r.Use(protect, mw.RestrictTo(storage.RoleAdmin, storage.RoleLeadGuide))
			r.Post("/", handler.CreateTour(d.Tours))
			r.With(params).Patch("/{id}", handler.UpdateTour(d.Tours))
			r.With(params).Delete("/{id}", handler.DeleteTour(d.Tours))
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/signup", handler.Signup(d.Users, cfg))
		r.Post("/login", handler.Login(d.Users, cfg))
		r.Get("/logout", handler.Logout(cfg))

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Get("/me", handler.Me())
			r.Group(func(r chi.Router) {
				r.Use(mw.RestrictTo(storage.RoleAdmin))
				r.Get("/", handler.ListUsers(d.Users))
				r.With(params).Get("/{id}", handler.GetUser(d.Users))
			})
		})
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", handler.ListReviews(d.Reviews))
		r.With(params).Get("/{id}", handler.GetReview(d.Reviews))
		r.With(protect, mw.RestrictTo(storage.RoleUser)).Post("/", handler.CreateReview(d.Reviews, d.Tours))
		r.With(params, protect, mw.RestrictTo(storage.RoleUser, storage.RoleAdmin)).
			Delete("/{id}", handler.DeleteReview(d.Reviews))
	})

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.With(params, protect).Get("/checkout-session/{tourId}", handler.CheckoutSession(d.Tours, d.Payments, cfg))
		r.With(protect, mw.RestrictTo(storage.RoleAdmin, storage.RoleLeadGuide)).Get("/", handler.ListBookings(d.Bookings))
	})

	return r
}
