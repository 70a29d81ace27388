package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"natours/internal/core"
	"natours/internal/mock"
	"natours/internal/payment"
	"natours/internal/storage"
	"natours/internal/view"
	"natours/internal/widget/mapview"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

var testCfg = core.Config{
	Env: core.EnvProduction,
	JWT: core.JWT{
		Secret:        "test-secret-test-secret-test-secret",
		ExpiresIn:     time.Hour,
		CookieExpires: time.Hour,
	},
	Stripe: core.Stripe{SuccessURL: "http://127.0.0.1:3000/"},
}

var (
	forestHiker = storage.Tour{
		ID: 1, Name: "The Forest Hiker", Slug: "the-forest-hiker", Duration: 5, MaxGroupSize: 25,
		Difficulty: "easy", Price: 397, Summary: "Breathtaking hike", ImageCover: "tour-1-cover.jpg",
		Locations: storage.Locations{
			{Type: "Point", Coordinates: [2]float64{-116.2, 51.4}, Description: "Banff", Day: 1},
			{Type: "Point", Coordinates: [2]float64{-118.0, 52.9}, Description: "Jasper", Day: 3},
		},
	}
	alice = storage.User{ID: 7, Name: "Alice", Email: "alice@example.io", Role: storage.RoleUser, Photo: "default.jpg", Active: true}
	admin = storage.User{ID: 1, Name: "Admin", Email: "admin@example.io", Role: storage.RoleAdmin, Photo: "default.jpg", Active: true}
)

func TestErrorSink_Conversions(t *testing.T) {
	verr := validate.Struct(signupInput{})
	require.Error(t, verr)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"no rows", sql.ErrNoRows, http.StatusNotFound, "No document found with that ID"},
		{"duplicate", duplicate("alice@example.io", "users.email"), http.StatusBadRequest,
			"Duplicate field value: alice@example.io. Please use another value!"},
		{"validation", verr, http.StatusBadRequest, "Invalid input data."},
		{"expired token", core.ErrTokenExpired, http.StatusUnauthorized, "Your token has expired! Please log in again."},
		{"programming error", errors.New("nil map"), http.StatusInternalServerError, "Something went very wrong!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewErrorSink(false, nil).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := jsonBody(t, rec)
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "error")
		})
	}
}

func TestErrorSink_ValidationFieldsUseJSONNames(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorSink(false, nil).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", nil),
		validate.Struct(signupInput{Name: "A", Email: "not-an-email", Password: "12345678", PasswordConfirm: "87654321"}))

	body := jsonBody(t, rec)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, map[string]any{
		"email":           "must be a valid email",
		"passwordConfirm": "must match Password",
	}, body["errors"])
}

func TestErrorSink_DevelopmentAddsDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorSink(true, nil).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil), errors.New("nil map"))

	body := jsonBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "внутренняя ошибка", body["message"])
	assert.Contains(t, body["error"], "nil map")
}

func TestErrorSink_RendersErrorPageForViews(t *testing.T) {
	views, err := view.New("../../../web/templates", view.Globals{AppName: "natours"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewErrorSink(false, views).Handle(rec, httptest.NewRequest(http.MethodGet, "/tour/nope", nil),
		core.NotFound("There is no tour with that name."))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "There is no tour with that name.")

	rec = httptest.NewRecorder()
	NewErrorSink(false, views).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please try again later.")
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestParseTourQuery(t *testing.T) {
	q, err := parseTourQuery(url.Values{
		"difficulty":   {"easy", "medium"},
		"price[lt]":    {"1000"},
		"duration[xx]": {"5"},
		"secret":       {"1"},
		"sort":         {"-price, name"},
		"page":         {"2"},
		"limit":        {"10"},
	})
	require.NoError(t, err)
	assert.Equal(t, []storage.Filter{
		{Field: "difficulty", Op: "eq", Values: []string{"easy", "medium"}},
		{Field: "price", Op: "lt", Values: []string{"1000"}},
	}, q.Filters)
	assert.Equal(t, []string{"-price", "name"}, q.Sort)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.Limit)

	_, err = parseTourQuery(url.Values{"page": {"0"}})
	require.Error(t, err)
	_, err = parseTourQuery(url.Values{"limit": {"ten"}})
	require.Error(t, err)
}

func tourRoutes(tours *fakeTours) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/api/v1/tours", ListTours(tours))
		r.Post("/api/v1/tours", CreateTour(tours))
		r.Get("/api/v1/tours/{id}", GetTour(tours))
		r.Patch("/api/v1/tours/{id}", UpdateTour(tours))
		r.Delete("/api/v1/tours/{id}", DeleteTour(tours))
	}
}

func TestListTours(t *testing.T) {
	tours := newFakeTours(forestHiker)
	h := serve(nil, tourRoutes(tours))

	rec := do(h, http.MethodGet, "/api/v1/tours?difficulty=easy&sort=price", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := jsonBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 1, body["results"])
	assert.Equal(t, []storage.Filter{{Field: "difficulty", Op: "eq", Values: []string{"easy"}}}, tours.lastQuery.Filters)
	assert.Equal(t, []string{"price"}, tours.lastQuery.Sort)
}

func TestGetTour(t *testing.T) {
	h := serve(nil, tourRoutes(newFakeTours(forestHiker)))

	rec := do(h, http.MethodGet, "/api/v1/tours/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tour := jsonBody(t, rec)["data"].(map[string]any)["tour"].(map[string]any)
	assert.Equal(t, "The Forest Hiker", tour["name"])

	rec = do(h, http.MethodGet, "/api/v1/tours/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No document found with that ID", jsonBody(t, rec)["message"])

	rec = do(h, http.MethodGet, "/api/v1/tours/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTour(t *testing.T) {
	tours := newFakeTours()
	h := serve(&admin, tourRoutes(tours))

	rec := do(h, http.MethodPost, "/api/v1/tours", `{"name":"Short","duration":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := jsonBody(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "difficulty")

	rec = do(h, http.MethodPost, "/api/v1/tours", `{"name":"The Sea Explorer","duration":7,"maxGroupSize":15,
		"difficulty":"medium","price":497,"priceDiscount":600,"summary":"x","imageCover":"c.jpg"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, jsonBody(t, rec)["errors"], "priceDiscount")

	rec = do(h, http.MethodPost, "/api/v1/tours", `{"name":"The Sea Explorer","duration":7,"maxGroupSize":15,
		"difficulty":"medium","price":497,"summary":" Exploring the sea ","imageCover":"c.jpg",
		"locations":[{"type":"Point","coordinates":[-80.1,25.7],"description":"Miami","day":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created, err := tours.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "the-sea-explorer", created.Slug)
	assert.Equal(t, "Exploring the sea", created.Summary)
	assert.Equal(t, 4.5, created.RatingsAverage)
	require.Len(t, created.Locations, 1)
	assert.Equal(t, "Miami", created.Locations[0].Description)

	rec = do(h, http.MethodPost, "/api/v1/tours", `{"name":"The Sea Explorer","duration":7,"maxGroupSize":15,
		"difficulty":"medium","price":497,"summary":"x","imageCover":"c.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duplicate field value: The Sea Explorer. Please use another value!", jsonBody(t, rec)["message"])
}

func TestUpdateTour(t *testing.T) {
	tours := newFakeTours(forestHiker)
	h := serve(&admin, tourRoutes(tours))

	rec := do(h, http.MethodPatch, "/api/v1/tours/1", `{"difficulty":"impossible"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPatch, "/api/v1/tours/1", `{"difficulty":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPatch, "/api/v1/tours/1", `{"name":"The Forest Walker","price":420}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"name": "The Forest Walker", "price": float64(420)}, tours.lastFields)
	tour := jsonBody(t, rec)["data"].(map[string]any)["tour"].(map[string]any)
	assert.Equal(t, "the-forest-walker", tour["slug"])
}

func TestUpdateTour_RejectsWrongTypes(t *testing.T) {
	tours := newFakeTours(forestHiker)
	h := serve(&admin, tourRoutes(tours))

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"nested object", `{"price":{"a":1}}`, "price", "is invalid"},
		{"array", `{"name":["a","b"]}`, "name", "is invalid"},
		{"unknown nested", `{"extra":{"b":2}}`, "extra", "is invalid"},
		{"boolean", `{"summary":true}`, "summary", "is invalid"},
		{"string for number", `{"duration":"7"}`, "duration", "must be a number"},
		{"number for string", `{"name":42}`, "name", "must be a string"},
		{"null name", `{"name":null}`, "name", "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tours.lastFields = nil
			rec := do(h, http.MethodPatch, "/api/v1/tours/1", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := jsonBody(t, rec)
			assert.Equal(t, "Invalid input data.", body["message"])
			assert.Equal(t, tt.msg, body["errors"].(map[string]any)[tt.field])
			assert.Nil(t, tours.lastFields)
		})
	}

	// обнуляемое поле и неизвестный скаляр проходят
	rec := do(h, http.MethodPatch, "/api/v1/tours/1", `{"priceDiscount":null,"extra":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestDeleteTour(t *testing.T) {
	h := serve(&admin, tourRoutes(newFakeTours(forestHiker)))

	rec := do(h, http.MethodDelete, "/api/v1/tours/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(h, http.MethodDelete, "/api/v1/tours/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func userRoutes(users *fakeUsers) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/api/v1/users/signup", Signup(users, testCfg))
		r.Post("/api/v1/users/login", Login(users, testCfg))
		r.Get("/api/v1/users/logout", Logout(testCfg))
		r.Get("/api/v1/users/me", Me())
		r.Get("/api/v1/users", ListUsers(users))
		r.Get("/api/v1/users/{id}", GetUser(users))
	}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupAndLogin(t *testing.T) {
	users := newFakeUsers()
	h := serve(nil, userRoutes(users))

	rec := do(h, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Bob","email":"Bob@Example.io","password":"pass1234","passwordConfirm":"pass1234","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := jsonBody(t, rec)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "bob@example.io", user["email"])
	assert.Equal(t, storage.RoleUser, user["role"])
	assert.NotContains(t, user, "passwordHash")

	id, _, err := core.ParseToken(testCfg.JWT, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], float64(id))

	c := cookieByName(rec, core.TokenCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, body["token"], c.Value)

	rec = do(h, http.MethodPost, "/api/v1/users/login", `{"email":"bob@example.io","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", jsonBody(t, rec)["message"])

	rec = do(h, http.MethodPost, "/api/v1/users/login", `{"email":"nobody@example.io","password":"pass1234"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/users/login", `{"email":"bob@example.io"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide email and password!", jsonBody(t, rec)["message"])

	rec = do(h, http.MethodPost, "/api/v1/users/login", `{"email":"bob@example.io","password":"pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, jsonBody(t, rec)["token"])
}

func TestSignup_Validation(t *testing.T) {
	h := serve(nil, userRoutes(newFakeUsers()))

	rec := do(h, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Bob","email":"bob@example.io","password":"pass1234","passwordConfirm":"pass9999"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input data.", jsonBody(t, rec)["message"])
}

func TestLogout(t *testing.T) {
	h := serve(nil, userRoutes(newFakeUsers()))

	rec := do(h, http.MethodGet, "/api/v1/users/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := cookieByName(rec, core.TokenCookie)
	require.NotNil(t, c)
	assert.Equal(t, "loggedout", c.Value)
	assert.WithinDuration(t, time.Now().Add(10*time.Second), c.Expires, 2*time.Second)
}

func TestMe(t *testing.T) {
	rec := do(serve(&alice, userRoutes(newFakeUsers(alice))), http.MethodGet, "/api/v1/users/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", jsonBody(t, rec)["data"].(map[string]any)["user"].(map[string]any)["name"])

	rec = do(serve(nil, userRoutes(newFakeUsers())), http.MethodGet, "/api/v1/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAndGetUsers(t *testing.T) {
	h := serve(&admin, userRoutes(newFakeUsers(admin, alice)))

	rec := do(h, http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, jsonBody(t, rec)["results"])

	rec = do(h, http.MethodGet, "/api/v1/users/7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/users/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func reviewRoutes(reviews *fakeReviews, tours *fakeTours) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/api/v1/reviews", ListReviews(reviews))
		r.Get("/api/v1/reviews/{id}", GetReview(reviews))
		r.Post("/api/v1/reviews", CreateReview(reviews, tours))
		r.Delete("/api/v1/reviews/{id}", DeleteReview(reviews))
		r.Get("/api/v1/tours/{tourId}/reviews", ListReviews(reviews))
		r.Post("/api/v1/tours/{tourId}/reviews", CreateReview(reviews, tours))
	}
}

func TestCreateReview_NestedRouteSetsTourAndAuthor(t *testing.T) {
	reviews := newFakeReviews()
	h := serve(&alice, reviewRoutes(reviews, newFakeTours(forestHiker)))

	rec := do(h, http.MethodPost, "/api/v1/tours/1/reviews", `{"review":"Loved it","rating":5,"user":99}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rv, err := reviews.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rv.TourID)
	assert.Equal(t, alice.ID, rv.UserID)

	rec = do(h, http.MethodPost, "/api/v1/tours/1/reviews", `{"review":"Again","rating":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/tours/1/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, jsonBody(t, rec)["results"])
}

func TestCreateReview_Errors(t *testing.T) {
	h := serve(&alice, reviewRoutes(newFakeReviews(), newFakeTours(forestHiker)))

	rec := do(h, http.MethodPost, "/api/v1/reviews", `{"review":"No tour","rating":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/reviews", `{"review":"Missing","rating":5,"tour":42}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/reviews", `{"review":"Bad","rating":9,"tour":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, jsonBody(t, rec)["errors"], "rating")
}

func TestDeleteReview_OnlyAuthorOrAdmin(t *testing.T) {
	reviews := newFakeReviews(storage.Review{ID: 3, Review: "Nice", Rating: 4, TourID: 1, UserID: 8})

	rec := do(serve(&alice, reviewRoutes(reviews, newFakeTours())), http.MethodDelete, "/api/v1/reviews/3", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action", jsonBody(t, rec)["message"])

	rec = do(serve(&admin, reviewRoutes(reviews, newFakeTours())), http.MethodDelete, "/api/v1/reviews/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCheckoutSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().
		CreateCheckoutSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
			assert.Equal(t, int64(1), req.TourID)
			assert.Equal(t, alice.ID, req.UserID)
			assert.Equal(t, alice.Email, req.CustomerEmail)
			assert.Equal(t, 397.0, req.Price)
			assert.Equal(t, "http://127.0.0.1:3000/?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
			assert.Equal(t, "http://127.0.0.1:3000/tour/the-forest-hiker", req.CancelURL)
			assert.Equal(t, "http://127.0.0.1:3000/img/tours/tour-1-cover.jpg", req.ImageURL)
			return &payment.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
		})

	h := serve(&alice, func(r chi.Router) {
		r.Get("/api/v1/bookings/checkout-session/{tourId}", CheckoutSession(newFakeTours(forestHiker), provider, testCfg))
	})
	rec := do(h, http.MethodGet, "/api/v1/bookings/checkout-session/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := jsonBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, map[string]any{"id": "cs_test_1", "url": "https://checkout.stripe.com/c/pay/cs_test_1"}, body["session"])
}

func TestCheckoutSession_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).Return(nil, payment.ErrNotConfigured)

	h := serve(&alice, func(r chi.Router) {
		r.Get("/api/v1/bookings/checkout-session/{tourId}", CheckoutSession(newFakeTours(forestHiker), provider, testCfg))
	})

	rec := do(h, http.MethodGet, "/api/v1/bookings/checkout-session/1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// тур не найден, до провайдера дело не доходит
	rec = do(h, http.MethodGet, "/api/v1/bookings/checkout-session/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverview_ConfirmsPaidSessionOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	paid := &payment.Session{
		ID: "cs_test_1", PaymentStatus: "paid", ClientReferenceID: "1",
		AmountTotal: 39700, Metadata: map[string]string{"user_id": "7"},
	}
	provider.EXPECT().GetCheckoutSession(gomock.Any(), "cs_test_1").Return(paid, nil).Times(2)

	bookings := &fakeBookings{}
	h := serve(&alice, func(r chi.Router) {
		r.Get("/", Overview(newFakeTours(forestHiker), provider, bookings, nil))
	})

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodGet, "/?session_id=cs_test_1", "")
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}

	require.Len(t, bookings.items, 1)
	b := bookings.items[0]
	assert.Equal(t, int64(1), b.TourID)
	assert.Equal(t, int64(7), b.UserID)
	assert.Equal(t, 397.0, b.Price)
	assert.True(t, b.Paid)
}

func TestOverview_UnpaidSessionIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().GetCheckoutSession(gomock.Any(), "cs_open").
		Return(&payment.Session{ID: "cs_open", PaymentStatus: "unpaid"}, nil)

	bookings := &fakeBookings{}
	h := serve(&alice, func(r chi.Router) {
		r.Get("/", Overview(newFakeTours(), provider, bookings, nil))
	})

	rec := do(h, http.MethodGet, "/?session_id=cs_open", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bookings.items)
}

func TestNotFound_Message(t *testing.T) {
	h := serve(nil, func(chi.Router) {})

	rec := do(h, http.MethodGet, "/api/v1/nope?x=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Can't find /api/v1/nope?x=1 on this server", jsonBody(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(pingerFunc(func(context.Context) error { return nil }))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Ready(pingerFunc(func(context.Context) error { return errors.New("down") }))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func testViews(t *testing.T) *view.Templates {
	t.Helper()
	views, err := view.New("../../../web/templates", view.Globals{AppName: "natours"})
	require.NoError(t, err)
	return views
}

func TestTourPage(t *testing.T) {
	reviews := newFakeReviews(storage.Review{ID: 1, Review: "Unforgettable", Rating: 5, TourID: 1, UserID: 7, UserName: "Alice"})
	h := serve(nil, func(r chi.Router) {
		r.Get("/tour/{slug}", TourPage(newFakeTours(forestHiker), reviews, testViews(t), mapview.Options{Container: "map"}))
	})

	rec := do(h, http.MethodGet, "/tour/the-forest-hiker", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `id="map"`)
	assert.Contains(t, body, "Jasper")
	assert.Contains(t, body, "Unforgettable")

	rec = do(h, http.MethodGet, "/tour/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "There is no tour with that name.", jsonBody(t, rec)["message"])
}

func TestSubmitUserData(t *testing.T) {
	users := newFakeUsers(alice)
	me, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	h := serve(me, func(r chi.Router) {
		r.Post("/submit-user-data", SubmitUserData(users, testViews(t)))
	})

	rec := do(h, http.MethodPost, "/submit-user-data", `{"name":"Alice","email":"broken"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a valid email")

	rec = do(h, http.MethodPost, "/submit-user-data", `{"name":" Alice Liddell ","email":"Alice@Wonder.land"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Alice Liddell")

	saved, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@wonder.land", saved.Email)
}
