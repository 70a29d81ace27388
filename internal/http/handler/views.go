package handler

// views.go — страницы сайта (html/template)
import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"natours/internal/core"
	"natours/internal/payment"
	"natours/internal/pipeline"
	"natours/internal/storage"
	"natours/internal/view"
	"natours/internal/widget/mapview"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type overviewPage struct {
	Tours []storage.Tour
}

type tourPage struct {
	Tour    *storage.Tour
	Reviews []storage.Review
	MapPlan string // JSON для бандла карты
}

type accountPage struct {
	Errors map[string]string
	Saved  bool
}

type userDataForm struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

func render(w http.ResponseWriter, r *http.Request, views *view.Templates, name, title string, data any) {
	if err := views.Render(w, r, name, title, data); err != nil {
		fail(w, r, core.Internal("ошибка отображения "+name, err))
	}
}

// Overview — GET /; после оплаты Stripe возвращает сюда с ?session_id=...
func Overview(tours TourStore, payments payment.Provider, bookings BookingStore, views *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
			if err := confirmBooking(r.Context(), payments, bookings, sessionID); err != nil {
				fail(w, r, err)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		items, err := tours.List(r.Context(), storage.TourQuery{})
		if err != nil {
			fail(w, r, err)
			return
		}
		render(w, r, views, "overview", "All Tours", overviewPage{Tours: items})
	}
}

// TourPage — GET /tour/{slug}
func TourPage(tours TourStore, reviews ReviewStore, views *view.Templates, mapOpts mapview.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := tours.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = core.NotFound("There is no tour with that name.")
			}
			fail(w, r, err)
			return
		}
		items, err := reviews.List(r.Context(), t.ID)
		if err != nil {
			fail(w, r, err)
			return
		}
		plan, err := mapview.BuildPlan(mapOpts, waypoints(t.Locations))
		if err != nil {
			fail(w, r, core.Internal("карта тура", err))
			return
		}
		planJSON, err := plan.JSON()
		if err != nil {
			fail(w, r, core.Internal("карта тура", err))
			return
		}
		render(w, r, views, "tour", t.Name+" Tour", tourPage{Tour: t, Reviews: items, MapPlan: planJSON})
	}
}

// waypoints — точки маршрута тура для карты
func waypoints(locs storage.Locations) []mapview.Waypoint {
	out := make([]mapview.Waypoint, 0, len(locs))
	for _, l := range locs {
		out = append(out, mapview.Waypoint{
			Coordinates: mapview.LngLat(l.Coordinates),
			Day:         l.Day,
			Description: l.Description,
		})
	}
	return out
}

// LoginPage — GET /login
func LoginPage(views *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, views, "login", "Log into your account", nil)
	}
}

// Account — GET /me
func Account(views *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, views, "account", "Your account", accountPage{})
	}
}

// MyTours — GET /my-tours: туры, забронированные пользователем
func MyTours(tours TourStore, views *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		items, err := tours.BookedBy(r.Context(), u.ID)
		if err != nil {
			fail(w, r, err)
			return
		}
		render(w, r, views, "overview", "My Tours", overviewPage{Tours: items})
	}
}

// SubmitUserData — POST /submit-user-data (форма личного кабинета, CSRF)
func SubmitUserData(users UserStore, views *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		var f userDataForm
		if err := pipeline.Bind(r, &f); err != nil {
			fail(w, r, err)
			return
		}
		f.Name = strings.TrimSpace(f.Name)
		f.Email = strings.ToLower(strings.TrimSpace(f.Email))

		if err := validate.Struct(f); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				fail(w, r, core.Internal("валидация формы", err))
				return
			}
			core.LogInfo("Validation failed", map[string]interface{}{"path": r.URL.Path, "user_id": u.ID})
			if rerr := views.RenderStatus(w, r, http.StatusBadRequest, "account", "Your account",
				accountPage{Errors: validationFields(verrs)}); rerr != nil {
				fail(w, r, core.Internal("ошибка отображения account", rerr))
			}
			return
		}

		updated, err := users.UpdateData(r.Context(), u.ID, f.Name, f.Email)
		if err != nil {
			fail(w, r, err)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), core.CtxUser, updated))
		render(w, r, views, "account", "Your account", accountPage{Saved: true})
	}
}
