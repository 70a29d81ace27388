// Package handler — обработчики API (/api/v1/...) и страниц сайта.
package handler

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"natours/internal/core"
	"natours/internal/pipeline"
	"natours/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Хранилища, нужные обработчикам (реализованы в internal/storage)
type (
	TourStore interface {
		List(ctx context.Context, q storage.TourQuery) ([]storage.Tour, error)
		Get(ctx context.Context, id int64) (*storage.Tour, error)
		GetBySlug(ctx context.Context, slug string) (*storage.Tour, error)
		Create(ctx context.Context, t *storage.Tour) error
		Update(ctx context.Context, id int64, fields map[string]any) (*storage.Tour, error)
		Delete(ctx context.Context, id int64) error
		BookedBy(ctx context.Context, userID int64) ([]storage.Tour, error)
	}

	UserStore interface {
		Create(ctx context.Context, u *storage.User) error
		GetByID(ctx context.Context, id int64) (*storage.User, error)
		GetByEmail(ctx context.Context, email string) (*storage.User, error)
		List(ctx context.Context) ([]storage.User, error)
		UpdateData(ctx context.Context, id int64, name, email string) (*storage.User, error)
	}

	ReviewStore interface {
		List(ctx context.Context, tourID int64) ([]storage.Review, error)
		Get(ctx context.Context, id int64) (*storage.Review, error)
		Create(ctx context.Context, rv *storage.Review) error
		Delete(ctx context.Context, id int64) error
	}

	BookingStore interface {
		Create(ctx context.Context, b *storage.Booking) error
		List(ctx context.Context) ([]storage.Booking, error)
	}
)

// validate — общий валидатор; в ошибках имена полей берутся из json-тегов
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decode — очищенное тело запроса в структуру + валидация
func decode(r *http.Request, dst any) error {
	if err := pipeline.Bind(r, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// fail — ошибка обработчика уходит в ErrorSink цепочки
func fail(w http.ResponseWriter, r *http.Request, err error) {
	pipeline.Raise(w, r, err)
}

// idParam — числовой параметр маршрута
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.BadRequest("Invalid "+name+": "+raw, err)
	}
	return id, nil
}

// currentUser — пользователь, положенный в контекст Protect/IsLoggedIn
func currentUser(r *http.Request) *storage.User {
	u, _ := r.Context().Value(core.CtxUser).(*storage.User)
	return u
}
