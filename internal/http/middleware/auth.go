package middleware

// auth.go — аутентификация по JWT и проверка ролей (OWASP A01, A07)
import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"natours/internal/core"
	"natours/internal/pipeline"
	"natours/internal/storage"
)

// UserFinder — поиск пользователя по id из токена
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*storage.User, error)
}

// authenticate — пользователь по токену запроса; ошибки уже в виде AppError
func authenticate(r *http.Request, cfg core.JWT, users UserFinder) (*storage.User, error) {
	raw := core.TokenFromRequest(r, pipeline.Cookies(r))
	if raw == "" {
		return nil, core.Unauthorized("You are not logged in! Please log in to get access.")
	}
	id, issued, err := core.ParseToken(cfg, raw)
	if err != nil {
		return nil, err
	}
	u, err := users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.Unauthorized("The user belonging to this token does no longer exist.")
		}
		return nil, err
	}
	if u.ChangedPasswordAfter(issued) {
		return nil, core.Unauthorized("User recently changed password! Please log in again.")
	}
	return u, nil
}

// Protect пропускает только запросы с действующим токеном и кладёт пользователя в контекст
func Protect(cfg core.JWT, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := authenticate(r, cfg, users)
			if err != nil {
				pipeline.Raise(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), core.CtxUser, u)))
		})
	}
}

// IsLoggedIn — для страниц: пользователь в контексте, если токен валиден; ошибок не бывает
func IsLoggedIn(cfg core.JWT, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if core.TokenFromRequest(r, pipeline.Cookies(r)) != "" {
				if u, err := authenticate(r, cfg, users); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), core.CtxUser, u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RestrictTo — только для перечисленных ролей; ставится после Protect
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := r.Context().Value(core.CtxUser).(*storage.User)
			if u == nil || !slices.Contains(roles, u.Role) {
				pipeline.Raise(w, r, core.Forbidden("You do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
