package handler

// users.go — /api/v1/users: регистрация, вход, выход, профиль
import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"natours/internal/core"
	"natours/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = 12

// хэш для сравнения, когда пользователь не найден: время ответа не выдаёт наличие email (OWASP A07)
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("natours-dummy-password"), bcryptCost)

type signupInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sendToken — JWT в ответе и в HttpOnly cookie
func sendToken(w http.ResponseWriter, cfg core.Config, u *storage.User, status int, now time.Time) {
	token, err := core.IssueToken(cfg.JWT, u.ID, now)
	if err != nil {
		core.LogError("Ошибка выдачи токена", map[string]interface{}{"user_id": u.ID, "error": err.Error()})
		core.JSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "message": "Could not log in"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     core.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(cfg.JWT.CookieExpires),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	core.JSON(w, status, map[string]any{
		"status": "success",
		"token":  token,
		"data":   map[string]any{"user": u},
	})
}

// Signup — POST /api/v1/users/signup; роль всегда user
func Signup(users UserStore, cfg core.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in signupInput
		if err := decode(r, &in); err != nil {
			fail(w, r, err)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			fail(w, r, core.Internal("хэширование пароля", err))
			return
		}
		u := storage.User{
			Name:         strings.TrimSpace(in.Name),
			Email:        strings.ToLower(strings.TrimSpace(in.Email)),
			PasswordHash: string(hash),
			Role:         storage.RoleUser,
		}
		if err := users.Create(r.Context(), &u); err != nil {
			fail(w, r, err)
			return
		}
		core.LogInfo("Новый пользователь", map[string]interface{}{"user_id": u.ID})
		sendToken(w, cfg, &u, http.StatusCreated, time.Now())
	}
}

// Login — POST /api/v1/users/login
func Login(users UserStore, cfg core.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in loginInput
		if err := decode(r, &in); err != nil {
			fail(w, r, err)
			return
		}
		if in.Email == "" || in.Password == "" {
			fail(w, r, core.BadRequest("Please provide email and password!", nil))
			return
		}
		u, err := users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			fail(w, r, err)
			return
		}
		hash := dummyHash
		if u != nil {
			hash = []byte(u.PasswordHash)
		}
		if cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(in.Password)); cmpErr != nil || u == nil {
			fail(w, r, core.Unauthorized("Incorrect email or password"))
			return
		}
		sendToken(w, cfg, u, http.StatusOK, time.Now())
	}
}

// Logout — GET /api/v1/users/logout: cookie затирается короткоживущим значением
func Logout(cfg core.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     core.TokenCookie,
			Value:    "loggedout",
			Path:     "/",
			Expires:  time.Now().Add(10 * time.Second),
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		core.JSON(w, http.StatusOK, map[string]any{"status": "success"})
	}
}

// Me — GET /api/v1/users/me
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		core.Success(w, http.StatusOK, "user", u)
	}
}

// ListUsers — GET /api/v1/users (admin)
func ListUsers(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := users.List(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		core.SuccessList(w, "users", items, len(items))
	}
}

// GetUser — GET /api/v1/users/{id} (admin)
func GetUser(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		u, err := users.GetByID(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusOK, "user", u)
	}
}
