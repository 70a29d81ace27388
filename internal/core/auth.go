package core

// auth.go - JWT (Bearer или cookie "jwt")
import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCookie — имя cookie с JWT
const TokenCookie = "jwt"

var (
	ErrTokenExpired = Unauthorized("Your token has expired! Please log in again.")
	ErrTokenInvalid = Unauthorized("Invalid token. Please log in again!")
)

// IssueToken подписывает JWT (HS256) для пользователя
func IssueToken(cfg JWT, userID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ExpiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("подпись JWT: %w", err)
	}
	return token, nil
}

// ParseToken проверяет подпись и срок; возвращает id пользователя и время выдачи.
// Ошибки уже приведены к 401 с понятным клиенту сообщением.
func ParseToken(cfg JWT, raw string) (int64, time.Time, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		// Keyfunc: разрешаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, time.Time{}, withCause(ErrTokenExpired, err)
		}
		return 0, time.Time{}, withCause(ErrTokenInvalid, err)
	}
	if !token.Valid {
		return 0, time.Time{}, ErrTokenInvalid
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, withCause(ErrTokenInvalid, err)
	}
	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return id, issued, nil
}

// TokenFromRequest — сначала заголовок Authorization: Bearer, потом cookie
func TokenFromRequest(r *http.Request, cookies map[string]string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, ok := cookies[TokenCookie]; ok && v != "loggedout" {
		return v
	}
	return ""
}

func withCause(base *AppError, err error) *AppError {
	cp := *base
	cp.Err = err
	return &cp
}
