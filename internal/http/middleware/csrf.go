package middleware

// csrf.go — защита HTML-форм (OWASP A01)
import (
	"net/http"

	"natours/internal/core"
	"natours/internal/pipeline"

	"github.com/gorilla/csrf"
)

// CSRF — gorilla/csrf для страниц сайта. API работает по Bearer/cookie JWT
// с SameSite=Lax и сюда не подключается.
func CSRF(key []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if e := csrf.FailureReason(r); e != nil {
				reason = e.Error()
			}
			core.LogInfo("CSRF отклонён", map[string]interface{}{"path": r.URL.Path, "reason": reason})
			pipeline.Raise(w, r, core.Forbidden("Invalid CSRF token. Please reload the page and try again."))
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// без TLS gorilla/csrf по умолчанию требует https-Referer
			if r.TLS == nil && r.URL.Scheme != "https" {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}
