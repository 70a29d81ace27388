package middleware

//proxy.go
import (
	"net/http"
	"strings"

	"natours/internal/core"
)

// ForwardedScheme отмечает запрос как https, если TLS завершён на доверенном прокси.
// Заголовок от остальных клиентов игнорируется (OWASP A05: Security Misconfiguration).
func ForwardedScheme(trustedProxies []string) func(http.Handler) http.Handler {
	fromProxy := core.FromTrustedProxy(trustedProxies)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
			if proto == "https" && r.TLS == nil && fromProxy(r) {
				u := *r.URL
				u.Scheme = "https"
				r2 := r.Clone(r.Context())
				r2.URL = &u
				r = r2
			}
			next.ServeHTTP(w, r)
		})
	}
}
