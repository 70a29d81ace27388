package middleware

// security.go
import (
	"net/http"
	"strings"
)

// NoStore — ответы API не кэшируются ни браузером, ни прокси
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}
