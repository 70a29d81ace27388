package pipeline

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
)

// NoSQLSanitizer удаляет ключи-операторы ($where, a.b, price[$gte]) из тела,
// query и формы, на любой глубине вложенности.
type NoSQLSanitizer struct{}

func NewNoSQLSanitizer() *NoSQLSanitizer { return &NoSQLSanitizer{} }

func (NoSQLSanitizer) Name() string { return "nosql-sanitize" }

func (NoSQLSanitizer) Process(rc *RequestContext) Outcome {
	if rc.Body != nil {
		stripOperatorKeys(rc.Body)
	}
	for k := range rc.Query {
		if isOperatorKey(k) {
			delete(rc.Query, k)
		}
	}
	return Continue()
}

// isOperatorKey — ключ или любой его сегмент в скобках начинается с '$' или содержит '.'
func isOperatorKey(k string) bool {
	for _, seg := range strings.FieldsFunc(k, func(r rune) bool { return r == '[' || r == ']' }) {
		if strings.HasPrefix(seg, "$") || strings.Contains(seg, ".") {
			return true
		}
	}
	return false
}

func stripOperatorKeys(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if isOperatorKey(k) {
				delete(t, k)
				continue
			}
			stripOperatorKeys(child)
		}
	case []any:
		for _, child := range t {
			stripOperatorKeys(child)
		}
	}
}

// XSSSanitizer вычищает разметку из строковых значений тела, query и формы.
// Строки без '<' не меняются.
type XSSSanitizer struct {
	policy *bluemonday.Policy
}

func NewXSSSanitizer() *XSSSanitizer {
	return &XSSSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *XSSSanitizer) Name() string { return "xss-sanitize" }

func (s *XSSSanitizer) Process(rc *RequestContext) Outcome {
	if rc.Body != nil {
		s.sanitizeMap(rc.Body)
	}
	s.sanitizeValues(rc.Query)
	return Continue()
}

// Clean — одна строка
func (s *XSSSanitizer) Clean(v string) string {
	if !strings.ContainsRune(v, '<') {
		return v
	}
	return s.policy.Sanitize(v)
}

func (s *XSSSanitizer) sanitizeMap(m map[string]any) {
	for k, v := range m {
		m[k] = s.sanitizeAny(v)
	}
}

func (s *XSSSanitizer) sanitizeAny(v any) any {
	switch t := v.(type) {
	case string:
		return s.Clean(t)
	case map[string]any:
		s.sanitizeMap(t)
		return t
	case []any:
		for i := range t {
			t[i] = s.sanitizeAny(t[i])
		}
		return t
	}
	return v
}

func (s *XSSSanitizer) sanitizeValues(vals url.Values) {
	for _, vs := range vals {
		for i := range vs {
			vs[i] = s.Clean(vs[i])
		}
	}
}

// SanitizeParams — очистка параметров маршрута. Параметры появляются только
// после сопоставления маршрута, поэтому это middleware, а не этап цепочки.
func SanitizeParams(s *XSSSanitizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				for i, v := range rctx.URLParams.Values {
					rctx.URLParams.Values[i] = s.Clean(v)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
