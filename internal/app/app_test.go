package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"natours/internal/core"
	httpx "natours/internal/http"
	"natours/internal/ratelimit"
	"natours/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() core.Config {
	return core.Config{
		AppName:        "natours",
		Env:            core.EnvProduction,
		PublicDir:      "../../web/public",
		TemplatesDir:   "../../web/templates",
		RequestTimeout: 5 * time.Second,
		BodyLimit:      10240,
		HPPWhitelist:   []string{"duration", "price"},
		JWT:            core.JWT{Secret: "app-test-secret-app-test-secret-xx", ExpiresIn: time.Hour},
		RateLimit: core.RateLimit{
			Max:     100,
			Window:  time.Hour,
			Prefix:  "/api",
			Message: "Too many requests from this IP, please try again in hour!",
		},
	}
}

func build(t *testing.T) (http.Handler, []string) {
	t.Helper()
	cfg := testConfig()
	views, err := view.New(cfg.TemplatesDir, view.Globals{AppName: cfg.AppName})
	require.NoError(t, err)

	h, p, err := Build(cfg, httpx.Deps{
		Config:  cfg,
		CSRFKey: make([]byte, 32),
		Views:   views,
	}, ratelimit.NewMemoryStore(cfg.RateLimit.Max, cfg.RateLimit.Window))
	require.NoError(t, err)
	return h, p.StageNames()
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBuild_StageOrder(t *testing.T) {
	_, names := build(t)
	assert.Equal(t, []string{
		"static", "access-log", "rate-limit", "body", "cookies",
		"nosql-sanitize", "xss-sanitize", "hpp", "timestamp",
	}, names)
}

func TestBuild_UnknownPageRendersErrorTemplate(t *testing.T) {
	h, _ := build(t)

	rec := get(h, "/foo")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Can&#39;t find /foo on this server")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestBuild_UnknownAPIRouteIsJSON(t *testing.T) {
	h, _ := build(t)

	rec := get(h, "/api/v1/foo")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Can't find /api/v1/foo on this server", body["message"])
}

func TestBuild_RateLimitAppliesToAPI(t *testing.T) {
	h, _ := build(t)

	for i := 0; i < 100; i++ {
		rec := get(h, "/api/v1/foo")
		require.Equal(t, http.StatusNotFound, rec.Code, "request %d", i+1)
	}
	rec := get(h, "/api/v1/foo")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Too many requests from this IP"))

	// страницы сайта не ограничиваются
	assert.Equal(t, http.StatusNotFound, get(h, "/foo").Code)
}

func TestBuild_ServesStaticFiles(t *testing.T) {
	h, _ := build(t)

	rec := get(h, "/css/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestBuild_Health(t *testing.T) {
	h, _ := build(t)

	rec := get(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
