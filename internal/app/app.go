package app

// internal/app/app.go — сборка приложения: заголовки безопасности → request id →
// цепочка pipeline → маршрутизатор
import (
	"context"
	"net/http"
	"time"

	"natours/internal/core"
	httpx "natours/internal/http"
	"natours/internal/http/handler"
	mw "natours/internal/http/middleware"
	"natours/internal/payment"
	"natours/internal/pipeline"
	"natours/internal/ratelimit"
	"natours/internal/storage"
	"natours/internal/view"
	"natours/internal/widget/mapview"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// App — готовый http.Handler и ресурсы, которые нужно закрыть при остановке
type App struct {
	Handler  http.Handler
	Pipeline *pipeline.Pipeline
	closers  []func() error
}

// New — главный конструктор: шаблоны, репозитории, платежи, хранилище rate limit.
// ctx живёт до остановки сервера (фоновая очистка окон ограничителя).
func New(ctx context.Context, cfg core.Config, db *sqlx.DB, csrfKey []byte) (*App, error) {
	views, err := view.New(cfg.TemplatesDir, view.Globals{AppName: cfg.AppName, StripeKey: cfg.Stripe.PublicKey})
	if err != nil {
		return nil, err
	}

	a := &App{}
	limiter := newLimiterStore(ctx, cfg, a)

	deps := httpx.Deps{
		Config:   cfg,
		CSRFKey:  csrfKey,
		Tours:    storage.NewTourRepo(db),
		Users:    storage.NewUserRepo(db),
		Reviews:  storage.NewReviewRepo(db),
		Bookings: storage.NewBookingRepo(db),
		Payments: payment.NewStripeClient(cfg.Stripe),
		Views:    views,
		DB:       db,
		Map: mapview.Options{
			Container:   "map",
			Style:       cfg.Mapbox.Style,
			AccessToken: cfg.Mapbox.Token,
		},
	}

	h, p, err := Build(cfg, deps, limiter)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Handler, a.Pipeline = h, p
	return a, nil
}

// Build собирает обработчик из готовых зависимостей (без сети и БД).
// Некорректная CSP считается ошибкой: сервер не стартует без защиты (OWASP A05).
func Build(cfg core.Config, deps httpx.Deps, limiter ratelimit.Store) (http.Handler, *pipeline.Pipeline, error) {
	policy, err := core.DefaultDirectives()
	if err != nil {
		return nil, nil, err
	}
	secureHeaders, err := core.SecureHeaders(policy, cfg)
	if err != nil {
		return nil, nil, err
	}

	xss := pipeline.NewXSSSanitizer()
	deps.XSS = xss
	router := httpx.NewRouter(deps)
	sink := handler.NewErrorSink(cfg.IsDev(), deps.Views)

	p := pipeline.New(router, sink,
		pipeline.NewStatic(cfg.PublicDir, cfg.IsProd()),
		pipeline.NewAccessLog(cfg.IsDev(), nil),
		pipeline.NewRateLimit(limiter, cfg.RateLimit.Prefix, cfg.RateLimit.Message, core.ClientIP(cfg.TrustedProxies)),
		pipeline.NewBodyDecoder(cfg.BodyLimit),
		pipeline.NewCookieParser(),
		pipeline.NewNoSQLSanitizer(),
		xss,
		pipeline.NewPollutionGuard(cfg.HPPWhitelist),
		pipeline.NewTimestamp(time.Now),
	)

	var h http.Handler = p
	h = mw.ForwardedScheme(cfg.TrustedProxies)(h)
	h = chimw.RequestID(h)
	h = secureHeaders(h)
	return h, p, nil
}

// newLimiterStore — Redis, если задан REDIS_ADDR (несколько экземпляров), иначе память процесса
func newLimiterStore(ctx context.Context, cfg core.Config, a *App) ratelimit.Store {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			a.closers = append(a.closers, rdb.Close)
			core.LogInfo("Rate limit: окна в Redis", map[string]interface{}{"addr": cfg.Redis.Addr})
			return ratelimit.NewRedisStore(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window, ratelimit.WithPrefix(cfg.AppName+":ratelimit"))
		}
		core.LogError("Redis недоступен, rate limit в памяти процесса", map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		})
		_ = rdb.Close()
	}
	store := ratelimit.NewMemoryStore(cfg.RateLimit.Max, cfg.RateLimit.Window)
	store.StartJanitor(ctx, time.Minute)
	return store
}

// Close освобождает внешние ресурсы (Redis)
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
