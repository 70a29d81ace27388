package main

//main.go
import (
	"context"
	"crypto/sha256"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"natours/internal/app"
	"natours/internal/core"
	"natours/internal/storage"

	"github.com/jmoiron/sqlx"
)

func main() {
	// 1) Конфиг и логи
	config, err := core.Load()
	if err != nil {
		log.Fatalf("ERROR: конфигурация: %v", err)
	}
	log.Printf("INFO: Secure=%v, Env=%s", config.Secure, config.Env)
	if err := core.InitDailyLog(config.LogDir, config.IsDev()); err != nil {
		log.Fatalf("ERROR: логи: %v", err)
	}

	// 2) Контекст для фоновых задач (ротация логов, очистка окон rate limit)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3) БД (пул + ping)
	db, err := storage.NewDB(ctx, config.DB)
	if err != nil {
		core.LogError("Ошибка инициализации MySQL", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// 4) Миграции
	if err := storage.NewMigrations(db).Run(ctx); err != nil {
		core.LogError("Ошибка выполнения миграций", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// 5) Ежедневная ротация логов
	startLogRotation(ctx, config)

	// 6) Приложение: CSP, цепочка pipeline, маршруты
	application := initApp(ctx, config, db)

	// 7) HTTP-сервер с таймаутами (OWASP A05)
	srv := core.Server(config, application.Handler)

	// 8) Перехват сигналов
	sigs, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 9) Запуск сервера
	runServer(srv, config)

	// 10) Ожидаем сигнал завершения
	waitShutdown(sigs, srv, config)

	// 11) Закрытие ресурсов
	cancel()
	if cerr := application.Close(); cerr != nil {
		core.LogError("Ошибка закрытия ресурсов приложения", map[string]interface{}{"error": cerr.Error()})
	}
	if cerr := storage.Close(db); cerr != nil {
		core.LogError("Ошибка закрытия MySQL", map[string]interface{}{"error": cerr.Error()})
	}
	core.Close()
}

// startLogRotation — новые файлы логов раз в сутки
func startLogRotation(ctx context.Context, cfg core.Config) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := core.InitDailyLog(cfg.LogDir, cfg.IsDev()); err != nil {
					log.Printf("ERROR: ротация логов: %v", err)
				}
			}
		}
	}()
}

// initApp — сборка приложения; некорректная политика безопасности останавливает запуск
func initApp(ctx context.Context, cfg core.Config, db *sqlx.DB) *app.App {
	application, err := app.New(ctx, cfg, db, derive32(cfg.CSRFKey))
	if err != nil {
		core.LogError("Ошибка инициализации приложения", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	return application
}

// gracefulShutdown — корректное завершение
func gracefulShutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// runServer — запуск в горутине; TLS, если заданы сертификаты
func runServer(srv *http.Server, cfg core.Config) {
	go func() {
		log.Printf("INFO: http: сервер запущен, addr=%s, env=%s, app=%s", cfg.Addr, cfg.Env, cfg.AppName)
		core.LogInfo("Сервер запущен", map[string]interface{}{"addr": cfg.Addr, "env": cfg.Env})
		var err error
		if cfg.Secure && cfg.CertFile != "" && cfg.KeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			core.LogError("Ошибка работы сервера", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()
}

// waitShutdown — ожидание сигналов и shutdown
func waitShutdown(sigs context.Context, srv *http.Server, cfg core.Config) {
	<-sigs.Done()
	log.Println("INFO: http: начат процесс завершения")
	if err := gracefulShutdown(srv, cfg.ShutdownTimeout); err != nil {
		core.LogError("Ошибка завершения сервера", map[string]interface{}{"error": err.Error()})
	} else {
		log.Println("INFO: http: завершение выполнено")
	}
}

// derive32 — 32-байтовый ключ CSRF из секрета (OWASP A02)
func derive32(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
