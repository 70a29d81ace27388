package storage

import (
	"context"
	"strings"

	"natours/internal/core"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewDB создаёт пул подключений к MySQL и проверяет подключение
func NewDB(ctx context.Context, cfg core.DB) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.DSN)
	if err != nil {
		core.LogError("ошибка подключения к MySQL", map[string]interface{}{
			"error": err.Error(),
			"dsn":   sanitizedDSN(cfg.DSN),
		})
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			core.LogError("ошибка закрытия MySQL пула после неуспешного ping", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
		core.LogError("ошибка проверки подключения MySQL", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	core.LogInfo("MySQL подключение успешно", map[string]interface{}{
		"dsn":      sanitizedDSN(cfg.DSN),
		"max_open": cfg.MaxOpenConns,
		"max_idle": cfg.MaxIdleConns,
	})
	return db, nil
}

// Close корректно закрывает пул подключений (graceful shutdown)
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		core.LogError("ошибка закрытия MySQL пула", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	core.LogInfo("MySQL пул закрыт", nil)
	return nil
}

// sanitizedDSN удаляет пароль из DSN для логирования
func sanitizedDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
