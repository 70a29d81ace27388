package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"natours/internal/core"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations управляет версиями БД
type Migrations struct {
	db   *sqlx.DB
	fsys fs.FS
}

// NewMigrations — мигратор по встроенным SQL-файлам
func NewMigrations(db *sqlx.DB) *Migrations {
	return &Migrations{db: db, fsys: migrationFiles}
}

// NewMigrationsFS — мигратор по произвольному каталогу (тесты)
func NewMigrationsFS(db *sqlx.DB, fsys fs.FS) *Migrations {
	return &Migrations{db: db, fsys: fsys}
}

// Run применяет ещё не применённые миграции по порядку имён (001, 002...)
func (m *Migrations) Run(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return err
	}

	files, err := fs.Glob(m.fsys, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("ошибка поиска миграций: %w", err)
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		ok, err := m.runMigration(ctx, file)
		if err != nil {
			return fmt.Errorf("ошибка миграции %s: %w", file, err)
		}
		if ok {
			applied++
		}
	}

	core.LogInfo("Миграции завершены успешно", map[string]interface{}{
		"files":   len(files),
		"applied": applied,
	})
	return nil
}

func (m *Migrations) createMigrationsTable(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	_, err := m.db.ExecContext(ctx, q)
	return err
}

// runMigration выполняет одну миграцию; false, если она уже применена
func (m *Migrations) runMigration(ctx context.Context, file string) (bool, error) {
	name := path.Base(file)

	var count int
	if err := m.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM migrations WHERE name = ?", name); err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	sqlBytes, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// multiStatements выключен в DSN, выполняем по одному
	for _, stmt := range splitStatements(string(sqlBytes)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("ошибка выполнения SQL: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?)", name); err != nil {
		return false, fmt.Errorf("ошибка записи миграции: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ошибка коммита: %w", err)
	}

	core.LogInfo("Миграция применена", map[string]interface{}{"file": name})
	return true, nil
}

func splitStatements(src string) []string {
	var out []string
	for _, part := range strings.Split(src, ";") {
		lines := make([]string, 0)
		for _, line := range strings.Split(part, "\n") {
			if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, line)
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
