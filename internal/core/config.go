package core

//config.go

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config определяет настройки приложения (OWASP A05: Security Misconfiguration, A02: Cryptographic Failures).
// Создаётся один раз в main и дальше только читается.
type Config struct {
	AppName           string        `env:"APP_NAME" envDefault:"natours"`
	Addr              string        `env:"HTTP_ADDR" envDefault:":3000"`
	Env               string        `env:"APP_ENV" envDefault:"development"` // development|production
	PublicDir         string        `env:"PUBLIC_DIR" envDefault:"web/public"`
	TemplatesDir      string        `env:"TEMPLATES_DIR" envDefault:"web/templates"`
	LogDir            string        `env:"LOG_DIR" envDefault:"logs"`
	CSRFKey           string        `env:"CSRF_KEY"`
	Secure            bool          `env:"SECURE"`
	CertFile          string        `env:"TLS_CERT_FILE"`
	KeyFile           string        `env:"TLS_KEY_FILE"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1,::1"`
	BodyLimit         int64         `env:"BODY_LIMIT" envDefault:"10240"` // 10 KB (JSON и urlencoded)
	HPPWhitelist      []string      `env:"HPP_WHITELIST" envSeparator:"," envDefault:"duration,ratingsQuantity,ratingsAverage,maxGroupSize,difficulty,price"`

	DB        DB        `envPrefix:"DB_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	JWT       JWT       `envPrefix:"JWT_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Stripe    Stripe    `envPrefix:"STRIPE_"`
	Mapbox    Mapbox    `envPrefix:"MAPBOX_"`
}

// DB — подключение к MySQL
type DB struct {
	DSN             string        `env:"DSN" envDefault:"root:admin@tcp(localhost:3306)/natours?parseTime=true&charset=utf8mb4"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Redis — необязательное хранилище окон rate limit (пустой Addr = память процесса)
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWT struct {
	Secret        string        `env:"SECRET"`
	ExpiresIn     time.Duration `env:"EXPIRES_IN" envDefault:"2160h"` // 90 дней
	CookieExpires time.Duration `env:"COOKIE_EXPIRES" envDefault:"2160h"`
}

// RateLimit — параметры ограничителя для API
type RateLimit struct {
	Max     int           `env:"MAX" envDefault:"100"`
	Window  time.Duration `env:"WINDOW" envDefault:"1h"`
	Prefix  string        `env:"PREFIX" envDefault:"/api"`
	Message string        `env:"MESSAGE" envDefault:"Too many requests from this IP, please try again in hour!"`
}

type Stripe struct {
	SecretKey  string  `env:"SECRET_KEY"`
	PublicKey  string  `env:"PUBLIC_KEY"`
	BaseURL    string  `env:"BASE_URL" envDefault:"https://api.stripe.com"`
	RPS        float64 `env:"RPS" envDefault:"20"`
	Burst      int     `env:"BURST" envDefault:"5"`
	SuccessURL string  `env:"SUCCESS_URL" envDefault:"http://127.0.0.1:3000/"`
}

type Mapbox struct {
	Token string `env:"TOKEN"`
	Style string `env:"STYLE" envDefault:"mapbox://styles/mapbox/light-v11"`
}

// IsDev — режим разработки (подробные логи и ошибки)
func (c Config) IsDev() bool { return c.Env == EnvDevelopment }

// IsProd — продакшен
func (c Config) IsProd() bool { return c.Env == EnvProduction }

// Load загружает конфигурацию из переменных окружения с значениями по умолчанию (OWASP A05)
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	// в разработке пустые секреты заменяются случайными (токены живут до рестарта)
	if cfg.CSRFKey == "" {
		cfg.CSRFKey = generateRandomKey()
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = generateRandomKey()
	}
	return cfg, nil
}

// Validate проверяет конфигурацию; в продакшене правила строже
func (c Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("неизвестный APP_ENV %q", c.Env)
	}
	if c.Addr == "" {
		return errors.New("отсутствует HTTP_ADDR")
	}
	if c.BodyLimit <= 0 {
		return errors.New("BODY_LIMIT должен быть положительным")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_MAX и RATE_LIMIT_WINDOW должны быть положительными")
	}
	if !c.IsProd() {
		return nil
	}
	if len(c.CSRFKey) < 32 {
		return fmt.Errorf("недостаточная длина CSRF_KEY в продакшене: %d", len(c.CSRFKey))
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET в продакшене должен быть не короче 32 символов")
	}
	if c.Secure && (c.CertFile == "" || c.KeyFile == "") {
		return errors.New("отсутствует TLS_CERT_FILE или TLS_KEY_FILE в продакшене")
	}
	return nil
}

// generateRandomKey создаёт случайный 32-байтовый ключ в формате base64
func generateRandomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		LogError("Ошибка генерации ключа", map[string]interface{}{"error": err.Error()})
		return "fallback-key-please-change"
	}
	return base64.StdEncoding.EncodeToString(b)
}
