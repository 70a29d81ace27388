// Команда booktour: бронирование тура из терминала: получает сессию оплаты
// у API и печатает ссылку на оплату.
//
//	booktour -tour 5 -token $JWT
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"natours/internal/widget/checkout"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// clientConfig — значения по умолчанию из окружения, флаги важнее
type clientConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://127.0.0.1:3000"`
	Token      string        `env:"NATOURS_TOKEN"`
	Timeout    time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

func main() {
	var cfg clientConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("ERROR: переменные окружения: %v", err)
	}

	tourID := flag.String("tour", "", "id тура")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "JWT пользователя (Bearer)")
	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "адрес API")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	alerts := &countingAlerter{next: checkout.LogAlerter{Log: logger}}
	w := checkout.New(
		checkout.NewSessionClient(cfg.APIBaseURL, cfg.Token, cfg.Timeout),
		checkout.URLRedirector{Out: os.Stdout},
		alerts,
	)
	w.BookTour(ctx, *tourID)
	if alerts.n > 0 {
		os.Exit(1)
	}
}

// countingAlerter — код выхода 1, если было хоть одно предупреждение
type countingAlerter struct {
	next checkout.Alerter
	n    int
}

func (a *countingAlerter) Alert(kind, message string) {
	a.n++
	a.next.Alert(kind, message)
}
