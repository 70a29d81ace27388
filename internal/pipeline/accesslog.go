package pipeline

import (
	"io"
	"time"

	"natours/internal/core"

	"github.com/rs/zerolog"
)

// AccessLog — журнал запросов для режима разработки: метод, путь, статус, время, размер.
// В production этап ничего не делает.
type AccessLog struct {
	enabled bool
	log     zerolog.Logger
	now     func() time.Time
}

func NewAccessLog(enabled bool, out io.Writer) *AccessLog {
	return &AccessLog{enabled: enabled, log: core.AccessLogger(out), now: time.Now}
}

func (a *AccessLog) Name() string { return "access-log" }

func (a *AccessLog) Process(rc *RequestContext) Outcome {
	if !a.enabled {
		return Continue()
	}
	start := a.now()
	r := rc.Request()
	method, uri := r.Method, r.URL.RequestURI()
	rc.OnComplete(func() {
		status := rc.Status()
		ev := a.log.Info()
		switch {
		case status >= 500:
			ev = a.log.Error()
		case status >= 400:
			ev = a.log.Warn()
		}
		ev.Str("method", method).
			Str("url", uri).
			Int("status", status).
			Dur("duration", a.now().Sub(start)).
			Int("size", rc.BytesWritten()).
			Msg("")
	})
	return Continue()
}
