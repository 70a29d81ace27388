package pipeline

import (
	"net/http"

	"natours/internal/core"
)

// JSONSink — запасной обработчик ошибок: только JSON, без шаблонов.
// Используется, если приложение не передало свой sink.
type JSONSink struct {
	Dev bool
}

func (s JSONSink) Handle(w http.ResponseWriter, r *http.Request, err error) {
	ae := core.From(err)
	if ae == nil {
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		core.LogError("Ошибка запроса", map[string]interface{}{
			"path":  r.URL.Path,
			"error": ae.Error(),
		})
	}

	body := map[string]any{"status": ae.StatusText()}
	switch {
	case s.Dev:
		body["message"] = ae.Message
		body["error"] = ae.Error()
	case ae.IsOperational():
		body["message"] = ae.Message
	default:
		body["message"] = "Something went very wrong!"
	}
	if ae.Fields != nil && (s.Dev || ae.IsOperational()) {
		body["errors"] = ae.Fields
	}
	core.JSON(w, ae.Status, body)
}
