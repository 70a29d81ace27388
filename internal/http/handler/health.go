package handler

// Простые JSON-эндпоинты для liveness/readiness и ответ на неизвестный маршрут.
import (
	"context"
	"net/http"

	"natours/internal/core"
)

// Pinger — то, что умеет проверить соединение (*sqlx.DB)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health — процесс жив
func Health(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready — готовность принимать трафик: проверяем БД
func Ready(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			core.LogError("Readiness: БД недоступна", map[string]interface{}{"error": err.Error()})
			core.JSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{"ready": true})
	}
}

// NotFound — любой несопоставленный путь или метод
func NotFound(w http.ResponseWriter, r *http.Request) {
	fail(w, r, core.NotFound("Can't find "+r.URL.RequestURI()+" on this server"))
}
