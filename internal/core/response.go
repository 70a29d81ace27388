package core

// response.go
import (
	"encoding/json"
	"net/http"
)

// Envelope — единый формат успешного ответа API
type Envelope struct {
	Status  string         `json:"status"`
	Results *int           `json:"results,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// JSON — отправка JSON с нужными заголовками
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		// заголовки уже ушли, только логируем
		LogError("Ошибка кодирования JSON", map[string]interface{}{"error": err.Error()})
	}
}

// Success — {"status":"success","data":{key: value}}
func Success(w http.ResponseWriter, status int, key string, value any) {
	JSON(w, status, Envelope{Status: "success", Data: map[string]any{key: value}})
}

// SuccessList — то же, плюс количество элементов
func SuccessList(w http.ResponseWriter, key string, value any, n int) {
	JSON(w, http.StatusOK, Envelope{Status: "success", Results: &n, Data: map[string]any{key: value}})
}

// NoContent — 204 для удаления
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
