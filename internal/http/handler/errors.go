package handler

// errors.go — единая точка обработки ошибок (ErrorSink цепочки)
import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"natours/internal/core"
	"natours/internal/view"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry — ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

var dupValueRe = regexp.MustCompile(`Duplicate entry '(.*)' for key`)

// ErrorSink отвечает клиенту на любую ошибку: JSON для /api, страница error для сайта.
// В продакшене детали программных ошибок скрываются (OWASP A05, A09).
type ErrorSink struct {
	dev   bool
	views *view.Templates
}

func NewErrorSink(dev bool, views *view.Templates) *ErrorSink {
	return &ErrorSink{dev: dev, views: views}
}

// Handle реализует pipeline.ErrorSink
func (s *ErrorSink) Handle(w http.ResponseWriter, r *http.Request, err error) {
	ae := normalize(err)
	if ae == nil {
		return
	}

	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": ae.Status,
		"error":  ae.Error(),
	}
	if !ae.IsOperational() {
		core.LogError("Ошибка обработки запроса", fields)
	} else if s.dev {
		core.LogInfo("Ошибка клиента", fields)
	}

	if isAPI(r) || s.views == nil {
		s.writeJSON(w, ae)
		return
	}
	s.writePage(w, r, ae)
}

func (s *ErrorSink) writeJSON(w http.ResponseWriter, ae *core.AppError) {
	body := map[string]any{"status": ae.StatusText()}
	switch {
	case s.dev:
		body["message"] = ae.Message
		body["error"] = ae.Error()
	case ae.IsOperational():
		body["message"] = ae.Message
	default:
		body["message"] = "Something went very wrong!"
	}
	if len(ae.Fields) > 0 && (s.dev || ae.IsOperational()) {
		body["errors"] = ae.Fields
	}
	core.JSON(w, ae.Status, body)
}

type errorPage struct {
	Message string
}

func (s *ErrorSink) writePage(w http.ResponseWriter, r *http.Request, ae *core.AppError) {
	msg := ae.Message
	if !s.dev && !ae.IsOperational() {
		msg = "Please try again later."
	}
	if err := s.views.RenderStatus(w, r, ae.Status, "error", "Something went wrong!", errorPage{Message: msg}); err != nil {
		// шаблон сломан, отдаём хотя бы текст
		http.Error(w, msg, ae.Status)
	}
}

func isAPI(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// normalize приводит ошибки драйвера, валидатора и т.п. к AppError
func normalize(err error) *core.AppError {
	if err == nil {
		return nil
	}
	var ae *core.AppError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &core.AppError{Code: "not_found", Status: http.StatusNotFound, Message: "No document found with that ID", Err: err}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		value := myErr.Message
		if m := dupValueRe.FindStringSubmatch(myErr.Message); len(m) == 2 {
			value = m[1]
		}
		return core.BadRequest("Duplicate field value: "+value+". Please use another value!", err)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return core.Validation("Invalid input data.", validationFields(verrs))
	}
	return core.Internal("внутренняя ошибка", err)
}

// validationFields — поле (имя из json-тега) → понятное сообщение
func validationFields(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = "is required"
		case "email":
			out[field] = "must be a valid email"
		case "min":
			out[field] = "must be at least " + e.Param()
		case "max":
			out[field] = "must be at most " + e.Param()
		case "oneof":
			out[field] = "must be one of: " + e.Param()
		case "eqfield":
			out[field] = "must match " + e.Param()
		default:
			out[field] = "is invalid"
		}
	}
	return out
}
