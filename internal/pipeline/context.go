package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"natours/internal/core"
)

// BodyKind — как было декодировано тело
type BodyKind uint8

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyForm
)

// RequestContext — изменяемое состояние одного запроса.
// Создаётся на входе в цепочку и живёт до конца ответа.
type RequestContext struct {
	w *statusWriter
	r *http.Request

	Body        map[string]any    // декодированное тело (JSON или форма)
	BodyKind    BodyKind          // как разобрано тело
	Form        url.Values        // значения формы (для BodyForm)
	Cookies     map[string]string // cookie из заголовка
	Query       url.Values        // параметры строки запроса
	RequestTime time.Time         // проставляется этапом Timestamp

	sink   ErrorSink
	failed bool
	hooks  []func()
}

func newRequestContext(w http.ResponseWriter, r *http.Request, sink ErrorSink) *RequestContext {
	return &RequestContext{
		w:       &statusWriter{ResponseWriter: w},
		r:       r,
		Query:   r.URL.Query(),
		Cookies: map[string]string{},
		sink:    sink,
	}
}

func (rc *RequestContext) Request() *http.Request { return rc.r }
func (rc *RequestContext) Writer() http.ResponseWriter { return rc.w }
func (rc *RequestContext) Status() int { return rc.w.Status() }
func (rc *RequestContext) BytesWritten() int { return rc.w.size }
func (rc *RequestContext) Failed() bool { return rc.failed }
func (rc *RequestContext) SetRequest(r *http.Request) { rc.r = r }
func (rc *RequestContext) OnComplete(fn func()) { rc.hooks = append(rc.hooks, fn) }
func (rc *RequestContext) headerWritten() bool { return rc.w.wroteHeader }
func (rc *RequestContext) setBody(kind BodyKind, body map[string]any) {
	rc.BodyKind, rc.Body = kind, body
}

// fail отправляет ошибку в sink ровно один раз за запрос
func (rc *RequestContext) fail(w http.ResponseWriter, r *http.Request, err error) {
	if rc.failed {
		core.LogError("Повторная ошибка после ответа", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		return
	}
	rc.failed = true
	if rc.headerWritten() {
		// ответ уже начат, клиенту ничего не отправить, только лог
		core.LogError("Ошибка после начала ответа", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		return
	}
	rc.sink.Handle(w, r, err)
}

func (rc *RequestContext) complete() {
	for i := len(rc.hooks) - 1; i >= 0; i-- {
		rc.hooks[i]()
	}
	rc.Body, rc.Form = nil, nil
}

// commit переносит очищенные query/тело в запрос, который уйдёт в маршрутизатор
func (rc *RequestContext) commit() *http.Request {
	req := rc.r.WithContext(withRequestContext(rc.r.Context(), rc))
	u := *req.URL
	u.RawQuery = rc.Query.Encode()
	req.URL = &u

	switch rc.BodyKind {
	case BodyJSON:
		data, err := json.Marshal(rc.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewReader(data))
			req.ContentLength = int64(len(data))
		}
	case BodyForm:
		// форма могла измениться при очистке, собираем заново из Body
		rc.Form = mapToForm(rc.Body)
		encoded := rc.Form.Encode()
		req.Body = io.NopCloser(strings.NewReader(encoded))
		req.ContentLength = int64(len(encoded))
		req.PostForm = rc.Form
		merged := make(url.Values, len(rc.Form)+len(rc.Query))
		for k, v := range rc.Form {
			merged[k] = append(merged[k], v...)
		}
		for k, v := range rc.Query {
			merged[k] = append(merged[k], v...)
		}
		req.Form = merged
	}
	rc.r = req
	return req
}

// DefaultBodyLimit — лимит тела для Bind вне цепочки (совпадает с BODY_LIMIT по умолчанию)
const DefaultBodyLimit = 10 << 10

// Bind раскладывает очищенное тело запроса в структуру.
// Внутри цепочки читается только то, что разобрал BodyDecoder: тело другого
// Content-Type не прошло ни лимит, ни очистку и не декодируется (OWASP A03, A04).
func Bind(r *http.Request, dst any) error {
	rc := FromContext(r.Context())
	if rc != nil {
		if rc.BodyKind == BodyNone {
			return core.BadRequest("Request body is required", nil)
		}
		return bindSanitized(rc, dst)
	}
	if r.Body == nil || r.Body == http.NoBody {
		return core.BadRequest("Request body is required", nil)
	}
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, DefaultBodyLimit)).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.PayloadTooLarge(msgBodyTooLarge, err)
		}
		return core.BadRequest("Invalid request body", err)
	}
	return nil
}

func bindSanitized(rc *RequestContext, dst any) error {
	data, err := json.Marshal(rc.Body)
	if err != nil {
		return core.Internal("кодирование тела", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return core.BadRequest("Invalid request body", err)
	}
	return nil
}

// statusWriter запоминает статус и размер ответа
type statusWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap — для http.ResponseController (Flush и т.п.)
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
