package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"natours/internal/core"
)

const msgBodyTooLarge = "Request body is too large"

// BodyDecoder разбирает JSON и application/x-www-form-urlencoded не больше limit байт.
// Тело больше лимита отклоняется целиком (413), без обрезки.
type BodyDecoder struct {
	limit int64
}

func NewBodyDecoder(limit int64) *BodyDecoder {
	return &BodyDecoder{limit: limit}
}

func (d *BodyDecoder) Name() string { return "body" }

func (d *BodyDecoder) Process(rc *RequestContext) Outcome {
	r := rc.Request()
	if r.Body == nil || r.Body == http.NoBody {
		return Continue()
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return Continue()
	}
	var kind BodyKind
	switch mt {
	case "application/json":
		kind = BodyJSON
	case "application/x-www-form-urlencoded":
		kind = BodyForm
	default:
		// прочие типы (multipart и т.п.) не разбираем
		return Continue()
	}

	// заявленная длина уже больше лимита, даже не читаем
	if r.ContentLength > d.limit {
		return Fail(core.PayloadTooLarge(msgBodyTooLarge, nil))
	}

	raw, err := io.ReadAll(http.MaxBytesReader(rc.Writer(), r.Body, d.limit))
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Fail(core.PayloadTooLarge(msgBodyTooLarge, err))
		}
		return Fail(core.BadRequest("Could not read request body", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		r.Body = http.NoBody
		return Continue()
	}

	switch kind {
	case BodyJSON:
		body, err := decodeJSONObject(raw)
		if err != nil {
			return Fail(err)
		}
		rc.setBody(BodyJSON, body)
	case BodyForm:
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return Fail(core.BadRequest("Malformed form body", err))
		}
		rc.Form = form
		rc.setBody(BodyForm, formToMap(form))
	}
	return Continue()
}

func decodeJSONObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, core.BadRequest("Malformed JSON body", err)
	}
	if dec.More() {
		return nil, core.BadRequest("Malformed JSON body", errors.New("лишние данные после JSON"))
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, core.BadRequest("JSON body must be an object", nil)
	}
	return obj, nil
}

// одно значение становится строкой, несколько списком
func formToMap(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for k, vs := range form {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

// обратное преобразование после очистки
func mapToForm(body map[string]any) url.Values {
	out := make(url.Values, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case string:
			out[k] = []string{t}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					out[k] = append(out[k], s)
				}
			}
		}
	}
	return out
}
