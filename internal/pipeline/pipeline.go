// Package pipeline — упорядоченная цепочка обработки запроса перед маршрутизацией.
//
// Каждый этап реализует Stage и возвращает Outcome: продолжить, ответ уже
// отправлен, или ошибка. Ошибка попадает в ErrorSink ровно один раз, остальные
// этапы и маршрутизатор при этом пропускаются. Порядок этапов задаётся при
// сборке приложения и дальше не меняется.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"natours/internal/core"
)

type outcomeKind uint8

const (
	kindContinue outcomeKind = iota
	kindRespond
	kindFail
)

// Outcome — результат этапа
type Outcome struct {
	kind outcomeKind
	err  error
}

// Continue — передать управление следующему этапу (контекст мог измениться)
func Continue() Outcome { return Outcome{kind: kindContinue} }

// Respond — этап сам отправил ответ, цепочка завершена
func Respond() Outcome { return Outcome{kind: kindRespond} }

// Fail — завершить цепочку ошибкой (уйдёт в ErrorSink)
func Fail(err error) Outcome {
	if err == nil {
		err = core.Internal("пустая ошибка этапа", nil)
	}
	return Outcome{kind: kindFail, err: err}
}

func (o Outcome) IsContinue() bool { return o.kind == kindContinue }
func (o Outcome) IsRespond() bool  { return o.kind == kindRespond }
func (o Outcome) IsFail() bool     { return o.kind == kindFail }
func (o Outcome) Err() error       { return o.err }

// Stage — один этап цепочки
type Stage interface {
	Name() string
	Process(rc *RequestContext) Outcome
}

// ErrorSink — конечная точка для любых ошибок цепочки и обработчиков
type ErrorSink interface {
	Handle(w http.ResponseWriter, r *http.Request, err error)
}

// Pipeline — http.Handler: этапы по порядку, затем dispatch
type Pipeline struct {
	stages   []Stage
	dispatch http.Handler
	sink     ErrorSink
}

// New собирает цепочку. Stages выполняются в переданном порядке.
func New(dispatch http.Handler, sink ErrorSink, stages ...Stage) *Pipeline {
	if sink == nil {
		sink = JSONSink{}
	}
	return &Pipeline{
		stages:   append([]Stage(nil), stages...),
		dispatch: dispatch,
		sink:     sink,
	}
}

// StageNames — имена этапов в порядке выполнения
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := newRequestContext(w, r, p.sink)
	defer rc.complete()
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			core.LogError("Паника при обработке запроса", map[string]interface{}{
				"path":  r.URL.Path,
				"panic": fmt.Sprint(v),
				"stack": string(debug.Stack()),
			})
			rc.fail(rc.w, rc.r, core.Internal("panic", fmt.Errorf("panic: %v", v)))
		}
	}()

	for _, st := range p.stages {
		out := st.Process(rc)
		switch out.kind {
		case kindRespond:
			return
		case kindFail:
			rc.fail(rc.w, rc.r, out.err)
			return
		}
		// клиент ушёл, дальше работать незачем
		if err := rc.r.Context().Err(); err != nil {
			return
		}
	}

	req := rc.commit()
	p.dispatch.ServeHTTP(rc.w, req)
}

type ctxKey struct{}

func withRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext — контекст цепочки для обработчиков (nil вне цепочки)
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(*RequestContext)
	return rc
}

// Raise передаёт ошибку обработчика в ErrorSink цепочки (не более одного раза)
func Raise(w http.ResponseWriter, r *http.Request, err error) {
	if rc := FromContext(r.Context()); rc != nil {
		rc.fail(w, r, err)
		return
	}
	JSONSink{}.Handle(w, r, err)
}

// RequestTime — время, проставленное этапом Timestamp
func RequestTime(r *http.Request) time.Time {
	if rc := FromContext(r.Context()); rc != nil {
		return rc.RequestTime
	}
	return time.Time{}
}

// Cookies — разобранные cookie запроса
func Cookies(r *http.Request) map[string]string {
	if rc := FromContext(r.Context()); rc != nil && rc.Cookies != nil {
		return rc.Cookies
	}
	out := make(map[string]string)
	for _, c := range r.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}
