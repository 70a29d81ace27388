package view

//view.go
import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"natours/internal/core"
	"natours/internal/storage"

	"github.com/gorilla/csrf"
)

// Templates — готовые шаблоны страниц (layout + page), парсятся один раз при старте
type Templates struct {
	templates map[string]*template.Template
	globals   Globals
}

// Globals — значения, общие для всех страниц
type Globals struct {
	AppName   string
	StripeKey string // публичный ключ для Stripe.js
}

// PageData — унифицированная структура для всех шаблонов (OWASP A03, A07)
type PageData struct {
	Title     string
	CSRFField template.HTML
	Nonce     string
	User      *storage.User // nil — гость
	Globals   Globals
	Data      any
}

var pages = map[string]string{
	"overview": "pages/overview.gohtml",
	"tour":     "pages/tour.gohtml",
	"login":    "pages/login.gohtml",
	"account":  "pages/account.gohtml",
	"error":    "pages/error.gohtml",
}

var layouts = []string{
	"layouts/base.gohtml",
	"partials/nav.gohtml",
	"partials/footer.gohtml",
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("January 2006") },
	"stars": func(rating int) []bool {
		out := make([]bool, 5)
		for i := range out {
			out[i] = i < rating
		}
		return out
	},
	"div": func(a, b int) float64 {
		if b == 0 {
			return 0
		}
		return float64(a) / float64(b)
	},
}

// New парсит шаблоны из dir (OWASP A05: со сломанным шаблоном приложение не стартует)
func New(dir string, globals Globals) (*Templates, error) {
	base := template.New("layout").Funcs(funcs)
	for _, f := range layouts {
		if _, err := base.ParseFiles(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("ошибка парсинга layout: %w", err)
		}
	}

	t := &Templates{templates: make(map[string]*template.Template), globals: globals}
	for name, page := range pages {
		tpl := template.Must(base.Clone())
		if _, err := tpl.ParseFiles(filepath.Join(dir, page)); err != nil {
			return nil, fmt.Errorf("ошибка парсинга шаблона %q: %w", name, err)
		}
		if tpl.Lookup("base") == nil {
			return nil, fmt.Errorf("в шаблонах отсутствует define \"base\" для страницы %s", name)
		}
		t.templates[name] = tpl
	}
	return t, nil
}

// Render — страница со статусом 200
func (t *Templates) Render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return t.RenderStatus(w, r, http.StatusOK, name, title, data)
}

// RenderStatus рендерит в буфер и только потом пишет ответ: при ошибке шаблона
// клиент не получит половину страницы, а ошибку обработает вызывающий.
func (t *Templates) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) error {
	tpl, ok := t.templates[name]
	if !ok {
		core.LogError("Шаблон не найден", map[string]interface{}{"template": name})
		return fmt.Errorf("шаблон не найден: %s", name)
	}

	user, _ := r.Context().Value(core.CtxUser).(*storage.User)
	page := PageData{
		Title:     title,
		CSRFField: csrf.TemplateField(r),
		Nonce:     core.CSPNonce(r),
		User:      user,
		Globals:   t.globals,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", page); err != nil {
		core.LogError("Template rendering failed", map[string]interface{}{
			"template": name,
			"error":    err.Error(),
		})
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
