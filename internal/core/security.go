package core

// security.go
import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/unrolled/secure"
)

// Directive — категория CSP
type Directive string

const (
	DefaultSrc     Directive = "default-src"
	ScriptSrc      Directive = "script-src"
	StyleSrc       Directive = "style-src"
	ConnectSrc     Directive = "connect-src"
	FontSrc        Directive = "font-src"
	ImgSrc         Directive = "img-src"
	WorkerSrc      Directive = "worker-src"
	ObjectSrc      Directive = "object-src"
	BaseURI        Directive = "base-uri"
	FormAction     Directive = "form-action"
	FrameAncestors Directive = "frame-ancestors"
)

// порядок вывода в заголовке
var directiveOrder = []Directive{
	DefaultSrc, ScriptSrc, StyleSrc, ConnectSrc, FontSrc, ImgSrc, WorkerSrc, ObjectSrc,
	BaseURI, FormAction, FrameAncestors,
}

// NoncePlaceholder подменяется unrolled/secure на 'nonce-<random>' в каждом запросе
const NoncePlaceholder = "$NONCE"

const (
	srcSelf         = "'self'"
	srcNone         = "'none'"
	srcUnsafeInline = "'unsafe-inline'"
	srcUnsafeEval   = "'unsafe-eval'"
)

var (
	keywordRe = regexp.MustCompile(`^'(self|none|unsafe-inline|unsafe-eval|unsafe-hashes|strict-dynamic|wasm-unsafe-eval|report-sample|nonce-[A-Za-z0-9+/=_-]+|sha(256|384|512)-[A-Za-z0-9+/=]+)'$`)
	schemeRe  = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:$`)

	ErrPolicyMalformed = errors.New("csp: некорректный набор директив")
)

// DirectiveSet — неизменяемый набор разрешённых источников по категориям CSP.
// Пустая категория означает "запрещено всё" и выводится как 'none'.
type DirectiveSet struct {
	sources map[Directive][]string
}

// NewDirectiveSet копирует источники (с удалением дублей, порядок сохраняется) и проверяет набор
func NewDirectiveSet(src map[Directive][]string) (DirectiveSet, error) {
	d := DirectiveSet{sources: make(map[Directive][]string, len(src))}
	for dir, list := range src {
		seen := make(map[string]struct{}, len(list))
		out := make([]string, 0, len(list))
		for _, s := range list {
			s = strings.TrimSpace(s)
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		d.sources[dir] = out
	}
	if err := d.Validate(); err != nil {
		return DirectiveSet{}, err
	}
	return d, nil
}

// DefaultDirectives — политика для карт (mapbox), оплаты (stripe), шрифтов (google fonts) и бандла
func DefaultDirectives() (DirectiveSet, error) {
	defaultSrcs := []string{"https://js.stripe.com", "https://ssl.gstatic.com"}
	scriptSrcs := []string{
		"https://api.tiles.mapbox.com/",
		"https://api.mapbox.com/",
		"https://cdnjs.cloudflare.com/ajax/libs/axios/1.2.1/axios.min.js",
		"https://parceljs.org/",
		"https://js.stripe.com/",
		"https://fonts.googleapis.com/",
		"https://fonts.gstatic.com",
		"ws:",
		"https://js.stripe.com/v3/",
	}
	styleSrcs := []string{
		"https://api.mapbox.com/",
		"https://api.tiles.mapbox.com/",
		"https://fonts.googleapis.com/",
		"https://cdnjs.cloudflare.com/ajax/libs/axios/1.2.1/axios.min.js",
		"https://parceljs.org/",
		"https://js.stripe.com/v3/",
		"ws:",
		"https://fonts.gstatic.com",
	}
	connectSrcs := []string{
		"https://api.mapbox.com/",
		"https://a.tiles.mapbox.com/",
		"https://b.tiles.mapbox.com/",
		"https://events.mapbox.com/",
		"https://cdnjs.cloudflare.com/ajax/libs/axios/1.2.1/axios.min.js",
		"https://parceljs.org/",
		"https://js.stripe.com/v3/",
		"https://fonts.googleapis.com",
		"https://fonts.gstatic.com",
		"ws:",
	}
	fontSrcs := []string{"fonts.googleapis.com", "fonts.gstatic.com", "https://js.stripe.com/v3/"}

	return NewDirectiveSet(map[Directive][]string{
		DefaultSrc:     append([]string{srcSelf}, defaultSrcs...),
		ConnectSrc:     append([]string{srcSelf}, connectSrcs...),
		ScriptSrc:      append([]string{srcSelf, "blob:", "data:", "gap:", NoncePlaceholder}, scriptSrcs...),
		StyleSrc:       append([]string{srcSelf, "blob:", "data:", "gap:", srcUnsafeInline, srcUnsafeEval}, styleSrcs...),
		WorkerSrc:      {srcSelf, "blob:"},
		ObjectSrc:      {},
		ImgSrc:         {srcSelf, "blob:", "data:", "gap:"},
		FontSrc:        append([]string{srcSelf}, fontSrcs...),
		BaseURI:        {srcSelf},
		FormAction:     {srcSelf},
		FrameAncestors: {srcSelf},
	})
}

// Sources возвращает копию источников категории
func (d DirectiveSet) Sources(dir Directive) []string {
	list, ok := d.sources[dir]
	if !ok {
		return nil
	}
	return append([]string(nil), list...)
}

// Has — задана ли категория
func (d DirectiveSet) Has(dir Directive) bool {
	_, ok := d.sources[dir]
	return ok
}

// Validate проверяет набор: известные категории, непустой default-src,
// пустой object-src и корректный синтаксис каждого источника
func (d DirectiveSet) Validate() error {
	if len(d.sources) == 0 {
		return fmt.Errorf("%w: набор пуст", ErrPolicyMalformed)
	}
	known := make(map[Directive]struct{}, len(directiveOrder))
	for _, dir := range directiveOrder {
		known[dir] = struct{}{}
	}
	for dir, list := range d.sources {
		if _, ok := known[dir]; !ok {
			return fmt.Errorf("%w: неизвестная категория %q", ErrPolicyMalformed, dir)
		}
		for _, s := range list {
			if err := validateSource(s); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrPolicyMalformed, dir, err)
			}
			if s == srcNone && len(list) > 1 {
				return fmt.Errorf("%w: %s: 'none' нельзя смешивать с другими источниками", ErrPolicyMalformed, dir)
			}
		}
	}
	if len(d.sources[DefaultSrc]) == 0 {
		return fmt.Errorf("%w: default-src не задан", ErrPolicyMalformed)
	}
	if list, ok := d.sources[ObjectSrc]; !ok || len(list) > 0 {
		return fmt.Errorf("%w: object-src должен быть пустым", ErrPolicyMalformed)
	}
	return nil
}

func validateSource(s string) error {
	switch {
	case s == "":
		return errors.New("пустой источник")
	case s == NoncePlaceholder:
		return nil
	case strings.ContainsAny(s, " \t\r\n;,"):
		return fmt.Errorf("недопустимые символы в %q", s)
	case strings.HasPrefix(s, "'"):
		if !keywordRe.MatchString(s) {
			return fmt.Errorf("неизвестное ключевое слово %q", s)
		}
	case strings.HasSuffix(s, ":"):
		if !schemeRe.MatchString(s) {
			return fmt.Errorf("некорректная схема %q", s)
		}
	case strings.ContainsAny(s, "'\"%"):
		return fmt.Errorf("недопустимые символы в %q", s)
	}
	return nil
}

// String формирует значение заголовка Content-Security-Policy
func (d DirectiveSet) String() string {
	parts := make([]string, 0, len(d.sources))
	for _, dir := range directiveOrder {
		list, ok := d.sources[dir]
		if !ok {
			continue
		}
		if len(list) == 0 {
			parts = append(parts, string(dir)+" "+srcNone)
			continue
		}
		parts = append(parts, string(dir)+" "+strings.Join(list, " "))
	}
	return strings.Join(parts, "; ")
}

// SecureHeaders собирает middleware заголовков безопасности (Security Misconfiguration).
// Некорректная политика возвращается ошибкой: сервер не должен стартовать без защиты.
func SecureHeaders(policy DirectiveSet, cfg Config) (func(http.Handler) http.Handler, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	opts := secure.Options{
		ContentSecurityPolicy:   policy.String(),
		FrameDeny:               true,
		ContentTypeNosniff:      true,
		BrowserXssFilter:        true,
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "camera=(), microphone=(), geolocation=()",
		CrossOriginOpenerPolicy: "same-origin",
		IsDevelopment:           cfg.IsDev(),
	}
	// HSTS только в продакшене за HTTPS
	if cfg.IsProd() && cfg.Secure {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.STSPreload = true
	}
	return secure.New(opts).Handler, nil
}

// CSPNonce — nonce текущего запроса для <script nonce="..."> в шаблонах
func CSPNonce(r *http.Request) string {
	return secure.CSPNonce(r.Context())
}
