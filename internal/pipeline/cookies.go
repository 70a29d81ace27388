package pipeline

import "net/url"

// CookieParser раскладывает заголовок Cookie в rc.Cookies.
// Значения в URL-кодировке декодируются, при ошибке остаются как есть.
type CookieParser struct{}

func NewCookieParser() *CookieParser { return &CookieParser{} }

func (CookieParser) Name() string { return "cookies" }

func (CookieParser) Process(rc *RequestContext) Outcome {
	for _, c := range rc.Request().Cookies() {
		if _, seen := rc.Cookies[c.Name]; seen {
			// первое значение выигрывает
			continue
		}
		v := c.Value
		if dec, err := url.QueryUnescape(v); err == nil {
			v = dec
		}
		rc.Cookies[c.Name] = v
	}
	return Continue()
}
