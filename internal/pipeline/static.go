package pipeline

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Static отдаёт файлы из публичного каталога и завершает цепочку.
// Если файла нет, запрос идёт дальше.
type Static struct {
	fsys  fs.FS
	cache bool
}

// NewStatic — каталог root; cache=true добавляет долгоживущий Cache-Control (prod)
func NewStatic(root string, cache bool) *Static {
	return NewStaticFS(os.DirFS(root), cache)
}

func NewStaticFS(fsys fs.FS, cache bool) *Static {
	return &Static{fsys: fsys, cache: cache}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Process(rc *RequestContext) Outcome {
	r := rc.Request()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return Continue()
	}
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || hasDotSegment(name) || !fs.ValidPath(name) {
		return Continue()
	}
	info, err := fs.Stat(s.fsys, name)
	if err != nil || !info.Mode().IsRegular() {
		return Continue()
	}

	w := rc.Writer()
	if s.cache {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("Vary", "Accept-Encoding")
	}
	http.ServeFileFS(w, r, s.fsys, name)
	return Respond()
}

// скрытые файлы (.env, .git) не отдаём
func hasDotSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
