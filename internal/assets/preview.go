package assets

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzhttp"
)

// PreviewHandler serves the exported tree the way a static file host does:
// extensionless paths fall back to the matching .html page, directories to
// their index.html. Responses are gzip-compressed when compress is set.
// Export must be called first.
func (p *Pipeline) PreviewHandler() (http.Handler, error) {
	if !p.site.StaticExport() {
		return nil, ErrNotExportMode
	}

	dir := p.OutputDir()
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return nil, ErrNotBuilt
	}

	var handler http.Handler = &staticHost{dir: dir, files: http.FileServer(http.Dir(dir))}
	if p.site.Compress {
		handler = gzhttp.GzipHandler(handler)
	}
	return handler, nil
}

type staticHost struct {
	dir   string
	files http.Handler
}

func (h *staticHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upath := path.Clean("/" + r.URL.Path)

	if upath != "/" && !strings.HasSuffix(r.URL.Path, "/") && path.Ext(upath) == "" {
		if _, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(upath))); os.IsNotExist(err) {
			page := upath + ".html"
			if fi, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(page))); err == nil && !fi.IsDir() {
				r2 := r.Clone(r.Context())
				r2.URL.Path = page
				r2.URL.RawPath = ""
				h.files.ServeHTTP(w, r2)
				return
			}
		}
	}

	h.files.ServeHTTP(w, r)
}
