package assets

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// ServeMux returns the live server-mode handler: pages are rendered per
// request, bundles are served from the output directory and public files
// from the site root, the same URLs an export produces. With image
// optimization enabled, /_image routes images through optimizer,
// PassthroughOptimizer when nil.
func (p *Pipeline) ServeMux(optimizer ImageOptimizer) (http.Handler, error) {
	if p.site.StaticExport() {
		return nil, ErrExportMode
	}

	pages := p.Pages()
	if len(pages) == 0 {
		return nil, ErrNotBuilt
	}

	mux := http.NewServeMux()

	assetPrefix := "/" + filepath.ToSlash(p.config.AssetDir) + "/"
	mux.Handle(assetPrefix, http.StripPrefix(assetPrefix, http.FileServer(http.Dir(filepath.Join(p.OutputDir(), p.config.AssetDir)))))

	publicDir := filepath.Join(p.root, p.config.PublicDir)
	if p.config.PublicDir != "" {
		if _, err := os.Stat(publicDir); err == nil {
			mux.Handle("/", http.FileServer(http.Dir(publicDir)))
		}
	}

	if !p.site.PassthroughImages() {
		if optimizer == nil {
			optimizer = PassthroughOptimizer{}
		}
		mux.Handle("GET /_image", &imageHandler{publicDir: publicDir, optimizer: optimizer})
	}

	for _, entry := range pages {
		name := pageName(entry)
		handler, err := p.Handler(p.pageTitle(entry), entry, nil)
		if err != nil {
			return nil, err
		}

		route := pageRoute(name, p.site.TrailingSlash)
		if route == "/" {
			route = "/{$}"
		}
		mux.Handle("GET "+route, handler)
		log.Debug().Str("route", route).Str("entrypoint", entry).Msg("Registered page")
	}

	if !p.site.Compress {
		return mux, nil
	}
	return gzhttp.GzipHandler(mux), nil
}
