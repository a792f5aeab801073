package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
	".ico":  true,
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// ImageOptions are the transformation parameters of an optimization request
type ImageOptions struct {
	Width       int
	Quality     int
	ContentType string
}

// ImageOptimizer transforms image assets at request time. It is only used
// in server mode with images.unoptimized=false.
type ImageOptimizer interface {
	Optimize(ctx context.Context, src io.Reader, opts ImageOptions) (data []byte, contentType string, err error)
}

// PassthroughOptimizer writes the source image unmodified
type PassthroughOptimizer struct{}

func (PassthroughOptimizer) Optimize(_ context.Context, src io.Reader, opts ImageOptions) ([]byte, string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", err
	}
	return data, opts.ContentType, nil
}

const (
	defaultImageQuality = 75
	maxImageWidth       = 3840
)

var errBadImageRequest = errors.New("bad image request")

// imageHandler serves /_image?url=/photo.png&w=640&q=75 through an optimizer
type imageHandler struct {
	publicDir string
	optimizer ImageOptimizer
}

func (h *imageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel, opts, err := parseImageRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// #nosec G304 -- rel is cleaned and confined to the public directory by parseImageRequest
	f, err := os.Open(filepath.Join(h.publicDir, filepath.FromSlash(rel)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	data, contentType, err := h.optimizer.Optimize(r.Context(), f, opts)
	if err != nil {
		log.Error().Err(err).Str("url", rel).Msg("Failed to optimize image")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Vary", "Accept")
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Str("url", rel).Msg("Failed to write image response")
		return
	}
	log.Debug().Str("url", rel).Int("width", opts.Width).Str("content_type", contentType).Msg("Served image")
}

func parseImageRequest(r *http.Request) (string, ImageOptions, error) {
	q := r.URL.Query()

	raw := q.Get("url")
	if !strings.HasPrefix(raw, "/") {
		return "", ImageOptions{}, fmt.Errorf("%w: url must be an absolute path", errBadImageRequest)
	}
	rel := strings.TrimPrefix(path.Clean(raw), "/")
	if rel == "" || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ImageOptions{}, fmt.Errorf("%w: invalid url", errBadImageRequest)
	}
	if !isImage(rel) {
		return "", ImageOptions{}, fmt.Errorf("%w: url is not an image", errBadImageRequest)
	}

	width, err := strconv.Atoi(q.Get("w"))
	if err != nil || width <= 0 || width > maxImageWidth {
		return "", ImageOptions{}, fmt.Errorf("%w: w must be between 1 and %d", errBadImageRequest, maxImageWidth)
	}

	quality := defaultImageQuality
	if raw := q.Get("q"); raw != "" {
		quality, err = strconv.Atoi(raw)
		if err != nil || quality < 1 || quality > 100 {
			return "", ImageOptions{}, fmt.Errorf("%w: q must be between 1 and 100", errBadImageRequest)
		}
	}

	return rel, ImageOptions{
		Width:       width,
		Quality:     quality,
		ContentType: mime.TypeByExtension(path.Ext(rel)),
	}, nil
}
