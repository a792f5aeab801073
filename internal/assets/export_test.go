package assets

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageFileAndRoute(t *testing.T) {
	tests := []struct {
		name          string
		page          string
		trailingSlash bool
		file          string
		route         string
	}{
		{name: "index", page: "index", file: "index.html", route: "/"},
		{name: "index with trailing slash", page: "index", trailingSlash: true, file: "index.html", route: "/"},
		{name: "page", page: "about", file: "about.html", route: "/about"},
		{name: "page with trailing slash", page: "about", trailingSlash: true, file: "about/index.html", route: "/about/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.file, pageFile(tt.page, tt.trailingSlash))
			require.Equal(t, tt.route, pageRoute(tt.page, tt.trailingSlash))
		})
	}
}

func TestPageName(t *testing.T) {
	require.Equal(t, "about", pageName("ui/pages/about.tsx"))
	require.Equal(t, "index", pageName("index.js"))
}

func TestParseImageRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
		rel     string
		opts    ImageOptions
	}{
		{
			name:   "width and default quality",
			target: "/_image?url=/img/photo.png&w=640",
			rel:    "img/photo.png",
			opts:   ImageOptions{Width: 640, Quality: 75, ContentType: "image/png"},
		},
		{
			name:   "explicit quality",
			target: "/_image?url=/photo.jpg&w=320&q=50",
			rel:    "photo.jpg",
			opts:   ImageOptions{Width: 320, Quality: 50, ContentType: "image/jpeg"},
		},
		{
			name:   "traversal is cleaned to the root",
			target: "/_image?url=/../../secret.png&w=10",
			rel:    "secret.png",
			opts:   ImageOptions{Width: 10, Quality: 75, ContentType: "image/png"},
		},
		{name: "relative url", target: "/_image?url=photo.png&w=640", wantErr: true},
		{name: "missing url", target: "/_image?w=640", wantErr: true},
		{name: "not an image", target: "/_image?url=/app.js&w=640", wantErr: true},
		{name: "missing width", target: "/_image?url=/photo.png", wantErr: true},
		{name: "width too large", target: "/_image?url=/photo.png&w=10000", wantErr: true},
		{name: "quality out of range", target: "/_image?url=/photo.png&w=64&q=0", wantErr: true},
		{name: "quality not a number", target: "/_image?url=/photo.png&w=64&q=high", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, opts, err := parseImageRequest(httptest.NewRequest("GET", tt.target, nil))
			if tt.wantErr {
				require.ErrorIs(t, err, errBadImageRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.rel, rel)
			require.Equal(t, tt.opts, opts)
		})
	}
}
