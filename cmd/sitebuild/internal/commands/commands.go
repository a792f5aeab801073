package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wolfeidau/sitebuild/internal/assets"
	"github.com/wolfeidau/sitebuild/internal/buildconfig"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConfigFlags selects the build configuration file
type ConfigFlags struct {
	Config string `help:"path to the build configuration (YAML or JSON)" default:"site.yaml" env:"SITEBUILD_CONFIG"`
}

func (c *ConfigFlags) load() (buildconfig.Config, error) {
	cfg, err := buildconfig.Load(c.Config)
	if err != nil {
		return buildconfig.Config{}, fmt.Errorf("failed to load build configuration: %w", err)
	}
	return cfg, nil
}

// PipelineFlags configures where the asset pipeline reads and writes files
type PipelineFlags struct {
	Root       string `help:"project root directory" default:"." env:"SITEBUILD_ROOT"`
	Pages      string `help:"glob of page entry points" default:"ui/pages/*.tsx" env:"SITEBUILD_PAGES"`
	ServerOnly string `help:"glob of route handlers that need a live server" default:"ui/api/*.ts" env:"SITEBUILD_SERVER_ONLY"`
	Public     string `help:"directory of static files and images" default:"public" env:"SITEBUILD_PUBLIC"`
	Out        string `help:"output directory, overridden by distDir in the build configuration" default:"out" env:"SITEBUILD_OUT"`
	Template   string `help:"page template file, the built-in template is used when empty" default:"" env:"SITEBUILD_TEMPLATE"`
	Minify     bool   `help:"minify bundles" default:"true" negatable:""`
	SourceMap  bool   `help:"emit linked source maps" default:"true" negatable:""`
}

func (f *PipelineFlags) assetsConfig() assets.Config {
	cfg := assets.DefaultConfig()
	cfg.Root = f.Root
	cfg.EntryPointGlob = f.Pages
	cfg.ServerOnlyGlob = f.ServerOnly
	cfg.PublicDir = f.Public
	cfg.OutputDir = f.Out
	cfg.Minify = f.Minify
	cfg.SourceMap = f.SourceMap
	return cfg
}

func (f *PipelineFlags) pipeline(site buildconfig.Config) (*assets.Pipeline, error) {
	if f.Template != "" {
		return assets.NewWithTemplate(f.assetsConfig(), site, f.Template)
	}
	return assets.New(f.assetsConfig(), site)
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
