package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wolfeidau/sitebuild/internal/buildconfig"
)

var (
	// ErrNoEntryPoints indicates the entry point glob matched nothing
	ErrNoEntryPoints = errors.New("no entry points found")
	// ErrServerFeature indicates a feature that needs a live server was requested in export mode
	ErrServerFeature = errors.New("feature requires a live server and is not available in export mode")
	// ErrNotExportMode indicates a static export was requested for a server build
	ErrNotExportMode = errors.New("static export requires output mode export")
	// ErrExportMode indicates the live server handler was requested for an export build
	ErrExportMode = errors.New("live server handler is not available in export mode")
	// ErrOutputCollision indicates two exported files map to the same output path
	ErrOutputCollision = errors.New("export output collision")
	// ErrNotBuilt indicates metadata was requested before Build
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

const defaultTemplateName = "page"

const defaultPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
{{- range .Stylesheets }}
<link rel="stylesheet" href="{{ . }}">
{{- end }}
</head>
<body>
<div id="root" data-context="{{ marshal .Context }}"></div>
{{- range .Scripts }}
<script type="module" src="{{ . }}"></script>
{{- end }}
</body>
</html>
`

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// PageData is passed to the page template
type PageData struct {
	Title       string
	Path        string
	Scripts     []string
	Stylesheets []string
	Context     any
}

// Pipeline manages the asset build process and script loading
type Pipeline struct {
	config   Config
	site     buildconfig.Config
	root     string
	pages    []string
	metadata *BuildMetadata
	tmpl     *template.Template
	tmplName string
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the built-in page template
func New(config Config, site buildconfig.Config) (*Pipeline, error) {
	p, err := newPipeline(config, site)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(defaultTemplateName).Funcs(templateFuncs(nil)).Parse(defaultPageTemplate)
	if err != nil {
		return nil, err
	}
	p.tmpl = tmpl
	p.tmplName = defaultTemplateName
	return p, nil
}

// NewWithTemplate creates a new asset pipeline and loads a single page template
func NewWithTemplate(config Config, site buildconfig.Config, templatePath string) (*Pipeline, error) {
	return NewWithTemplateAndFuncs(config, site, templatePath, nil)
}

// NewWithTemplateAndFuncs creates a new asset pipeline and loads a single page template with custom functions
func NewWithTemplateAndFuncs(config Config, site buildconfig.Config, templatePath string, customFuncs template.FuncMap) (*Pipeline, error) {
	p, err := newPipeline(config, site)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(templateFuncs(customFuncs)).ParseFiles(templatePath)
	if err != nil {
		return nil, err
	}
	p.tmpl = tmpl
	p.tmplName = filepath.Base(templatePath)
	return p, nil
}

func newPipeline(config Config, site buildconfig.Config) (*Pipeline, error) {
	if err := buildconfig.Validate(site); err != nil {
		return nil, err
	}

	if site.DistDir != "" {
		config.OutputDir = site.DistDir
	}

	out := filepath.Clean(config.OutputDir)
	if out == "." || filepath.IsAbs(out) || out == ".." || strings.HasPrefix(out, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: output directory %q must be a relative path inside the project root", buildconfig.ErrInvalidConfig, config.OutputDir)
	}
	config.OutputDir = out

	// Build removes the output directory, it must not hold any of the inputs
	inputs := []struct{ kind, dir string }{
		{"public", config.PublicDir},
		{"entry point", globBase(config.EntryPointGlob)},
		{"server-only entry point", globBase(config.ServerOnlyGlob)},
		{"metafile", filepath.Dir(config.MetafilePath)},
	}
	for _, in := range inputs {
		if in.dir == "" {
			continue
		}
		dir := filepath.Clean(in.dir)
		if dir == "." {
			continue
		}
		if overlaps(out, dir) {
			return nil, fmt.Errorf("%w: output directory %q overlaps the %s directory %q", buildconfig.ErrInvalidConfig, out, in.kind, dir)
		}
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	return &Pipeline{
		config: config,
		site:   site,
		root:   root,
	}, nil
}

// globBase returns the directory part of pattern before its first wildcard
func globBase(pattern string) string {
	if pattern == "" {
		return ""
	}

	var base []string
	for _, part := range strings.Split(filepath.ToSlash(pattern), "/") {
		if strings.ContainsAny(part, `*?[\`) {
			return filepath.FromSlash(strings.Join(base, "/"))
		}
		base = append(base, part)
	}
	return filepath.Dir(filepath.FromSlash(pattern))
}

// overlaps reports whether a and b are the same directory or one contains the other
func overlaps(a, b string) bool {
	sep := string(filepath.Separator)
	return a == b || strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}

// OutputDir returns the absolute path of the output tree
func (p *Pipeline) OutputDir() string {
	return filepath.Join(p.root, p.config.OutputDir)
}

func (p *Pipeline) pageTitle(entry string) string {
	if p.config.PageTitle != nil {
		return p.config.PageTitle(entry)
	}
	return pageName(entry)
}

// Site returns the build configuration the pipeline honors
func (p *Pipeline) Site() buildconfig.Config {
	return p.site
}

func templateFuncs(customFuncs template.FuncMap) template.FuncMap {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)
	return funcs
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return strings.TrimSpace(buf.String())
}
