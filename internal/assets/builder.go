package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Build runs esbuild with the configured settings and loads metadata.
// In export mode entry points matching ServerOnlyGlob are rejected with ErrServerFeature.
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := p.glob(p.config.EntryPointGlob)
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		return fmt.Errorf("%w: %s", ErrNoEntryPoints, p.config.EntryPointGlob)
	}

	serverOnly, err := p.glob(p.config.ServerOnlyGlob)
	if err != nil {
		return err
	}

	entryPoints := pages
	if len(serverOnly) > 0 {
		if p.site.StaticExport() {
			return fmt.Errorf("%w: route handlers %s", ErrServerFeature, strings.Join(serverOnly, ", "))
		}
		entryPoints = append(append([]string{}, pages...), serverOnly...)
	}

	outDir := p.OutputDir()
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}

	log.Info().
		Strs("entrypoints", entryPoints).
		Str("output", string(p.site.OutputMode)).
		Str("outdir", outDir).
		Msg("Building assets")

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:     p.root,
		EntryPoints:       entryPoints,
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		JSX:               api.JSXAutomatic,
		Outdir:            filepath.Join(outDir, p.config.AssetDir),
		Format:            api.FormatESModule,
		MinifyWhitespace:  p.config.Minify,
		MinifyIdentifiers: p.config.Minify,
		MinifySyntax:      p.config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
	})

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return errors.New("esbuild failed with errors")
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
	}

	metafilePath := filepath.Join(p.root, p.config.MetafilePath)
	if err := os.MkdirAll(filepath.Dir(metafilePath), 0o750); err != nil {
		return err
	}

	// Write metafile
	if err := os.WriteFile(metafilePath, []byte(result.Metafile), 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return err
	}

	p.metadata = &metadata
	p.pages = pages
	return nil
}

// glob matches pattern under the project root and returns slash separated
// paths relative to it, which is how esbuild reports entry points.
func (p *Pipeline) glob(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(p.root, pattern))
	if err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(p.root, m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, filepath.ToSlash(rel))
	}
	sort.Strings(entries)
	return entries, nil
}

// Pages returns the page entry points found by the last Build
func (p *Pipeline) Pages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]string{}, p.pages...)
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	scripts, _, entrypoint, err := p.resolveEntry(entryPointPath)
	return scripts, entrypoint, err
}

// resolveEntry must be called with p.mu held
func (p *Pipeline) resolveEntry(entryPointPath string) ([]string, []string, string, error) {
	if p.metadata == nil {
		return nil, nil, "", ErrNotBuilt
	}

	// sorted for a stable script order across builds
	outputs := make([]string, 0, len(p.metadata.Outputs))
	for outputPath := range p.metadata.Outputs {
		outputs = append(outputs, outputPath)
	}
	sort.Strings(outputs)

	// Find the output file for this entrypoint
	for _, outputPath := range outputs {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath {
			continue
		}

		entrypoint := p.urlFor(outputPath)
		scripts := []string{entrypoint}
		visited := map[string]bool{outputPath: true}
		p.addDependencies(info, &scripts, visited)

		var stylesheets []string
		if info.CSSBundle != "" {
			stylesheets = append(stylesheets, p.urlFor(info.CSSBundle))
		}
		return scripts, stylesheets, entrypoint, nil
	}

	return nil, nil, "", errors.New("entrypoint not found in metadata")
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		// dynamic imports are fetched on demand by the chunk itself
		if imp.Kind == "dynamic-import" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.urlFor(imp.Path))

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// urlFor maps a metafile output path, relative to the project root, to the
// URL it is served from with the output directory as the site root.
func (p *Pipeline) urlFor(outputPath string) string {
	prefix := path.Clean(filepath.ToSlash(p.config.OutputDir)) + "/"
	return "/" + strings.TrimPrefix(outputPath, prefix)
}

// Handler returns an http.HandlerFunc that renders the page template for entryPointPath with its scripts
func (p *Pipeline) Handler(title, entryPointPath string, contextFn func(ctx context.Context) any) (http.HandlerFunc, error) {
	if p.tmpl == nil {
		return nil, errors.New("template not loaded, use New or NewWithTemplate")
	}

	if contextFn == nil {
		contextFn = func(ctx context.Context) any {
			return nil
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.RLock()
		scripts, stylesheets, _, err := p.resolveEntry(entryPointPath)
		p.mu.RUnlock()
		if err != nil {
			log.Error().Err(err).Msg("Failed to load scripts")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := PageData{
			Title:       title,
			Path:        r.URL.Path,
			Scripts:     scripts,
			Stylesheets: stylesheets,
			Context:     contextFn(r.Context()),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := p.tmpl.ExecuteTemplate(w, p.tmplName, data); err != nil {
			log.Error().Err(err).Msg("Failed to render template")
		}
	}, nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
