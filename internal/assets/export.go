package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Manifest lists the files written by Export, relative to the output directory
type Manifest struct {
	Pages      []string
	Static     []string
	Images     []string
	Compressed []string
}

// Export renders every page to HTML and copies public files into the output
// tree, producing a site that needs no live process to serve. Images are
// copied byte for byte. Build must be called first.
func (p *Pipeline) Export(ctx context.Context) (*Manifest, error) {
	if !p.site.StaticExport() {
		return nil, ErrNotExportMode
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	outDir := p.OutputDir()
	manifest := &Manifest{}

	// output path -> what produced it, bundles are already on disk
	emitted := make(map[string]string, len(p.metadata.Outputs)+len(p.pages))
	for outputPath := range p.metadata.Outputs {
		emitted[strings.TrimPrefix(p.urlFor(outputPath), "/")] = "bundle " + outputPath
	}

	for _, entry := range p.pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := pageFile(pageName(entry), p.site.TrailingSlash)
		if err := claimOutput(emitted, rel, "page "+entry); err != nil {
			return nil, err
		}

		if err := p.exportPage(entry, rel, outDir); err != nil {
			return nil, fmt.Errorf("failed to export page %s: %w", entry, err)
		}
		manifest.Pages = append(manifest.Pages, rel)
	}

	if err := p.copyPublic(ctx, outDir, emitted, manifest); err != nil {
		return nil, fmt.Errorf("failed to copy public files: %w", err)
	}

	if p.site.Compress {
		compressed, err := precompressTree(ctx, outDir)
		if err != nil {
			return nil, fmt.Errorf("failed to precompress output: %w", err)
		}
		manifest.Compressed = compressed
	}

	sort.Strings(manifest.Pages)
	sort.Strings(manifest.Static)
	sort.Strings(manifest.Images)

	log.Info().
		Int("pages", len(manifest.Pages)).
		Int("static", len(manifest.Static)).
		Int("images", len(manifest.Images)).
		Int("compressed", len(manifest.Compressed)).
		Str("outdir", outDir).
		Msg("Exported static site")

	return manifest, nil
}

// claimOutput records rel as produced by source, failing if something else already produced it
func claimOutput(emitted map[string]string, rel, source string) error {
	if existing, ok := emitted[rel]; ok {
		return fmt.Errorf("%w: %s from %s would overwrite %s", ErrOutputCollision, rel, source, existing)
	}
	emitted[rel] = source
	return nil
}

func (p *Pipeline) exportPage(entry, rel, outDir string) error {
	scripts, stylesheets, _, err := p.resolveEntry(entry)
	if err != nil {
		return err
	}

	name := pageName(entry)

	var buf bytes.Buffer
	data := PageData{
		Title:       p.pageTitle(entry),
		Path:        pageRoute(name, p.site.TrailingSlash),
		Scripts:     scripts,
		Stylesheets: stylesheets,
	}
	if err := p.tmpl.ExecuteTemplate(&buf, p.tmplName, data); err != nil {
		return err
	}

	dst := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- published site content
		return err
	}

	log.Debug().Str("entrypoint", entry).Str("file", rel).Msg("Exported page")
	return nil
}

func (p *Pipeline) copyPublic(ctx context.Context, outDir string, emitted map[string]string, manifest *Manifest) error {
	if p.config.PublicDir == "" {
		return nil
	}

	publicDir := filepath.Join(p.root, p.config.PublicDir)
	if _, err := os.Stat(publicDir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(publicDir, func(src string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(publicDir, src)
		if err != nil {
			return err
		}
		if err := claimOutput(emitted, filepath.ToSlash(rel), "public file "+filepath.ToSlash(rel)); err != nil {
			return err
		}
		if err := copyFile(src, filepath.Join(outDir, rel)); err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if isImage(rel) {
			manifest.Images = append(manifest.Images, rel)
		} else {
			manifest.Static = append(manifest.Static, rel)
		}
		return nil
	})
}

func copyFile(src, dst string) error {
	// #nosec G304 -- source paths come from walking the project's public directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// pageName derives the page name from its entry point, "ui/pages/about.tsx" becomes "about"
func pageName(entry string) string {
	base := path.Base(entry)
	return strings.TrimSuffix(base, path.Ext(base))
}

// pageFile returns the output file for a page, relative to the output directory
func pageFile(name string, trailingSlash bool) string {
	switch {
	case name == "index":
		return "index.html"
	case trailingSlash:
		return name + "/index.html"
	default:
		return name + ".html"
	}
}

// pageRoute returns the URL a page is reachable at
func pageRoute(name string, trailingSlash bool) string {
	switch {
	case name == "index":
		return "/"
	case trailingSlash:
		return "/" + name + "/"
	default:
		return "/" + name
	}
}
