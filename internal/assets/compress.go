package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

var compressibleExtensions = map[string]bool{
	".html": true,
	".js":   true,
	".css":  true,
	".json": true,
	".svg":  true,
	".map":  true,
	".txt":  true,
	".xml":  true,
}

// precompressTree writes a .gz sidecar next to every compressible file in dir
// so a static file host can serve them without compressing on the fly.
func precompressTree(ctx context.Context, dir string) ([]string, error) {
	var compressed []string

	err := filepath.WalkDir(dir, func(src string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !compressibleExtensions[strings.ToLower(filepath.Ext(src))] {
			return nil
		}

		if err := gzipFile(src, src+".gz"); err != nil {
			return fmt.Errorf("failed to compress %s: %w", src, err)
		}

		rel, err := filepath.Rel(dir, src)
		if err != nil {
			return err
		}
		compressed = append(compressed, filepath.ToSlash(rel)+".gz")
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(compressed)
	return compressed, nil
}

func gzipFile(src, dst string) error {
	// #nosec G304 -- paths come from walking the output directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	zw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		discardPartial(out, dst)
		return err
	}

	if _, err := io.Copy(zw, in); err != nil {
		if closeErr := zw.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close gzip writer during error cleanup")
		}
		discardPartial(out, dst)
		return err
	}

	if err := zw.Close(); err != nil {
		discardPartial(out, dst)
		return err
	}

	return out.Close()
}

// discardPartial closes and removes a partially written sidecar
func discardPartial(out *os.File, dst string) {
	if err := out.Close(); err != nil {
		log.Warn().Err(err).Str("file", dst).Msg("Failed to close partial file during error cleanup")
	}
	if err := os.Remove(dst); err != nil {
		log.Warn().Err(err).Str("file", dst).Msg("Failed to remove partial file")
	}
}
