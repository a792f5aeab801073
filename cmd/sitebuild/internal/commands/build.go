package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/sitebuild/internal/logger"
)

// BuildCmd bundles the site and, in export mode, writes the static tree.
type BuildCmd struct {
	ConfigFlags
	PipelineFlags
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.SetupGlobal(globals.Debug)

	// configuration errors abort before any asset processing
	site, err := c.load()
	if err != nil {
		return err
	}

	pipeline, err := c.pipeline(site)
	if err != nil {
		return fmt.Errorf("failed to load assets pipeline: %w", err)
	}

	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	if !site.StaticExport() {
		log.Info().Str("outdir", pipeline.OutputDir()).Msg("Server bundle built, run serve to render pages")
		return nil
	}

	manifest, err := pipeline.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export site: %w", err)
	}

	fmt.Printf("Exported %d pages, %d images and %d static files to %s\n",
		len(manifest.Pages), len(manifest.Images), len(manifest.Static), pipeline.OutputDir())

	return nil
}
