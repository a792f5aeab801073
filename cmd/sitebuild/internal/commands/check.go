package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/sitebuild/internal/logger"
)

// CheckCmd loads and validates the build configuration without building.
type CheckCmd struct {
	ConfigFlags
}

func (c *CheckCmd) Run(ctx context.Context, globals *Globals) error {
	logger.SetupGlobal(globals.Debug)

	cfg, err := c.load()
	if err != nil {
		return err
	}

	fmt.Printf("Configuration %s is valid\n", c.Config)
	fmt.Printf("  output:             %s\n", cfg.OutputMode)
	fmt.Printf("  images.unoptimized: %t\n", cfg.Images.Unoptimized)
	fmt.Printf("  trailingSlash:      %t\n", cfg.TrailingSlash)
	fmt.Printf("  compress:           %t\n", cfg.Compress)
	if cfg.DistDir != "" {
		fmt.Printf("  distDir:            %s\n", cfg.DistDir)
	}

	return nil
}
