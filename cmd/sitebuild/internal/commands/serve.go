package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/sitebuild/internal/assets"
	httpmiddleware "github.com/wolfeidau/sitebuild/internal/http"
	"github.com/wolfeidau/sitebuild/internal/logger"
)

// ServeCmd builds the site and serves it. Server mode renders pages per
// request, export mode previews the exported tree as a static file host would.
type ServeCmd struct {
	ConfigFlags
	PipelineFlags

	Listen string `help:"HTTP server listen address" default:"127.0.0.1:3000" env:"SITEBUILD_LISTEN"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.SetupGlobal(globals.Debug)

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

	handler, err := c.handler(ctx, pipeline)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := configureHTTPServer(c.Listen, httpmiddleware.AccessLog(log, handler))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Str("output", string(site.OutputMode)).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *ServeCmd) handler(ctx context.Context, pipeline *assets.Pipeline) (http.Handler, error) {
	if !pipeline.Site().StaticExport() {
		return pipeline.ServeMux(nil)
	}

	if _, err := pipeline.Export(ctx); err != nil {
		return nil, fmt.Errorf("failed to export site: %w", err)
	}
	return pipeline.PreviewHandler()
}
