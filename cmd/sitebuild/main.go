package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sitebuild/cmd/sitebuild/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Check   commands.CheckCmd `cmd:"" help:"Load and validate the build configuration"`
		Build   commands.BuildCmd `cmd:"" help:"Build the site, exporting static files in export mode"`
		Serve   commands.ServeCmd `cmd:"" help:"Build and serve the site"`
		Debug   bool              `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sitebuild"),
		kong.Description("Build a site as a server bundle or a static export."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
