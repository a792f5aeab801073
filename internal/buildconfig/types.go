// Package buildconfig defines the build-time settings for a site's output:
// whether it is served by a live process or exported as static files, and
// how image assets are handled in each case.
package buildconfig

import "fmt"

// OutputMode selects what the build pipeline produces
type OutputMode string

const (
	// OutputServer produces a server bundle rendered at request time
	OutputServer OutputMode = "server"
	// OutputExport produces a self-contained static HTML/JS/CSS tree
	OutputExport OutputMode = "export"
)

// ParseOutputMode converts a raw value into an OutputMode. An empty value
// selects the default server mode.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(s) {
	case "", OutputServer:
		return OutputServer, nil
	case OutputExport:
		return OutputExport, nil
	default:
		return "", fmt.Errorf("unrecognized output mode %q (expected %q or %q)", s, OutputServer, OutputExport)
	}
}

// Images controls asset-image handling
type Images struct {
	// Unoptimized passes images through unmodified instead of routing them
	// through the optimization service.
	Unoptimized bool
}

// Config is the validated build configuration. It is constructed by Load or
// Parse and is not modified afterwards.
type Config struct {
	OutputMode    OutputMode
	Images        Images
	TrailingSlash bool
	DistDir       string
	Compress      bool
}

// Default returns the configuration used when a field is omitted
func Default() Config {
	return Config{
		OutputMode: OutputServer,
		Compress:   true,
	}
}

// StaticExport reports whether the pipeline must emit a static asset tree
func (c Config) StaticExport() bool {
	return c.OutputMode == OutputExport
}

// PassthroughImages reports whether image assets are copied unmodified
func (c Config) PassthroughImages() bool {
	return c.Images.Unoptimized
}

// fileConfig mirrors the on-disk shape. Pointers distinguish omitted keys
// from zero values so defaults can be applied.
type fileConfig struct {
	Output        *string     `yaml:"output" json:"output"`
	Images        *fileImages `yaml:"images" json:"images"`
	TrailingSlash *bool       `yaml:"trailingSlash" json:"trailingSlash"`
	DistDir       *string     `yaml:"distDir" json:"distDir"`
	Compress      *bool       `yaml:"compress" json:"compress"`
}

type fileImages struct {
	Unoptimized *bool `yaml:"unoptimized" json:"unoptimized"`
}
