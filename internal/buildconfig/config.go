package buildconfig

import (
	"path/filepath"
	"strings"
)

// Validate checks the invariants of a configuration. It returns a
// *ValidationError wrapping ErrInvalidConfig listing every problem found.
func Validate(cfg Config) error {
	verr := &ValidationError{}

	switch cfg.OutputMode {
	case OutputServer, OutputExport:
	default:
		verr.add("output", "unrecognized output mode %q", cfg.OutputMode)
	}

	// the optimization service needs a running server, which export never has
	if cfg.OutputMode == OutputExport && !cfg.Images.Unoptimized {
		verr.add("images.unoptimized", "must be true when output is %q", OutputExport)
	}

	if cfg.DistDir != "" {
		validateDistDir(verr, cfg.DistDir)
	}

	return verr.orNil()
}

func validateDistDir(verr *ValidationError, dir string) {
	if filepath.IsAbs(dir) {
		verr.add("distDir", "must be a relative path, got %q", dir)
		return
	}

	clean := filepath.Clean(dir)
	if clean == "." {
		verr.add("distDir", "must not be the project root")
		return
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		verr.add("distDir", "must stay inside the project, got %q", dir)
	}
}

// resolve applies defaults to the decoded file shape and validates the result
func resolve(fc fileConfig) (Config, error) {
	cfg := Default()
	verr := &ValidationError{}

	if fc.Output != nil {
		mode, err := ParseOutputMode(*fc.Output)
		if err != nil {
			verr.add("output", "%v", err)
		} else {
			cfg.OutputMode = mode
		}
	}
	if fc.Images != nil && fc.Images.Unoptimized != nil {
		cfg.Images.Unoptimized = *fc.Images.Unoptimized
	}
	if fc.TrailingSlash != nil {
		cfg.TrailingSlash = *fc.TrailingSlash
	}
	if fc.DistDir != nil {
		cfg.DistDir = *fc.DistDir
	}
	if fc.Compress != nil {
		cfg.Compress = *fc.Compress
	}

	// an unparseable mode has already been reported, skip mode-dependent checks
	if len(verr.Fields) > 0 {
		return Config{}, verr
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
