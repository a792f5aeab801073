package buildconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a configuration document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the document format from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported config format %q (expected .yaml, .yml or .json)", ErrInvalidConfig, filepath.Ext(path))
	}
}

// Load reads, decodes and validates the configuration file at path.
// Any failure wraps ErrInvalidConfig except for I/O errors reading the file.
func Load(path string) (Config, error) {
	path = filepath.Clean(path)

	format, err := FormatForPath(path)
	if err != nil {
		return Config{}, err
	}

	// #nosec G304 -- configuration file path is provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Str("output", string(cfg.OutputMode)).
		Bool("images_unoptimized", cfg.Images.Unoptimized).
		Msg("Loaded build configuration")

	return cfg, nil
}

// Parse decodes a configuration document strictly and validates it.
// An empty document yields the defaults.
func Parse(data []byte, format Format) (Config, error) {
	var (
		fc  fileConfig
		err error
	)

	switch format {
	case FormatYAML:
		err = decodeYAML(data, &fc)
	case FormatJSON:
		err = decodeJSON(data, &fc)
	default:
		err = fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, format)
	}
	if err != nil {
		return Config{}, err
	}

	return resolve(fc)
}

func decodeYAML(data []byte, fc *fileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // reject unknown fields

	if err := dec.Decode(fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: strict yaml parse error: %w", ErrInvalidConfig, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: config contains multiple documents or trailing content", ErrInvalidConfig)
	}

	return nil
}

func decodeJSON(data []byte, fc *fileConfig) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: strict json parse error: %w", ErrInvalidConfig, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: config contains trailing content", ErrInvalidConfig)
	}

	return nil
}
