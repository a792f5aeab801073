package buildconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		expected Config
	}{
		{
			name: "static export with unoptimized images",
			input: `
output: export
images:
  unoptimized: true
`,
			expected: Config{OutputMode: OutputExport, Images: Images{Unoptimized: true}, Compress: true},
		},
		{
			name: "export with optimized images",
			input: `
output: export
images:
  unoptimized: false
`,
			wantErr: true,
		},
		{
			name: "server with optimized images",
			input: `
output: server
images:
  unoptimized: false
`,
			expected: Config{OutputMode: OutputServer, Compress: true},
		},
		{
			name:     "images omitted in server mode",
			input:    "output: server\n",
			expected: Config{OutputMode: OutputServer, Compress: true},
		},
		{
			name:    "images omitted in export mode",
			input:   "output: export\n",
			wantErr: true,
		},
		{
			name:    "images present but empty in export mode",
			input:   "output: export\nimages: {}\n",
			wantErr: true,
		},
		{
			name:     "empty document",
			input:    "",
			expected: Default(),
		},
		{
			name:     "comments only",
			input:    "# nothing configured\n",
			expected: Default(),
		},
		{
			name: "supplemental fields",
			input: `
output: export
images:
  unoptimized: true
trailingSlash: true
distDir: build/site
compress: false
`,
			expected: Config{
				OutputMode:    OutputExport,
				Images:        Images{Unoptimized: true},
				TrailingSlash: true,
				DistDir:       "build/site",
			},
		},
		{
			name:    "unrecognized output mode",
			input:   "output: standalone\n",
			wantErr: true,
		},
		{
			name:    "unknown top level key",
			input:   "output: server\nbasePath: /docs\n",
			wantErr: true,
		},
		{
			name:    "unknown images key",
			input:   "images:\n  domains: [example.com]\n",
			wantErr: true,
		},
		{
			name:    "wrong type for unoptimized",
			input:   "images:\n  unoptimized: sometimes\n",
			wantErr: true,
		},
		{
			name:    "wrong type for images",
			input:   "images: true\n",
			wantErr: true,
		},
		{
			name:    "document is not a mapping",
			input:   "- output\n- export\n",
			wantErr: true,
		},
		{
			name:    "multiple documents",
			input:   "output: server\n---\noutput: export\n",
			wantErr: true,
		},
		{
			name:    "absolute distDir",
			input:   "distDir: /var/www\n",
			wantErr: true,
		},
		{
			name:    "distDir escaping the project",
			input:   "distDir: ../out\n",
			wantErr: true,
		},
		{
			name:    "distDir at project root",
			input:   "distDir: ./\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input), FormatYAML)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg)
		})
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		expected Config
	}{
		{
			name:     "static export",
			input:    `{"output": "export", "images": {"unoptimized": true}}`,
			expected: Config{OutputMode: OutputExport, Images: Images{Unoptimized: true}, Compress: true},
		},
		{
			name:    "export with optimized images",
			input:   `{"output": "export", "images": {"unoptimized": false}}`,
			wantErr: true,
		},
		{
			name:     "server with optimized images",
			input:    `{"output": "server", "images": {"unoptimized": false}}`,
			expected: Config{OutputMode: OutputServer, Compress: true},
		},
		{
			name:     "empty object",
			input:    `{}`,
			expected: Default(),
		},
		{
			name:     "empty input",
			input:    ``,
			expected: Default(),
		},
		{
			name:    "wrong type for output",
			input:   `{"output": 5}`,
			wantErr: true,
		},
		{
			name:    "string instead of boolean",
			input:   `{"images": {"unoptimized": "true"}}`,
			wantErr: true,
		},
		{
			name:    "unknown key",
			input:   `{"output": "export", "images": {"unoptimized": true}, "reactStrictMode": true}`,
			wantErr: true,
		},
		{
			name:    "trailing content",
			input:   `{"output": "server"} {"output": "export"}`,
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   `{"output": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input), FormatJSON)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg)
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("output = 'export'"), Format("toml"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []string{
		"output: export\nimages:\n  unoptimized: true\n",
		"output: export\nimages:\n  unoptimized: false\n",
		"output: server\n",
		"output: bogus\n",
	}

	for _, input := range inputs {
		first, firstErr := Parse([]byte(input), FormatYAML)
		second, secondErr := Parse([]byte(input), FormatYAML)

		require.Equal(t, first, second)
		if firstErr == nil {
			require.NoError(t, secondErr)
		} else {
			require.EqualError(t, secondErr, firstErr.Error())
		}
	}
}

func TestParse_ReportsAllFields(t *testing.T) {
	_, err := Parse([]byte("output: export\ndistDir: /abs\n"), FormatYAML)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "images.unoptimized", verr.Fields[0].Field)
	require.Equal(t, "distDir", verr.Fields[1].Field)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	t.Run("yaml file", func(t *testing.T) {
		path := write("site.yaml", "output: export\nimages:\n  unoptimized: true\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		require.True(t, cfg.StaticExport())
		require.True(t, cfg.PassthroughImages())
	})

	t.Run("yml file", func(t *testing.T) {
		path := write("site.yml", "output: server\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		require.False(t, cfg.StaticExport())
	})

	t.Run("json file", func(t *testing.T) {
		path := write("site.json", `{"output": "export", "images": {"unoptimized": true}}`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.True(t, cfg.StaticExport())
	})

	t.Run("invalid file names the path", func(t *testing.T) {
		path := write("broken.yaml", "output: export\n")
		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.Contains(t, err.Error(), path)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := write("next.config.ts", "export default {}")
		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
