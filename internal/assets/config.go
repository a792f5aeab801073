package assets

type Config struct {
	// Project root, all other paths are relative to it
	Root string
	// Entry point glob pattern for pages (e.g., "ui/pages/*.tsx")
	EntryPointGlob string
	// Entry point glob for route handlers that need a live server (e.g., "ui/api/*.ts")
	ServerOnlyGlob string
	// Directory of static files and images copied or served as-is
	PublicDir string
	// Output directory for built files, replaced by distDir when set
	OutputDir string
	// Subdirectory of OutputDir holding bundled scripts and styles
	AssetDir string
	// Path to metafile, kept outside the output tree
	MetafilePath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
	// PageTitle derives a page title from its entry point, the file stem when nil
	PageTitle func(entryPoint string) string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Root:           ".",
		EntryPointGlob: "ui/pages/*.tsx",
		ServerOnlyGlob: "ui/api/*.ts",
		PublicDir:      "public",
		OutputDir:      "out",
		AssetDir:       "assets",
		MetafilePath:   ".sitebuild/meta.json",
		Minify:         true,
		SourceMap:      true,
	}
}
