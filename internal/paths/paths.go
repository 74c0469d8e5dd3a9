// Package paths resolves the on-disk locations uniprotetl reads config
// from and writes scratch/state to, honoring XDG base directories with
// package-specific overrides.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
	StateDir  string
}

// GetPaths returns all base paths respecting environment variables.
func GetPaths() Paths {
	return Paths{
		ConfigDir: getDir("UNIPROTETL_CONFIG_HOME", "XDG_CONFIG_HOME", ".config", "uniprotetl"),
		DataDir:   getDir("UNIPROTETL_DATA_HOME", "XDG_DATA_HOME", ".local/share", "uniprotetl"),
		CacheDir:  getDir("UNIPROTETL_CACHE_HOME", "XDG_CACHE_HOME", ".cache", "uniprotetl"),
		StateDir:  getDir("UNIPROTETL_STATE_HOME", "XDG_STATE_HOME", ".local/state", "uniprotetl"),
	}
}

func getDir(appEnv, xdgEnv, defaultBase, appName string) string {
	if dir := os.Getenv(appEnv); dir != "" {
		return dir
	}
	if xdgBase := os.Getenv(xdgEnv); xdgBase != "" {
		return filepath.Join(xdgBase, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultBase, appName)
}

// GetSourceDataPath returns the directory the Acquirer expects the release
// XML files (uniprot_sprot.xml.gz, uniprot_trembl.xml.gz) to live in.
func GetSourceDataPath() string {
	if path := os.Getenv("UNIPROTETL_DATA_DIR"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().DataDir, "releases")
}

// GetScratchPath returns the base directory under which the Transformer
// creates one fresh, per-run subdirectory for its intermediate TSVs.
func GetScratchPath() string {
	if path := os.Getenv("UNIPROTETL_SCRATCH_DIR"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().CacheDir, "scratch")
}

// EnsureDirectories creates all necessary directories.
func EnsureDirectories() error {
	p := GetPaths()
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		GetSourceDataPath(),
		p.CacheDir,
		GetScratchPath(),
		p.StateDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
