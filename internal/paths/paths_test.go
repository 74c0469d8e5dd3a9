package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPaths(t *testing.T) {
	p := GetPaths()

	if p.ConfigDir == "" {
		t.Error("ConfigDir should not be empty")
	}
	if p.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if p.CacheDir == "" {
		t.Error("CacheDir should not be empty")
	}
	if p.StateDir == "" {
		t.Error("StateDir should not be empty")
	}

	if !strings.Contains(p.ConfigDir, "uniprotetl") {
		t.Errorf("ConfigDir should contain 'uniprotetl', got %q", p.ConfigDir)
	}
	if !strings.Contains(p.DataDir, "uniprotetl") {
		t.Errorf("DataDir should contain 'uniprotetl', got %q", p.DataDir)
	}
}

func TestGetPathsWithAppEnv(t *testing.T) {
	t.Setenv("UNIPROTETL_CONFIG_HOME", "/custom/config")
	t.Setenv("UNIPROTETL_DATA_HOME", "/custom/data")
	t.Setenv("UNIPROTETL_CACHE_HOME", "/custom/cache")
	t.Setenv("UNIPROTETL_STATE_HOME", "/custom/state")

	p := GetPaths()

	if p.ConfigDir != "/custom/config" {
		t.Errorf("expected ConfigDir '/custom/config', got %q", p.ConfigDir)
	}
	if p.DataDir != "/custom/data" {
		t.Errorf("expected DataDir '/custom/data', got %q", p.DataDir)
	}
	if p.CacheDir != "/custom/cache" {
		t.Errorf("expected CacheDir '/custom/cache', got %q", p.CacheDir)
	}
	if p.StateDir != "/custom/state" {
		t.Errorf("expected StateDir '/custom/state', got %q", p.StateDir)
	}
}

func TestGetPathsWithXDGEnv(t *testing.T) {
	t.Setenv("UNIPROTETL_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")

	p := GetPaths()
	if p.ConfigDir != "/xdg/config/uniprotetl" {
		t.Errorf("expected ConfigDir '/xdg/config/uniprotetl', got %q", p.ConfigDir)
	}
}

func TestGetSourceDataPath(t *testing.T) {
	path := GetSourceDataPath()
	if path == "" {
		t.Error("GetSourceDataPath should not return empty string")
	}
	if !strings.HasSuffix(path, "releases") {
		t.Errorf("expected path to end with 'releases', got %q", path)
	}
}

func TestGetSourceDataPathWithEnv(t *testing.T) {
	t.Setenv("UNIPROTETL_DATA_DIR", "/custom/path/releases")
	path := GetSourceDataPath()
	if path != "/custom/path/releases" {
		t.Errorf("expected '/custom/path/releases', got %q", path)
	}
}

func TestGetScratchPath(t *testing.T) {
	path := GetScratchPath()
	if path == "" {
		t.Error("GetScratchPath should not return empty string")
	}
	if !strings.HasSuffix(path, "scratch") {
		t.Errorf("expected path to end with 'scratch', got %q", path)
	}
}

func TestGetScratchPathWithEnv(t *testing.T) {
	t.Setenv("UNIPROTETL_SCRATCH_DIR", "/custom/scratch")
	path := GetScratchPath()
	if path != "/custom/scratch" {
		t.Errorf("expected '/custom/scratch', got %q", path)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("UNIPROTETL_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("UNIPROTETL_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("UNIPROTETL_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("UNIPROTETL_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("UNIPROTETL_DATA_DIR", "")
	t.Setenv("UNIPROTETL_SCRATCH_DIR", "")

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	expectedDirs := []string{
		filepath.Join(dir, "config"),
		filepath.Join(dir, "data"),
		filepath.Join(dir, "data", "releases"),
		filepath.Join(dir, "cache"),
		filepath.Join(dir, "cache", "scratch"),
		filepath.Join(dir, "state"),
	}

	for _, d := range expectedDirs {
		if _, err := os.Stat(d); os.IsNotExist(err) {
			t.Errorf("expected directory %q to be created", d)
		}
	}
}
