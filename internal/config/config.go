// Package config loads uniprotetl's run configuration: source data
// location, parser profile, worker count, and the Postgres connection used
// by the Loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/nishad/uniprotetl/internal/paths"
	"gopkg.in/yaml.v3"
)

// Config is the full set of options the pipeline driver and its
// collaborators consume. Unrecognized YAML keys are ignored by design
// (forward-compatible config files).
type Config struct {
	DataDir    string         `yaml:"data_dir"`
	ScratchDir string         `yaml:"scratch_dir"`
	Profile    string         `yaml:"profile"`
	NumWorkers int            `yaml:"num_workers"`
	Database   DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds the Postgres connection parameters plus the two
// schema names the Loader swaps between.
type DatabaseConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	DBName           string `yaml:"dbname"`
	SSLMode          string `yaml:"sslmode"`
	StagingSchema    string `yaml:"staging_schema"`
	ProductionSchema string `yaml:"production_schema"`
}

const (
	ProfileStandard = "standard"
	ProfileFull     = "full"
)

// DefaultConfig returns the built-in defaults, before any config file or
// environment override is applied.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    paths.GetSourceDataPath(),
		ScratchDir: paths.GetScratchPath(),
		Profile:    ProfileStandard,
		NumWorkers: runtime.NumCPU(),
		Database: DatabaseConfig{
			Host:             "localhost",
			Port:             5432,
			User:             "postgres",
			DBName:           "uniprot",
			SSLMode:          "disable",
			StagingSchema:    "uniprot_staging",
			ProductionSchema: "uniprot_public",
		},
	}
}

// Load reads config from path, falling back to DefaultConfig if the file
// does not exist. Database secrets may also arrive via environment
// variables, which take precedence over both the file and the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(config)
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.DataDir = expandPath(config.DataDir)
	config.ScratchDir = expandPath(config.ScratchDir)

	if config.NumWorkers < 1 {
		config.NumWorkers = runtime.NumCPU()
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides lets deployment secrets (password above all) come from
// the environment instead of a checked-in config file.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("UNIPROTETL_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("UNIPROTETL_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("UNIPROTETL_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("UNIPROTETL_DB_NAME"); v != "" {
		c.Database.DBName = v
	}
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	if path := os.Getenv("UNIPROTETL_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("uniprotetl.yaml"); err == nil {
		return "uniprotetl.yaml"
	}
	return filepath.Join(paths.GetPaths().ConfigDir, "config.yaml")
}

// EnsureDirectories creates the data/scratch directories this config
// points at.
func (c *Config) EnsureDirectories() error {
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	for _, dir := range []string{c.DataDir, c.ScratchDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ConnectionString renders the Postgres DSN pgx expects.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.DBName, c.Database.SSLMode)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
