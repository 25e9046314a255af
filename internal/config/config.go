package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EmbeddingsConfig selects and tunes the query/corpus encoder.
type EmbeddingsConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Dim       int    `mapstructure:"dim" yaml:"dim,omitempty"`
	Cache     bool   `mapstructure:"cache" yaml:"cache"`
	CachePath string `mapstructure:"cache_path" yaml:"cache_path,omitempty"`
}

// GateConfig controls which commands may be executed.
type GateConfig struct {
	// Mode is "exact" (only literal corpus commands) or "filled"
	// (also filled mkdir/cp/mv commands without shell metacharacters).
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// SandboxConfig controls local command execution.
type SandboxConfig struct {
	Shell          string        `mapstructure:"shell" yaml:"shell,omitempty"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`
}

// ServerConfig controls the HTTP front end.
type ServerConfig struct {
	Addr              string   `mapstructure:"addr" yaml:"addr"`
	AllowOrigins      []string `mapstructure:"allow_origins" yaml:"allow_origins,omitempty"`
	MaxConcurrentRuns int      `mapstructure:"max_concurrent_runs" yaml:"max_concurrent_runs"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the in-memory representation of ~/.nlcmd/nlcmd.yaml.
type Config struct {
	// Dataset is a CSV file with command,category,description columns.
	// Empty means the built-in dataset.
	Dataset  string  `mapstructure:"dataset" yaml:"dataset,omitempty"`
	IndexDir string  `mapstructure:"index_dir" yaml:"index_dir"`
	TopK     int     `mapstructure:"top_k" yaml:"top_k"`
	MinScore float64 `mapstructure:"min_score" yaml:"min_score"`

	// Categories overrides the keyword table of the category filter.
	Categories map[string][]string `mapstructure:"categories" yaml:"categories,omitempty"`

	Embeddings EmbeddingsConfig `mapstructure:"embeddings" yaml:"embeddings"`
	Gate       GateConfig       `mapstructure:"gate" yaml:"gate"`
	Sandbox    SandboxConfig    `mapstructure:"sandbox" yaml:"sandbox"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// NlcmdDir returns the absolute path to ~/.nlcmd/, or $NLCMD_HOME when set.
func NlcmdDir() (string, error) {
	if v := os.Getenv("NLCMD_HOME"); v != "" {
		return ExpandPath(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".nlcmd"), nil
}

// ConfigPath returns the absolute path to ~/.nlcmd/nlcmd.yaml.
func ConfigPath() (string, error) {
	dir, err := NlcmdDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nlcmd.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first nlcmd init.
func DefaultConfig() (*Config, error) {
	dir, err := NlcmdDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		IndexDir: filepath.Join(dir, "index"),
		TopK:     3,
		MinScore: 0,
		Embeddings: EmbeddingsConfig{
			Provider:  "hash",
			Dim:       384,
			Cache:     true,
			CachePath: filepath.Join(dir, "cache", "embeddings.db"),
		},
		Gate: GateConfig{Mode: "exact"},
		Sandbox: SandboxConfig{
			Timeout:        5 * time.Second,
			MaxOutputBytes: 1 << 20,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:5000",
			MaxConcurrentRuns: 4,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("index_dir", d.IndexDir)
	v.SetDefault("top_k", d.TopK)
	v.SetDefault("min_score", d.MinScore)
	v.SetDefault("embeddings.provider", d.Embeddings.Provider)
	v.SetDefault("embeddings.model", d.Embeddings.Model)
	v.SetDefault("embeddings.base_url", d.Embeddings.BaseURL)
	v.SetDefault("embeddings.dim", d.Embeddings.Dim)
	v.SetDefault("embeddings.cache", d.Embeddings.Cache)
	v.SetDefault("embeddings.cache_path", d.Embeddings.CachePath)
	v.SetDefault("gate.mode", d.Gate.Mode)
	v.SetDefault("sandbox.shell", d.Sandbox.Shell)
	v.SetDefault("sandbox.timeout", d.Sandbox.Timeout)
	v.SetDefault("sandbox.max_output_bytes", d.Sandbox.MaxOutputBytes)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.max_concurrent_runs", d.Server.MaxConcurrentRuns)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads ~/.nlcmd/nlcmd.yaml on top of the defaults and applies NLCMD_*
// environment overrides (embeddings.provider -> NLCMD_EMBEDDINGS_PROVIDER).
// A missing config file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	def, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, def)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NLCMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config %s: %w", path, err)
	}

	// Expand ~ in paths at load time.
	for _, p := range []*string{&cfg.Dataset, &cfg.IndexDir, &cfg.Embeddings.CachePath} {
		if *p == "" {
			continue
		}
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.nlcmd/nlcmd.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
