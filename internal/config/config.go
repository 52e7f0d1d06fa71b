// Package config loads the milieux TOML configuration and resolves the
// workspace paths consumed by the distro and environment stores.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const progName = "milieux"

// NotFoundError reports a missing config file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not load configs from %s", e.Path)
}

// Pip holds package-index settings passed through to the installer.
type Pip struct {
	DefaultIndexURL string   `mapstructure:"default_index_url"`
	IndexURLs       []string `mapstructure:"index_urls"`
	ExtraArgs       string   `mapstructure:"extra_args"`
}

// Config holds the milieux settings. Relative env_dir/distro_dir values are
// resolved against base_dir.
type Config struct {
	BaseDir   string `mapstructure:"base_dir"`
	EnvDir    string `mapstructure:"env_dir"`
	DistroDir string `mapstructure:"distro_dir"`
	Pip       Pip    `mapstructure:"pip"`
}

// UserDir returns the directory holding the user's config file.
func UserDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", progName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the configuration used when no config file exists.
func Default() (Config, error) {
	dir, err := UserDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		BaseDir:   filepath.Join(dir, "workspace"),
		EnvDir:    "envs",
		DistroDir: "distros",
	}, nil
}

// Load reads the config file at path. Unset fields fall back to defaults.
func Load(path string) (Config, error) {
	defaults, err := Default()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("base_dir", defaults.BaseDir)
	v.SetDefault("env_dir", defaults.EnvDir)
	v.SetDefault("distro_dir", defaults.DistroDir)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return Config{}, &NotFoundError{Path: path}
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return Config{}, &NotFoundError{Path: path}
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config file if present, falling back to defaults
// when it is missing.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if _, missing := err.(*NotFoundError); missing {
			return Default()
		}
		return Config{}, err
	}
	return cfg, nil
}

// resolvePath resolves a configured path to an absolute one. Absolute and
// "."-anchored paths must already exist; other relative paths are joined to
// baseDir.
func resolvePath(path, baseDir string) (string, error) {
	if path == "" {
		return baseDir, nil
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, ".") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("no such path: %s", path)
		}
		return abs, nil
	}
	return filepath.Join(baseDir, path), nil
}

// EnvDirPath resolves the directory holding environments.
func (c Config) EnvDirPath() (string, error) {
	return resolvePath(c.EnvDir, c.BaseDir)
}

// DistroDirPath resolves the directory holding distro files.
func (c Config) DistroDirPath() (string, error) {
	return resolvePath(c.DistroDir, c.BaseDir)
}

// UVArgs returns the extra arguments every uv invocation receives: index URL
// flags plus any free-form extra_args from the config file.
func (c Config) UVArgs() ([]string, error) {
	var args []string
	if c.Pip.DefaultIndexURL != "" {
		args = append(args, "--default-index", c.Pip.DefaultIndexURL)
	}
	for _, url := range c.Pip.IndexURLs {
		args = append(args, "--index", url)
	}
	if c.Pip.ExtraArgs != "" {
		extra, err := shellwords.Parse(c.Pip.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parsing pip.extra_args: %w", err)
		}
		args = append(args, extra...)
	}
	return args, nil
}
