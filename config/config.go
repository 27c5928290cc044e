// Package config loads launchwiz settings from launchwiz.toml, LAUNCHWIZ_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FileName  = "launchwiz"
	EnvPrefix = "LAUNCHWIZ"
)

var Version string

func SetVersion(version string) {
	Version = version
}

type Config struct {
	DataDir        string `mapstructure:"data-dir"`
	CacheDir       string `mapstructure:"cache-dir"`
	Verbose        bool   `mapstructure:"verbose"`
	NonInteractive bool   `mapstructure:"non-interactive"`
	// Player is the offline player name used when no auth record is given.
	Player string `mapstructure:"player"`

	Download DownloadConfig `mapstructure:"download"`
	Launch   LaunchConfig   `mapstructure:"launch"`
	Repair   RepairConfig   `mapstructure:"repair"`
}

type DownloadConfig struct {
	Attempts       int           `mapstructure:"attempts"`
	AssetFactor    int           `mapstructure:"asset-factor"`
	LibraryFactor  int           `mapstructure:"library-factor"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

type LaunchConfig struct {
	MinMemoryMB      int           `mapstructure:"min-memory"`
	MaxMemoryMB      int           `mapstructure:"max-memory"`
	JVMArgs          []string      `mapstructure:"jvm-args"`
	Width            int           `mapstructure:"width"`
	Height           int           `mapstructure:"height"`
	EarlyExitWindow  time.Duration `mapstructure:"early-exit-window"`
	InstallerTimeout time.Duration `mapstructure:"installer-timeout"`
}

type RepairConfig struct {
	KeepRunLogs int `mapstructure:"keep-run-logs"`
}

// DefaultDataDir is ~/.launchwiz, or ./.launchwiz when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".launchwiz"
	}
	return filepath.Join(home, ".launchwiz")
}

func defaultCacheDir(dataDir string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(dataDir, "cache", "global")
	}
	return filepath.Join(dir, "launchwiz")
}

// SetDefaults registers every key so environment variables can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data-dir", DefaultDataDir())
	v.SetDefault("cache-dir", "")
	v.SetDefault("verbose", false)
	v.SetDefault("non-interactive", false)
	v.SetDefault("player", "Player")

	v.SetDefault("download.attempts", 3)
	v.SetDefault("download.asset-factor", 8)
	v.SetDefault("download.library-factor", 2)
	v.SetDefault("download.connect-timeout", 15*time.Second)
	v.SetDefault("download.request-timeout", 60*time.Second)

	v.SetDefault("launch.min-memory", 0)
	v.SetDefault("launch.max-memory", 4096)
	v.SetDefault("launch.jvm-args", []string{})
	v.SetDefault("launch.width", 0)
	v.SetDefault("launch.height", 0)
	v.SetDefault("launch.early-exit-window", 10*time.Second)
	v.SetDefault("launch.installer-timeout", 5*time.Minute)

	v.SetDefault("repair.keep-run-logs", 10)
}

// Load reads file, or launchwiz.toml from the data directory when file is
// empty, and applies environment overrides. A missing default file is fine.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(v.GetString("data-dir"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir(cfg.DataDir)
	}
	if cfg.Launch.MinMemoryMB > 0 && cfg.Launch.MaxMemoryMB > 0 && cfg.Launch.MinMemoryMB > cfg.Launch.MaxMemoryMB {
		return cfg, fmt.Errorf("launch.min-memory (%d) is above launch.max-memory (%d)", cfg.Launch.MinMemoryMB, cfg.Launch.MaxMemoryMB)
	}
	return cfg, nil
}

// RootDir holds the versions, libraries, assets and runtimes shared by instances.
func (c Config) RootDir() string {
	return filepath.Join(c.DataDir, "root")
}

// LocalCacheDir is the per-installation content cache.
func (c Config) LocalCacheDir() string {
	return filepath.Join(c.DataDir, "cache", "objects")
}

func (c Config) GlobalCacheDir() string {
	return filepath.Join(c.CacheDir, "objects")
}

func (c Config) LogFile() string {
	return filepath.Join(c.DataDir, "logs", "launchwiz.log")
}
