package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file.
const FileName = ".reportwatch.yaml"

// RuleConfig is one report type and where its files are.
type RuleConfig struct {
	Type       string `yaml:"type"`
	Paths      string `yaml:"paths"`
	WhenNoData string `yaml:"when_no_data,omitempty"`
	Verbose    bool   `yaml:"verbose,omitempty"`
}

// AppConfig represents the contents of .reportwatch.yaml.
type AppConfig struct {
	Rules          []RuleConfig      `yaml:"rules"`
	BaseDir        string            `yaml:"base_dir,omitempty"`
	BuildStart     string            `yaml:"build_start,omitempty"`
	ParseOutOfDate bool              `yaml:"parse_out_of_date"`
	Workers        int               `yaml:"workers"`
	QueueSize      int               `yaml:"queue_size"`
	ScanInterval   string            `yaml:"scan_interval"`
	Notify         bool              `yaml:"notify"`
	Stages         map[string]string `yaml:"stages,omitempty"`
	MaxErrors      *int              `yaml:"max_errors,omitempty"`
	MaxWarnings    *int              `yaml:"max_warnings,omitempty"`
	Params         map[string]string `yaml:"params,omitempty"`
	Format         string            `yaml:"format"`
	Theme          string            `yaml:"theme"`
	NoColor        bool              `yaml:"no_color"`
	Verbose        bool              `yaml:"verbose"`
	Debug          bool              `yaml:"debug"`
}

// Constants for default values.
const (
	DefaultWorkers      = 1
	DefaultQueueSize    = 100
	DefaultScanInterval = "50ms"
	DefaultFormat       = "terminal"
	DefaultTheme        = "default"
)

// Defaults returns the configuration used when no file is found.
func Defaults() *AppConfig {
	return &AppConfig{
		Workers:      DefaultWorkers,
		QueueSize:    DefaultQueueSize,
		ScanInterval: DefaultScanInterval,
		Notify:       true,
		Format:       DefaultFormat,
		Theme:        DefaultTheme,
	}
}

// LoadConfig loads the config file found from dir. It returns the defaults
// and an empty path when there is none.
func LoadConfig(dir string) (*AppConfig, string, error) {
	path := FindConfig(dir)
	if path == "" {
		return Defaults(), "", nil
	}
	cfg, err := LoadFile(path)
	return cfg, path, err
}

// LoadFile reads the config file at path on top of the defaults.
func LoadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FindConfig looks for the config file in dir, then in the user config
// directory. It returns "" when neither exists.
func FindConfig(dir string) string {
	local := filepath.Join(dir, FileName)
	if exists(local) {
		return local
	}

	configHome, err := os.UserConfigDir()
	// UserConfigDir may yield "/" in minimal containers.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "reportwatch", FileName)
	if exists(xdgPath) {
		return xdgPath
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
