package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the appendscan configuration file
// (~/.config/appendscan/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Scan
	OutDir       string   `yaml:"out_dir"`
	LogFile      string   `yaml:"log_file"`
	Workers      *int64   `yaml:"workers"`
	Extensions   []string `yaml:"extensions"`
	Extract      *bool    `yaml:"extract"`
	ReportFormat string   `yaml:"report_format"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "appendscan", "config.yaml")
}

// scanOptions holds the scan command's flag destinations.
type scanOptions struct {
	outDir    string
	logFile   string
	workers   int64
	exts      []string
	noExtract bool
	format    string
	all       bool
}

// applyScanConfig applies config file defaults to scan options whose flag
// was not explicitly set.
func applyScanConfig(c *cli.Command, cfg Config, o *scanOptions) {
	if cfg.OutDir != "" && !c.IsSet("out") {
		o.outDir = cfg.OutDir
	}
	if cfg.LogFile != "" && !c.IsSet("log-file") {
		o.logFile = cfg.LogFile
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		o.workers = *cfg.Workers
	}
	if len(cfg.Extensions) > 0 && !c.IsSet("ext") {
		o.exts = cfg.Extensions
	}
	if cfg.Extract != nil && !c.IsSet("no-extract") {
		o.noExtract = !*cfg.Extract
	}
	if cfg.ReportFormat != "" && !c.IsSet("format") {
		o.format = cfg.ReportFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxUpload *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload") {
		*maxUpload = *cfg.MaxUploadBytes
	}
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
