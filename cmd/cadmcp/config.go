package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
)

// AppConfig holds all configuration for the gateway, loaded from config.yaml
// and the environment.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	CAD     CADConfig     `yaml:"cad"`
	Output  OutputConfig  `yaml:"output"`
	Journal JournalConfig `yaml:"journal"`
	Parser  ParserConfig  `yaml:"parser"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	HTTPAddr string `yaml:"http_addr"`
}

type CADConfig struct {
	Type         string        `yaml:"type"`
	StartupWait  time.Duration `yaml:"startup_wait_time"`
	CommandDelay time.Duration `yaml:"command_delay"`
}

type OutputConfig struct {
	Directory       string `yaml:"directory"`
	DefaultFilename string `yaml:"default_filename"`
}

type JournalConfig struct {
	RedisAddr   string `yaml:"redis_addr"`
	KeyPrefix   string `yaml:"key_prefix"`
	MaxEntities int    `yaml:"max_entities"`
}

type ParserConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the settings used when config.yaml is absent.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Name: "AutoCAD MCP Server", Version: "1.0.0", HTTPAddr: ":8080"},
		CAD: CADConfig{
			Type:         string(cad.TypeAutoCAD),
			StartupWait:  20 * time.Second,
			CommandDelay: 500 * time.Millisecond,
		},
		Output:  OutputConfig{Directory: "./output", DefaultFilename: "drawing.dwg"},
		Journal: JournalConfig{KeyPrefix: "cadmcp", MaxEntities: 1000},
		Parser:  ParserConfig{CacheSize: 256},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig loads .env, then config.yaml at path, then environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	// In production the environment is provided by the service manager.
	if os.Getenv("CADMCP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARNING: could not read .env: %v", err)
		}
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		parsed := DefaultConfig()
		if err := yaml.Unmarshal(data, parsed); err != nil {
			log.Printf("WARNING: invalid %s, using defaults: %v", path, err)
		} else {
			cfg = parsed
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.CAD.Type, "CAD_TYPE")
	override(&c.Output.Directory, "CAD_OUTPUT_DIR")
	override(&c.Journal.RedisAddr, "REDIS_ADDR")
	override(&c.Server.HTTPAddr, "HTTP_ADDR")
	override(&c.Log.Level, "LOG_LEVEL")
	override(&c.Log.Format, "LOG_FORMAT")
}

func (c *AppConfig) validate() error {
	t, err := cad.ParseType(c.CAD.Type)
	if err != nil {
		return fmt.Errorf("invalid cad.type: %w", err)
	}
	c.CAD.Type = string(t)
	if c.CAD.StartupWait < 0 || c.CAD.CommandDelay < 0 {
		return fmt.Errorf("cad timings must not be negative")
	}
	if c.Journal.MaxEntities < 0 {
		return fmt.Errorf("journal.max_entities must not be negative")
	}
	if c.Parser.CacheSize < 0 {
		return fmt.Errorf("parser.cache_size must not be negative")
	}
	return nil
}

// DefaultSavePath is the file a save without an explicit path writes. The
// driver resolves it under the output directory.
func (c *AppConfig) DefaultSavePath() string {
	return filepath.Clean(c.Output.DefaultFilename)
}

// DriverConfig maps the cad and output sections onto the driver settings.
func (c *AppConfig) DriverConfig() cad.Config {
	return cad.Config{
		Type:         cad.Type(c.CAD.Type),
		StartupWait:  c.CAD.StartupWait,
		CommandDelay: c.CAD.CommandDelay,
		OutputDir:    c.Output.Directory,
	}
}
