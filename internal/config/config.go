package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigRelPath = ".playground/config.yaml"
	defaultStoreRelPath  = ".playground/playground.db"
)

type CatalogConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

type CredentialConfig struct {
	Scope string `yaml:"scope"`
	// Value, when set, takes precedence over the stored credential.
	Value string `yaml:"value"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// FilterConfig drops recorded traffic that is not API calls.
type FilterConfig struct {
	IgnoreExtensions   []string `yaml:"ignore_extensions"`
	IgnoreContentTypes []string `yaml:"ignore_content_types"`
	IgnorePaths        []string `yaml:"ignore_paths"`
}

type RedactConfig struct {
	Headers     []string `yaml:"headers"`
	BodyFields  []string `yaml:"body_fields"`
	Replacement string   `yaml:"replacement"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Credential CredentialConfig `yaml:"credential"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Filter     FilterConfig     `yaml:"filter"`
	Redact     RedactConfig     `yaml:"redact"`
	Log        LogConfig        `yaml:"log"`
	Output     OutputConfig     `yaml:"output"`
}

// Load loads YAML config, then .env, then environment overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.SetDefaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Catalog.Path == "" {
		c.Catalog.Path = "./catalog.yaml"
	}
	if c.Credential.Scope == "" {
		c.Credential.Scope = "cloudindex_api_key"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.DSN = filepath.Join(home, defaultStoreRelPath)
		} else {
			c.Store.DSN = "playground.db"
		}
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if len(c.Filter.IgnoreExtensions) == 0 {
		c.Filter.IgnoreExtensions = []string{".js", ".css", ".png", ".jpg", ".gif", ".svg", ".woff", ".woff2", ".ico", ".map"}
	}
	if len(c.Filter.IgnoreContentTypes) == 0 {
		c.Filter.IgnoreContentTypes = []string{"text/html", "text/css", "image/*", "font/*", "application/javascript"}
	}
	if len(c.Filter.IgnorePaths) == 0 {
		c.Filter.IgnorePaths = []string{"/static/", "/assets/", "/favicon"}
	}
	if len(c.Redact.Headers) == 0 {
		c.Redact.Headers = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Auth-Token"}
	}
	if len(c.Redact.BodyFields) == 0 {
		c.Redact.BodyFields = []string{"password", "secret", "token", "api_key", "apiKey", "access_token", "refresh_token"}
	}
	if c.Redact.Replacement == "" {
		c.Redact.Replacement = "***REDACTED***"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./docs"
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"markdown", "openapi"}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return errors.New("catalog.path cannot be empty")
	}
	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("store.dsn cannot be empty for sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver %q not supported", c.Store.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// ValidateDocs enforces docs-specific requirements.
func (c *Config) ValidateDocs() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	for _, f := range c.Output.Formats {
		if f != "markdown" && f != "openapi" {
			return fmt.Errorf("output format %q not supported", f)
		}
	}
	if err := ensureWritableDir(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir not writable: %w", err)
	}
	return nil
}

// EnsureStoreDir creates the parent directory of a sqlite DSN.
func (c *Config) EnsureStoreDir() error {
	if c.Store.Driver != "sqlite" || strings.HasPrefix(c.Store.DSN, "file:") || c.Store.DSN == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Store.DSN), 0o700)
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func applyEnvOverrides(c *Config) {
	setString(&c.Catalog.Path, "PLAYGROUND_CATALOG")
	setString(&c.Catalog.BaseURL, "PLAYGROUND_BASE_URL")
	setString(&c.Credential.Scope, "PLAYGROUND_CREDENTIAL_SCOPE")
	setString(&c.Credential.Value, "PLAYGROUND_API_KEY")
	setString(&c.Store.Driver, "PLAYGROUND_STORE_DRIVER")
	setString(&c.Store.DSN, "PLAYGROUND_STORE_DSN")
	setString(&c.Server.Host, "PLAYGROUND_SERVER_HOST")
	setInt(&c.Server.Port, "PLAYGROUND_SERVER_PORT")
	setString(&c.Log.Level, "PLAYGROUND_LOG_LEVEL")
	setBool(&c.Log.Debug, "PLAYGROUND_DEBUG")
	setString(&c.Output.Dir, "PLAYGROUND_OUTPUT_DIR")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
