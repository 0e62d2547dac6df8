// Package config loads client and server settings from command-line flags,
// STORY_* environment variables and an optional JSON config file, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STORY"

// Cache drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Client holds the shell's configuration.
type Client struct {
	// SheetURL binds a sheet on first run, when the cache has no binding.
	SheetURL string      `mapstructure:"sheet_url"`
	Cache    CacheConfig `mapstructure:"cache"`
	Sync     SyncConfig  `mapstructure:"sync"`
	HTTP     HTTPConfig  `mapstructure:"http"`
	Log      LogConfig   `mapstructure:"log"`

	// Version asks the binary to print build information and exit.
	Version bool `mapstructure:"-"`
}

// CacheConfig selects the local cache backend.
type CacheConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is a directory for the file driver and a database file for sqlite.
	Path string `mapstructure:"path"`
}

// SyncConfig tunes the sync scheduler.
type SyncConfig struct {
	Debounce   time.Duration `mapstructure:"debounce"`
	ResetAfter time.Duration `mapstructure:"reset_after"`
	ReadMethod string        `mapstructure:"read_method"`
}

// HTTPConfig tunes the HTTP client. A zero timeout leaves it to the transport.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Server holds the reference sheet endpoint's configuration.
type Server struct {
	Address     string `mapstructure:"address"`
	DatabaseDSN string `mapstructure:"database_dsn"`
	PublicURL   string `mapstructure:"public_url"`

	// AdminToken guards /admin when set.
	AdminToken string          `mapstructure:"admin_token"`
	TLS        TLSConfig       `mapstructure:"tls"`
	Revisions  RevisionsConfig `mapstructure:"revisions"`
	Log        LogConfig       `mapstructure:"log"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether both the certificate and key are configured.
func (t TLSConfig) Enabled() bool { return t.Cert != "" && t.Key != "" }

// RevisionsConfig controls pruning of old sheet revisions.
type RevisionsConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	Interval  time.Duration `mapstructure:"interval"`
}

// LoadClient parses args (without the program name) into a Client config.
func LoadClient(args []string) (Client, error) {
	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to JSON config file")
	version := fs.Bool("version", false, "show build version and date")
	fs.String("sheet-url", "", "sheet endpoint to bind on first run")
	fs.String("cache-driver", DriverFile, "local cache backend: file | sqlite")
	fs.String("cache-path", "", "cache directory (file) or database (sqlite)")
	fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return Client{}, err
	}

	v := viper.New()
	v.SetDefault("sheet_url", "")
	v.SetDefault("cache.driver", DriverFile)
	v.SetDefault("cache.path", "")
	v.SetDefault("sync.debounce", 2*time.Second)
	v.SetDefault("sync.reset_after", 3*time.Second)
	v.SetDefault("sync.read_method", "GET")
	v.SetDefault("http.timeout", time.Duration(0))
	v.SetDefault("log.level", "warn")

	if err := bind(v, fs, map[string]string{
		"sheet_url":    "sheet-url",
		"cache.driver": "cache-driver",
		"cache.path":   "cache-path",
		"log.level":    "log-level",
	}); err != nil {
		return Client{}, err
	}
	if err := readFile(v, *configPath, false); err != nil {
		return Client{}, err
	}

	var c Client
	if err := v.Unmarshal(&c); err != nil {
		return Client{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Version = *version
	c.Sync.ReadMethod = strings.ToUpper(c.Sync.ReadMethod)

	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath(c.Cache.Driver)
	}
	return c, c.validate()
}

func (c Client) validate() error {
	switch c.Cache.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("cache.driver: unknown driver %q", c.Cache.Driver)
	}
	if c.Sync.ReadMethod != "GET" && c.Sync.ReadMethod != "POST" {
		return fmt.Errorf("sync.read_method: must be GET or POST, got %q", c.Sync.ReadMethod)
	}
	if c.Sync.Debounce <= 0 {
		return errors.New("sync.debounce: must be positive")
	}
	if c.Sync.ResetAfter < 0 {
		return errors.New("sync.reset_after: must not be negative")
	}
	return nil
}

func defaultCachePath(driver string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "story-ledger")
	if driver == DriverSQLite {
		return filepath.Join(dir, "cache.db")
	}
	return dir
}

// LoadServer parses args (without the program name) into a Server config.
func LoadServer(args []string) (Server, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "config.json", "path to JSON config file")
	fs.StringP("address", "a", "localhost:8080", "run on ip:port server")
	fs.StringP("database-dsn", "d", "", "db address")
	fs.String("public-url", "", "externally visible base URL")
	fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}

	v := viper.New()
	v.SetDefault("address", "localhost:8080")
	v.SetDefault("database_dsn", "")
	v.SetDefault("public_url", "")
	v.SetDefault("admin_token", "")
	v.SetDefault("tls.cert", "")
	v.SetDefault("tls.key", "")
	v.SetDefault("revisions.retention", 30*24*time.Hour)
	v.SetDefault("revisions.interval", time.Hour)
	v.SetDefault("log.level", "info")

	if err := bind(v, fs, map[string]string{
		"address":      "address",
		"database_dsn": "database-dsn",
		"public_url":   "public-url",
		"log.level":    "log-level",
	}); err != nil {
		return Server{}, err
	}
	if err := readFile(v, *configPath, !fs.Changed("config")); err != nil {
		return Server{}, err
	}

	var s Server
	if err := v.Unmarshal(&s); err != nil {
		return Server{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.DatabaseDSN == "" {
		return Server{}, errors.New("database_dsn: required")
	}
	if s.Revisions.Interval <= 0 {
		return Server{}, errors.New("revisions.interval: must be positive")
	}
	return s, nil
}

func bind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// readFile merges the JSON config file at path. STORY_CONFIG overrides path.
// A missing file is an error unless optional is set.
func readFile(v *viper.Viper, path string, optional bool) error {
	if env := os.Getenv(envPrefix + "_CONFIG"); env != "" {
		path, optional = env, false
	}
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}
