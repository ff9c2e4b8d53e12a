// Package config loads the application configuration from a YAML file,
// .env files and environment variables.
//
// Values are resolved in this order, later sources winning:
//
//  1. built-in defaults
//  2. the YAML file (optional)
//  3. environment variables named by the `env` struct tag
//
// Before the environment is read, ENV_FILE is loaded if set; otherwise
// .env.local and then .env are loaded when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zombar/seoaudit/api"
	"github.com/zombar/seoaudit/batch"
	"github.com/zombar/seoaudit/db"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/metadata"
	"github.com/zombar/seoaudit/ollama"
)

// DefaultPath is the config file read when no path is given
const DefaultPath = "seoaudit.yml"

// Config is the complete application configuration
type Config struct {
	Database db.Config            `yaml:"database"`
	Ollama   ollama.Config        `yaml:"ollama"`
	Augment  ollama.AugmentConfig `yaml:"augment"`
	Site     metadata.Config      `yaml:"site"`
	Batch    batch.Config         `yaml:"batch"`
	Server   api.Config           `yaml:"server"`
	Logging  logger.Config        `yaml:"logging"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	cfg := &Config{
		Database: db.DefaultConfig(),
		Ollama:   ollama.DefaultConfig(),
		Augment:  ollama.DefaultAugmentConfig(),
		Site:     metadata.DefaultConfig(),
		Batch:    batch.DefaultConfig(),
		Server:   api.DefaultConfig(),
	}
	cfg.Logging.SetDefaults()
	return cfg
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	cfg.fillZeroes()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns CONFIG_PATH when set, otherwise fallback
func Path(fallback string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return fallback
}

// Validate reports settings no component can run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.ChunkSize < 1 {
		return fmt.Errorf("batch.chunk_size must be at least 1, got %d", c.Batch.ChunkSize)
	}
	if c.Augment.TargetWords < 0 {
		return fmt.Errorf("augment.target_words must not be negative, got %d", c.Augment.TargetWords)
	}
	return nil
}

// fillZeroes restores defaults for values a file explicitly emptied
func (c *Config) fillZeroes() {
	def := Default()
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if c.Database.QueryTimeout <= 0 {
		c.Database.QueryTimeout = def.Database.QueryTimeout
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = def.Ollama.BaseURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = def.Ollama.Model
	}
	if c.Ollama.Timeout <= 0 {
		c.Ollama.Timeout = def.Ollama.Timeout
	}
	if c.Augment.TargetWords == 0 {
		c.Augment.TargetWords = def.Augment.TargetWords
	}
	if c.Batch.OutputDir == "" {
		c.Batch.OutputDir = def.Batch.OutputDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	c.Logging.SetDefaults()
}

// loadEnvFiles loads ENV_FILE alone when set, otherwise .env.local then .env.
// godotenv never overrides variables that are already set, so earlier files win.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg any) {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	applyEnvToStruct(v)
}

func applyEnvToStruct(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			applyEnvToStruct(field)
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		if val := os.Getenv(name); val != "" {
			setFieldFromString(field, val)
		}
	}
}

// setFieldFromString leaves the field untouched when val does not parse
func setFieldFromString(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			field.SetFloat(f)
		}

	case reflect.Bool:
		field.SetBool(parseBool(val))

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(val, ",")
			for i, p := range parts {
				parts[i] = strings.TrimSpace(p)
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
}

// parseBool accepts true, 1 and yes in any case
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
