// Package config loads the unibot configuration: a YAML file, a .env file and
// UNIBOT_* environment overrides, validated after merging.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named. It may be absent.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "UNIBOT_"

type Config struct {
	Dataset  Dataset  `yaml:"dataset"`
	Flow     Flow     `yaml:"flow"`
	Keywords Keywords `yaml:"keywords"`
	Log      Log      `yaml:"log"`
	Redis    Redis    `yaml:"redis"`
	Server   Server   `yaml:"server"`
}

type Dataset struct {
	// Catalog backend
	Source string `yaml:"source" example:"csv" validate:"oneof=csv sqlite"`
	// CSV file or SQLite database
	Path string `yaml:"path" example:"data/unilife.csv" validate:"required"`
	// SQLite table, ignored for CSV
	Table string `yaml:"table" example:"catalog"`
}

type Flow struct {
	// open asks free questions, guided builds a profile and asks short ones
	Mode string `yaml:"mode" example:"open" validate:"oneof=open guided"`
	// Guided mode clarifies below this confidence
	ConfidenceThreshold float64 `yaml:"confidence_threshold" example:"0.34" validate:"gte=0,lte=1"`
	// How many events the social branch lists
	SoonestEvents int `yaml:"soonest_events" example:"3" validate:"gte=1"`
}

type Keywords struct {
	// Replaces the built-in keyword tables when set
	File string `yaml:"file" example:"keywords.yaml"`
}

type Log struct {
	Level string `yaml:"level" example:"info" validate:"oneof=debug info warn error"`
	// JSONL session logs are written here when set
	SessionDir string `yaml:"session_dir" example:"sessions"`
}

type Redis struct {
	// Session records are mirrored to Redis streams when set
	Addr         string `yaml:"addr" example:"localhost:6379"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db" validate:"gte=0"`
	StreamPrefix string `yaml:"stream_prefix" example:"unibot:session:"`
	MaxLen       int64  `yaml:"max_len" example:"1000" validate:"gte=0"`
}

type Server struct {
	Host string `yaml:"host" example:"0.0.0.0"`
	Port int    `yaml:"port" example:"8080" validate:"gte=1,lte=65535"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dataset: Dataset{Source: "csv", Path: "data/unilife.csv", Table: "catalog"},
		Flow:    Flow{Mode: "open", ConfidenceThreshold: 0.34, SoonestEvents: 3},
		Log:     Log{Level: "info"},
		Redis:   Redis{StreamPrefix: "unibot:session:", MaxLen: 1000},
		Server:  Server{Host: "0.0.0.0", Port: 8080},
	}
}

// Load reads path over the defaults, applies .env and UNIBOT_* overrides and
// validates the result. An empty path means DefaultPath, which may be
// missing; a named file must exist.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	result := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, result); err != nil {
			return nil, oops.In("config").With("path", path).Errorf("failed to parse YAML config: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, oops.In("config").With("path", path).Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.In("config").Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(result, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return oops.In("config").Errorf("failed to validate config: %w", err)
	}
	return nil
}

// applyEnv overrides fields from UNIBOT_<SECTION>_<KEY> variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"DATASET_SOURCE":      &cfg.Dataset.Source,
		"DATASET_PATH":        &cfg.Dataset.Path,
		"DATASET_TABLE":       &cfg.Dataset.Table,
		"FLOW_MODE":           &cfg.Flow.Mode,
		"KEYWORDS_FILE":       &cfg.Keywords.File,
		"LOG_LEVEL":           &cfg.Log.Level,
		"LOG_SESSION_DIR":     &cfg.Log.SessionDir,
		"REDIS_ADDR":          &cfg.Redis.Addr,
		"REDIS_PASSWORD":      &cfg.Redis.Password,
		"REDIS_STREAM_PREFIX": &cfg.Redis.StreamPrefix,
		"SERVER_HOST":         &cfg.Server.Host,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FLOW_SOONEST_EVENTS": &cfg.Flow.SoonestEvents,
		"REDIS_DB":            &cfg.Redis.DB,
		"SERVER_PORT":         &cfg.Server.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return oops.In("config").With("env", EnvPrefix+key).Errorf("invalid integer %q", v)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "REDIS_MAX_LEN"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return oops.In("config").With("env", EnvPrefix+"REDIS_MAX_LEN").Errorf("invalid integer %q", v)
		}
		cfg.Redis.MaxLen = n
	}
	if v, ok := lookup(EnvPrefix + "FLOW_CONFIDENCE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return oops.In("config").With("env", EnvPrefix+"FLOW_CONFIDENCE_THRESHOLD").Errorf("invalid number %q", v)
		}
		cfg.Flow.ConfidenceThreshold = f
	}
	return nil
}
