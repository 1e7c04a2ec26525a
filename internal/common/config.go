package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Raster   RasterConfig
	Scratch  ScratchConfig
	Log      LogConfig
}

// DatabaseConfig holds the optional audit store configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int64
}

// OCRConfig holds the text-recognition service settings
type OCRConfig struct {
	URL         string
	Timeout     time.Duration
	Concurrency int
}

// LLMConfig holds the structured-extraction service settings
type LLMConfig struct {
	URL     string
	Timeout time.Duration
}

// RasterConfig holds PDF page rendering settings
type RasterConfig struct {
	Pdftoppm string
	DPI      int
	Workers  int
}

// ScratchConfig holds where request files are written
type ScratchConfig struct {
	Dir string
}

// LogConfig selects handler format and level
type LogConfig struct {
	Level  string
	Format string
}

// fileConfig mirrors Config for the optional TOML file. Durations are strings ("30s").
type fileConfig struct {
	Database struct {
		DSN             string `toml:"dsn"`
		MaxConns        int32  `toml:"max_conns"`
		MinConns        int32  `toml:"min_conns"`
		MaxConnLifetime string `toml:"max_conn_lifetime"`
		MaxConnIdleTime string `toml:"max_conn_idle_time"`
		DialTimeout     string `toml:"dial_timeout"`
	} `toml:"database"`
	Server struct {
		HTTPAddr       string `toml:"http_addr"`
		GRPCAddr       string `toml:"grpc_addr"`
		MaxUploadBytes int64  `toml:"max_upload_bytes"`
	} `toml:"server"`
	OCR struct {
		URL         string `toml:"url"`
		Timeout     string `toml:"timeout"`
		Concurrency int    `toml:"concurrency"`
	} `toml:"ocr"`
	LLM struct {
		URL     string `toml:"url"`
		Timeout string `toml:"timeout"`
	} `toml:"llm"`
	Raster struct {
		Pdftoppm string `toml:"pdftoppm"`
		DPI      int    `toml:"dpi"`
		Workers  int    `toml:"workers"`
	} `toml:"raster"`
	Scratch struct {
		Dir string `toml:"dir"`
	} `toml:"scratch"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:       ":8000",
			GRPCAddr:       ":9090",
			MaxUploadBytes: 20 << 20,
		},
		OCR: OCRConfig{
			URL:         "http://localhost:8001",
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		LLM: LLMConfig{
			URL:     "http://localhost:8002",
			Timeout: 30 * time.Second,
		},
		Raster: RasterConfig{
			Pdftoppm: "pdftoppm",
			DPI:      200,
			Workers:  4,
		},
		Scratch: ScratchConfig{
			Dir: filepath.Join(os.TempDir(), "docverify"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds configuration from defaults, then the TOML file named by
// DOCVERIFY_CONFIG (if set), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("DOCVERIFY_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}

	setString(&c.Database.DSN, fc.Database.DSN)
	setInt32(&c.Database.MaxConns, fc.Database.MaxConns)
	setInt32(&c.Database.MinConns, fc.Database.MinConns)
	if err := setDuration(&c.Database.MaxConnLifetime, fc.Database.MaxConnLifetime); err != nil {
		return err
	}
	if err := setDuration(&c.Database.MaxConnIdleTime, fc.Database.MaxConnIdleTime); err != nil {
		return err
	}
	if err := setDuration(&c.Database.DialTimeout, fc.Database.DialTimeout); err != nil {
		return err
	}

	setString(&c.Server.HTTPAddr, fc.Server.HTTPAddr)
	setString(&c.Server.GRPCAddr, fc.Server.GRPCAddr)
	if fc.Server.MaxUploadBytes > 0 {
		c.Server.MaxUploadBytes = fc.Server.MaxUploadBytes
	}

	setString(&c.OCR.URL, fc.OCR.URL)
	if err := setDuration(&c.OCR.Timeout, fc.OCR.Timeout); err != nil {
		return err
	}
	setInt(&c.OCR.Concurrency, fc.OCR.Concurrency)

	setString(&c.LLM.URL, fc.LLM.URL)
	if err := setDuration(&c.LLM.Timeout, fc.LLM.Timeout); err != nil {
		return err
	}

	setString(&c.Raster.Pdftoppm, fc.Raster.Pdftoppm)
	setInt(&c.Raster.DPI, fc.Raster.DPI)
	setInt(&c.Raster.Workers, fc.Raster.Workers)

	setString(&c.Scratch.Dir, fc.Scratch.Dir)
	setString(&c.Log.Level, fc.Log.Level)
	setString(&c.Log.Format, fc.Log.Format)
	return nil
}

func (c *Config) mergeEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	c.OCR.URL = getEnv("OCR_URL", c.OCR.URL)
	c.OCR.Timeout = getEnvAsDuration("OCR_TIMEOUT", c.OCR.Timeout)
	c.OCR.Concurrency = getEnvAsInt("OCR_CONCURRENCY", c.OCR.Concurrency)

	c.LLM.URL = getEnv("LLM_URL", c.LLM.URL)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)

	c.Raster.Pdftoppm = getEnv("PDFTOPPM", c.Raster.Pdftoppm)
	c.Raster.DPI = getEnvAsInt("RASTER_DPI", c.Raster.DPI)
	c.Raster.Workers = getEnvAsInt("RASTER_WORKERS", c.Raster.Workers)

	c.Scratch.Dir = getEnv("SCRATCH_DIR", c.Scratch.Dir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setInt32(dst *int32, v int32) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("invalid duration %q", v), ErrInvalidInput)
	}
	*dst = d
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.URL == "" {
		return NewAppError("CONFIG_ERROR", "OCR_URL is required", ErrInvalidInput)
	}
	if c.LLM.URL == "" {
		return NewAppError("CONFIG_ERROR", "LLM_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Scratch.Dir == "" {
		return NewAppError("CONFIG_ERROR", "SCRATCH_DIR is required", ErrInvalidInput)
	}
	if c.Raster.DPI <= 0 || c.Raster.Workers <= 0 || c.OCR.Concurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "RASTER_DPI, RASTER_WORKERS and OCR_CONCURRENCY must be positive", ErrInvalidInput)
	}
	if c.OCR.Timeout <= 0 || c.LLM.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_TIMEOUT and LLM_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the process logger from LogConfig, writing to stdout.
func NewLogger(lc LogConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, lc)
}

func NewLoggerTo(w io.Writer, lc LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if strings.EqualFold(lc.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
