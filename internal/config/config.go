package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "NOTES"

// Keys understood in config.yaml, as NOTES_* environment variables (dots
// become underscores) and as bound flags.
const (
	KeyHTTPPort          = "http.port"
	KeyDataDir           = "data.dir"
	KeyUploadsDir        = "uploads.dir"
	KeyUploadsMaxBytes   = "uploads.max_bytes"
	KeyJWTSecret         = "auth.jwt_secret"
	KeyInitialPassword   = "auth.initial_password"
	KeyRetentionWindow   = "retention.window"
	KeyRetentionInterval = "retention.interval"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
	KeyMetricsEnabled    = "metrics.enabled"
	KeyMetricsPath       = "metrics.path"
	KeyCORSOrigins       = "cors.allowed_origins"
)

type Config struct {
	Port              int
	DataDir           string
	UploadsDir        string
	MaxUploadBytes    int64
	JWTSecret         string
	InitialPassword   string
	RetentionWindow   time.Duration
	RetentionInterval time.Duration
	LogLevel          string
	LogFormat         string
	MetricsEnabled    bool
	MetricsPath       string
	// AllowedOrigins may call the API from a browser. Empty disables CORS.
	AllowedOrigins []string
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "notes.db")
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPPort, 5001)
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyUploadsDir, "./uploads")
	v.SetDefault(KeyUploadsMaxBytes, 10<<20)
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeyInitialPassword, "")
	v.SetDefault(KeyRetentionWindow, 30*24*time.Hour)
	v.SetDefault(KeyRetentionInterval, 24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyMetricsPath, "/metrics")
	v.SetDefault(KeyCORSOrigins, []string{"http://localhost:5173", "http://localhost:3000"})
}

// Load builds the configuration from defaults, <configDir>/config.yaml, the
// environment (after loading envFile) and flags, later sources winning.
// Missing config and env files are not errors.
func Load(configDir, envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configDir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Port:              v.GetInt(KeyHTTPPort),
		DataDir:           v.GetString(KeyDataDir),
		UploadsDir:        v.GetString(KeyUploadsDir),
		MaxUploadBytes:    v.GetInt64(KeyUploadsMaxBytes),
		JWTSecret:         v.GetString(KeyJWTSecret),
		InitialPassword:   v.GetString(KeyInitialPassword),
		RetentionWindow:   v.GetDuration(KeyRetentionWindow),
		RetentionInterval: v.GetDuration(KeyRetentionInterval),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		MetricsEnabled:    v.GetBool(KeyMetricsEnabled),
		MetricsPath:       v.GetString(KeyMetricsPath),
		AllowedOrigins:    splitList(v.GetStringSlice(KeyCORSOrigins)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma separated environment values.
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"port":     KeyHTTPPort,
	"data-dir": KeyDataDir,
	"uploads":  KeyUploadsDir,
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", KeyHTTPPort, c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%s must not be empty", KeyDataDir)
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("%s must not be empty", KeyUploadsDir)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%s must be positive", KeyUploadsMaxBytes)
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("%s must be positive", KeyRetentionWindow)
	}
	if c.RetentionInterval < 0 {
		return fmt.Errorf("%s must not be negative", KeyRetentionInterval)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s must be debug, info, warn or error, got %q", KeyLogLevel, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.LogFormat)
	}
	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("%s must start with /", KeyMetricsPath)
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("%s must list origins explicitly, credentials are allowed", KeyCORSOrigins)
		}
	}
	return nil
}
