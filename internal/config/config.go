// Package config resolves logmerge settings from flags, LOGMERGE_* environment
// variables and an optional YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyListen         = "listen"
	KeyMaxUploadBytes = "max-upload-bytes"
	KeyReadTimeout    = "read-timeout"
	KeyWriteTimeout   = "write-timeout"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyFormat         = "format"
	KeyWidth          = "width"
)

// Config holds every setting the commands read.
type Config struct {
	Listen         string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       slog.Level
	LogFormat      string
	Format         string
	Width          int
}

// New returns a viper instance with defaults, environment binding and, if
// path is set or a .logmerge.yaml exists in the working or home directory,
// the config file loaded.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyListen, "localhost:22124")
	v.SetDefault(KeyMaxUploadBytes, int64(64<<20))
	v.SetDefault(KeyReadTimeout, 30*time.Second)
	v.SetDefault(KeyWriteTimeout, 60*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyWidth, 0)

	v.SetEnvPrefix("logmerge")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".logmerge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Bind makes the flags in fs override the matching viper keys.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Load resolves v into a Config.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Listen:         v.GetString(KeyListen),
		MaxUploadBytes: v.GetInt64(KeyMaxUploadBytes),
		ReadTimeout:    v.GetDuration(KeyReadTimeout),
		WriteTimeout:   v.GetDuration(KeyWriteTimeout),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		Format:         strings.ToLower(v.GetString(KeyFormat)),
		Width:          v.GetInt(KeyWidth),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid %s %q: want text or json", KeyLogFormat, cfg.LogFormat)
	}
	if cfg.MaxUploadBytes < 0 {
		return Config{}, fmt.Errorf("invalid %s: must not be negative", KeyMaxUploadBytes)
	}
	return cfg, nil
}

// Logger builds the slog handler selected by LogFormat and LogLevel.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
