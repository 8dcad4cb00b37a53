package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-invoiceform/pkg/autosave"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

const (
	configName = "invoiceform"
	envPrefix  = "INVOICEFORM"
)

// Config is the merged result of defaults, invoiceform.yaml, INVOICEFORM_*
// environment variables and flags, in increasing precedence.
type Config struct {
	DB        string        `mapstructure:"db"`
	Quota     int64         `mapstructure:"quota"`
	Templates string        `mapstructure:"templates"`
	Listen    string        `mapstructure:"listen"`
	Autosave  time.Duration `mapstructure:"autosave"`
	Theme     string        `mapstructure:"theme"`
	Variant   string        `mapstructure:"variant"`
	Palette   html.Palette  `mapstructure:"palette"`
	LogLevel  string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "invoiceform.db")
	v.SetDefault("quota", 0)
	v.SetDefault("templates", "")
	v.SetDefault("listen", ":8080")
	v.SetDefault("autosave", autosave.DefaultDelay.String())
	v.SetDefault("theme", html.DefaultThemeName)
	v.SetDefault("variant", "")
	v.SetDefault("log_level", "info")
}

// loadConfig reads the config file at path, or looks for invoiceform.yaml in
// the working directory and the user config directory when path is empty. A
// missing default file is not an error.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
