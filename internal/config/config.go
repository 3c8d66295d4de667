// Package config handles configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the demo application configuration.
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Cursor  CursorConfig  `mapstructure:"cursor"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WindowConfig contains the initial window parameters.
type WindowConfig struct {
	Width  int32  `mapstructure:"width"`
	Height int32  `mapstructure:"height"`
	Title  string `mapstructure:"title"`
	AppID  string `mapstructure:"app_id"`
}

// CursorConfig contains cursor rendering settings.
type CursorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Theme   string `mapstructure:"theme"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// LogLevel overrides the LOG_LEVEL env var when set.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Window: WindowConfig{
		Width:  640,
		Height: 480,
		Title:  "wlshell demo",
		AppID:  "com.github.bnema.wlshell-demo",
	},
	Cursor: CursorConfig{
		Enabled: true,
		Theme:   "",
	},
	Logging: LoggingConfig{
		LogLevel: "",
	},
}

var (
	cfg                *Config
	configPathOverride string
)

// SetConfigPath allows overriding the config file path.
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system. A missing config file is
// fine; defaults apply.
func Init() error {
	viper.SetConfigName("wlshell")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "wlshell"))
		} else if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wlshell"))
		}
		viper.AddConfigPath(".")
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	c := DefaultConfig
	if err := viper.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func setDefaults() {
	viper.SetDefault("window.width", DefaultConfig.Window.Width)
	viper.SetDefault("window.height", DefaultConfig.Window.Height)
	viper.SetDefault("window.title", DefaultConfig.Window.Title)
	viper.SetDefault("window.app_id", DefaultConfig.Window.AppID)
	viper.SetDefault("cursor.enabled", DefaultConfig.Cursor.Enabled)
	viper.SetDefault("cursor.theme", DefaultConfig.Cursor.Theme)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

// Get returns the loaded config, initializing with defaults if Init was
// never called.
func Get() *Config {
	if cfg == nil {
		c := DefaultConfig
		cfg = &c
	}
	return cfg
}
