package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"rcconf-manager/core/database"
	"rcconf-manager/core/events"
	"rcconf-manager/core/logger"
	"rcconf-manager/core/server"
	"rcconf-manager/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for publishing generated files.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the override store.
	Database database.Config `mapstructure:"database"`
	// Etc holds configuration for file generation.
	Etc EtcConfig `mapstructure:"etc"`
	// Events holds configuration for the NATS event bus.
	Events events.Config `mapstructure:"events"`
}

// EtcConfig describes where templates come from and where files are written.
type EtcConfig struct {
	// Mountpoint is the directory generated files are written under.
	Mountpoint string `mapstructure:"mountpoint" default:"/etc"`
	// PluginDirs are scanned for templates, in order of precedence.
	PluginDirs []string `mapstructure:"plugin_dirs" default:"templates"`
	// CacheTTL is how long drift indices are reused.
	CacheTTL time.Duration `mapstructure:"cache_ttl" default:"1m"`
}

// LoadConfig loads configuration from environment variables, the .env file in
// path and, when configFile is not empty, a JSON, YAML or TOML file.
// Environment variables take precedence over the config file.
func LoadConfig(path, configFile string) (*Config, error) {
	envPath := filepath.Join(path, ".env")

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFile, err)
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
