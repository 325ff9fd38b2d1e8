package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"

	"github.com/spf13/viper"
)

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type ServerConfig struct {
	IP   string `mapstructure:"ip"`
	Port int    `mapstructure:"port"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN is the postgres connection string for the history database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Poll     PollConfig     `mapstructure:"poll"`
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Discord  DiscordConfig  `mapstructure:"discord"`
}

// Options controls where configuration is read from
type Options struct {
	// ConfigFile is an explicit file path; it must exist when set.
	ConfigFile string
	ConfigName string
	Paths      []string
	EnvPrefix  string
}

func DefaultOptions() Options {
	return Options{
		ConfigName: "reconview",
		Paths:      []string{".", "./config", "$HOME/.reconview"},
		EnvPrefix:  "RECONVIEW",
	}
}

var defaults = map[string]interface{}{
	"backend.url":        "http://localhost:5000",
	"backend.timeout":    "30s",
	"poll.interval":      "2s",
	"server.ip":          "127.0.0.1",
	"server.port":        3000,
	"catalog.path":       "./config/tools.yaml",
	"database.enabled":   false,
	"database.host":      "localhost",
	"database.port":      5432,
	"database.user":      "reconview",
	"database.password":  "reconview",
	"database.name":      "reconview",
	"discord.token":      "",
	"discord.channel_id": "",
}

// Unprefixed variables that are honoured for compatibility with existing deployments.
var legacyEnv = map[string]string{
	"database.host":      "DB_HOST",
	"database.port":      "DB_PORT",
	"database.user":      "DB_USER",
	"database.password":  "DB_PASSWORD",
	"database.name":      "DB_NAME",
	"discord.token":      "DISCORD_TOKEN",
	"discord.channel_id": "DISCORD_CHANNEL_ID",
}

// NewViper builds the viper instance for opts. A missing config file is not
// an error unless one was named explicitly.
func NewViper(opts Options) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
		for key, env := range legacyEnv {
			prefixed := opts.EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
			if err := v.BindEnv(key, prefixed, env); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", env, err)
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
		logger.Infof("Loaded config file: %s", v.ConfigFileUsed())
		return v, nil
	}

	v.SetConfigName(opts.ConfigName)
	for _, path := range opts.Paths {
		v.AddConfigPath(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		logger.WithFields(logger.Fields{"name": opts.ConfigName, "paths": opts.Paths}).Debug("No config file found, using defaults")
		return v, nil
	}

	logger.Infof("Loaded config file: %s", v.ConfigFileUsed())
	return v, nil
}

// Load reads and validates the configuration
func Load(opts Options) (*Config, error) {
	v, err := NewViper(opts)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the dashboard cannot run without
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return rverrors.NewConfigError("backend.url", c.Backend.URL, "must be an absolute http(s) URL")
	}
	if c.Backend.Timeout <= 0 {
		return rverrors.NewConfigError("backend.timeout", c.Backend.Timeout, "must be positive")
	}
	if c.Poll.Interval <= 0 {
		return rverrors.NewConfigError("poll.interval", c.Poll.Interval, "must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return rverrors.NewConfigError("server.port", c.Server.Port, "must be between 1 and 65535")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return rverrors.NewConfigError("database.host", c.Database.Host, "required when the database is enabled")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return rverrors.NewConfigError("database.port", c.Database.Port, "must be between 1 and 65535")
		}
		if c.Database.Name == "" {
			return rverrors.NewConfigError("database.name", c.Database.Name, "required when the database is enabled")
		}
	}
	if (c.Discord.Token == "") != (c.Discord.ChannelID == "") {
		return rverrors.NewConfigError("discord", "", "token and channel_id must be set together")
	}
	return nil
}

// ListenAddr is the host:port the dashboard binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.IP, c.Server.Port)
}
