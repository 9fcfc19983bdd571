/*
Package config implements TOML config file handling for the service.

Normally it is used by passing a config file name to Load to obtain a
Config struct; a missing file yields the defaults.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the parsed configuration for the service.
type Config struct {
	DB     DbConfig     `toml:"database"`
	Server ServerConfig `toml:"server"`
	Notify NotifyConfig `toml:"notify"`
	Mail   MailConfig   `toml:"mail"`
}

// DbConfig contains database configuration.
type DbConfig struct {
	// Path to the SQLite database file.
	Path string `toml:"path"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// NotifyConfig configures outbound event delivery.
type NotifyConfig struct {
	// WebhookURL receives branch change events as JSON POSTs. Empty
	// disables webhook delivery; events are still logged.
	WebhookURL string `toml:"webhook_url"`
	// TimeoutSeconds bounds a single webhook delivery attempt.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// MailConfig configures the HTTP mail relay used for commit
// notification mail. An empty BaseURL disables mail delivery.
type MailConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	From    string `toml:"from"`
}

func (c *Config) valid() error {
	if len(c.DB.Path) == 0 {
		return fmt.Errorf("config: missing database.path value")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port value %d", c.Server.Port)
	}
	if c.Notify.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: invalid notify.timeout_seconds value %d", c.Notify.TimeoutSeconds)
	}
	if len(c.Mail.BaseURL) > 0 && len(c.Mail.From) == 0 {
		return fmt.Errorf("config: mail.from is required when mail.base_url is set")
	}
	return nil
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		DB: DbConfig{
			Path: filepath.FromSlash("data/localization.db"),
		},
		Server: ServerConfig{
			Host: "",
			Port: 8181,
		},
		Notify: NotifyConfig{
			TimeoutSeconds: 10,
		},
	}
}

// Load reads config from a TOML file over the defaults and checks its
// validity. A missing file is not an error; the defaults are returned.
func Load(file string) (Config, error) {
	conf := Default()
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return conf, conf.valid()
	}
	if _, err := toml.DecodeFile(file, &conf); err != nil {
		return conf, err
	}
	return conf, conf.valid()
}
