// Package config loads application configuration from a yaml file with
// environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration tree.
type Config struct {
	App      AppConfig     `mapstructure:"app"`
	Server   ServerConfig  `mapstructure:"server"`
	Database DBConfig      `mapstructure:"database"`
	SMTP     SMTPConfig    `mapstructure:"smtp"`
	Inbound  InboundConfig `mapstructure:"inbound_mail"`
	Storage  StorageConfig `mapstructure:"storage"`
	Auth     AuthConfig    `mapstructure:"auth"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type InboundConfig struct {
	// Domain is the inbound-parse domain replies are addressed to, e.g.
	// parse.spiritgear.example.
	Domain string `mapstructure:"domain"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// Load reads configuration from the given file (optional) and SPIRITGEAR_*
// environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPIRITGEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "spiritgear")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "spiritgear.db")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "orders@spiritgear.example")
	v.SetDefault("inbound_mail.domain", "parse.spiritgear.example")
	v.SetDefault("storage.base_path", "data/storage")
	v.SetDefault("auth.token_duration", 12*time.Hour)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
