// Package config loads server settings from struct defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Host      string    `koanf:"host" validate:"required"`
	Bride     Person    `koanf:"bride"`
	Groom     Person    `koanf:"groom"`
	Wedding   Wedding   `koanf:"wedding"`
	Server    Server    `koanf:"server"`
	DB        Database  `koanf:"db"`
	Session   Session   `koanf:"session"`
	Redis     Redis     `koanf:"redis"`
	OAuth     OAuth     `koanf:"oauth"`
	Theme     Theme     `koanf:"theme"`
	Footer    Footer    `koanf:"footer"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Gallery   Gallery   `koanf:"gallery"`
	Log       Log       `koanf:"log"`
}

type Person struct {
	Name  string `koanf:"name" validate:"required"`
	Short string `koanf:"short"`
}

type Wedding struct {
	Date string `koanf:"date"`
}

type Server struct {
	Port         int  `koanf:"port" validate:"required,gt=0,lt=65536"`
	ExternalPort int  `koanf:"externalport"`
	TrustProxy   bool `koanf:"trustproxy"`
}

type Database struct {
	Host     string `koanf:"host" validate:"required"`
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password" validate:"required"`
	Name     string `koanf:"name" validate:"required"`
}

// URI is the MongoDB connection string with the credentials escaped.
func (d Database) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   d.Host,
		Path:   "/" + d.Name,
	}
	return u.String()
}

type Session struct {
	Name   string        `koanf:"name" validate:"required"`
	Secret string        `koanf:"secret" validate:"required"`
	MaxAge time.Duration `koanf:"maxage"`
}

// Redis is optional; an empty address keeps sessions in process.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type OAuth struct {
	ClientID string `koanf:"clientid"`
}

// Enabled reports whether the admin OAuth flow is configured.
func (o OAuth) Enabled() bool { return o.ClientID != "" }

type Theme struct {
	Primary   string `koanf:"primary"`
	Secondary string `koanf:"secondary"`
}

type Footer struct {
	Text string `koanf:"text"`
	Link string `koanf:"link"`
}

type RateLimit struct {
	PerMinute int `koanf:"perminute"`
}

type Gallery struct {
	Dir string `koanf:"dir"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server:    Server{ExternalPort: 443},
		Session:   Session{MaxAge: 30 * 24 * time.Hour},
		RateLimit: RateLimit{PerMinute: 60},
		Gallery:   Gallery{Dir: "gallery"},
		Log:       Log{Level: "info", Format: "json"},
	}
}

// envSections are the environment prefixes that map onto config sections.
var envSections = map[string]bool{
	"bride": true, "groom": true, "wedding": true, "server": true, "db": true,
	"session": true, "redis": true, "oauth": true, "theme": true, "footer": true,
	"ratelimit": true, "gallery": true, "log": true,
}

// envTransformFunc maps SERVER_PORT to server.port and HOST to host.
// Unrelated variables are dropped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if key == "host" {
		return key
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok || !envSections[section] {
		return ""
	}
	return section + "." + strings.ReplaceAll(field, "_", "")
}

// Load reads .env if present, then merges defaults, the config file and the
// environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every missing required setting by its environment name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", envName(fe.Namespace()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// envName turns Config.Server.Port into SERVER_PORT.
func envName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToUpper(strings.Join(parts, "_"))
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// BaseURL is the externally visible origin of the site.
func (c *Config) BaseURL() string {
	if c.Server.ExternalPort == 443 || c.Server.ExternalPort == 0 {
		return "https://" + c.Host
	}
	return fmt.Sprintf("https://%s:%d", c.Host, c.Server.ExternalPort)
}
