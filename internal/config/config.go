// Package config loads and persists worldkit.yaml: the API endpoint,
// credentials, and the locally persisted UI preferences.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the config file.
const DefaultPath = "worldkit.yaml"

// DefaultAPIURL is the production world API base URL.
const DefaultAPIURL = "https://www.onlyworlds.com/api/worldapi"

type Config struct {
	APIURL      string      `yaml:"api_url"`
	Credentials Credentials `yaml:"credentials"`
	Theme       string      `yaml:"theme"`
	Debug       bool        `yaml:"debug"`
	Mirror      Mirror      `yaml:"mirror"`
}

// Credentials identify one world: the numeric API key names the world, the
// PIN authorizes access to it.
type Credentials struct {
	Key string `yaml:"key"`
	Pin string `yaml:"pin"`
}

type Mirror struct {
	DSN string `yaml:"dsn"`
}

var (
	keyPattern = regexp.MustCompile(`^\d{10}$`)
	pinPattern = regexp.MustCompile(`^\d{4,}$`)
)

// Load reads and validates a config file. Credentials may be supplied or
// overridden through WORLDKIT_API_KEY and WORLDKIT_API_PIN.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if key := os.Getenv("WORLDKIT_API_KEY"); key != "" {
		cfg.Credentials.Key = key
	}
	if pin := os.Getenv("WORLDKIT_API_PIN"); pin != "" {
		cfg.Credentials.Pin = pin
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config back. Mode 0600 since the file carries credentials.
func Save(path string, cfg *Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	switch cfg.Theme {
	case "", "light", "dark":
	default:
		return fmt.Errorf("unknown theme %q (expected light or dark)", cfg.Theme)
	}

	return nil
}

// ValidateCredentials checks the shape of the key/PIN pair before any request
// is made: a 10-digit key and a PIN of at least 4 digits.
func ValidateCredentials(c Credentials) error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("api key is required")
	}
	if !keyPattern.MatchString(c.Key) {
		return fmt.Errorf("api key must be 10 digits")
	}
	if strings.TrimSpace(c.Pin) == "" {
		return fmt.Errorf("api pin is required")
	}
	if !pinPattern.MatchString(c.Pin) {
		return fmt.Errorf("api pin must be at least 4 digits")
	}
	return nil
}
