package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file.
const ConfigPath = "config.yaml"

const defaultPort = "5000"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port              string `yaml:"port"`
	LogLevel          string `yaml:"logLevel"`
	DatabaseURL       string `yaml:"databaseURL"`
	DatabaseName      string `yaml:"databaseName"`
	AccessTokenSecret string `yaml:"accessTokenSecret"`
	StripeSecretKey   string `yaml:"stripeSecretKey"`

	// TrustedProxyCIDRs lists proxies whose forwarded headers are trusted
	// when resolving client IPs. Empty means trust none.
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error so the service can run on environment variables alone.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// env-only deployment
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DatabaseName = v
	}
	if v := os.Getenv("ACCESS_TOKEN_SECRET"); v != "" {
		cfg.AccessTokenSecret = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.StripeSecretKey = v
	}
	if v := os.Getenv("TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = strings.Split(v, ",")
	}

	cfg.DatabaseURL = expandCredentials(cfg.DatabaseURL, os.Getenv("DB_USER"), os.Getenv("DB_PASS"))

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = "arctools"
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// expandCredentials substitutes ${DB_USER} and ${DB_PASS} placeholders in the
// database URL with the corresponding environment values. A placeholder whose
// variable is unset is left in place so validation can report it instead of
// producing a URL with blank credentials.
func expandCredentials(url, user, pass string) string {
	if user != "" {
		url = strings.ReplaceAll(url, "${DB_USER}", user)
	}
	if pass != "" {
		url = strings.ReplaceAll(url, "${DB_PASS}", pass)
	}
	return url
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set MONGODB_URI)")
	}
	if strings.Contains(cfg.DatabaseURL, "${DB_USER}") || strings.Contains(cfg.DatabaseURL, "${DB_PASS}") {
		return errors.New("config: databaseURL has unexpanded credentials (set DB_USER and DB_PASS)")
	}
	if strings.TrimSpace(cfg.AccessTokenSecret) == "" {
		return errors.New("config: accessTokenSecret is required (set ACCESS_TOKEN_SECRET)")
	}
	if strings.TrimSpace(cfg.StripeSecretKey) == "" {
		return errors.New("config: stripeSecretKey is required (set STRIPE_SECRET_KEY)")
	}
	return nil
}
