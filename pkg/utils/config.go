package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "apexcarousel"

const devJWTSecret = "dev-secret-change-me"

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_ttl"`
}

type AIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type Config struct {
	HTTPAddr   string     `yaml:"http_addr"`
	GRPCAddr   string     `yaml:"grpc_addr"`
	DBPath     string     `yaml:"db_path"`
	StorageDir string     `yaml:"storage_dir"`
	LogLevel   string     `yaml:"log_level"`
	FreeLimit  int        `yaml:"free_limit"`
	Auth       AuthConfig `yaml:"auth"`
	AI         AIConfig   `yaml:"ai"`
}

func Default() Config {
	return Config{
		HTTPAddr:   ":8080",
		GRPCAddr:   ":9090",
		DBPath:     filepath.Join(DataDir(), "data.db"),
		StorageDir: filepath.Join(DataDir(), "storage"),
		LogLevel:   "info",
		FreeLimit:  5,
		Auth: AuthConfig{
			JWTSecret:   devJWTSecret,
			JWTIssuer:   AppName,
			JWTDuration: 24 * time.Hour,
		},
		AI: AIConfig{Provider: "gemini"},
	}
}

func DataDir() string   { return filepath.Join(xdg.DataHome, AppName) }
func ConfigDir() string { return filepath.Join(xdg.ConfigHome, AppName) }

func DefaultConfigPath() string { return filepath.Join(ConfigDir(), "config.yaml") }

// Load applies defaults, then the YAML file at path (or the default path when
// empty), then environment overrides. A missing default file is not an error;
// a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "APEX_HTTP_ADDR")
	setString(&cfg.GRPCAddr, "APEX_GRPC_ADDR")
	setString(&cfg.DBPath, "APEX_DB_PATH")
	setString(&cfg.StorageDir, "APEX_STORAGE_DIR")
	setString(&cfg.LogLevel, "APEX_LOG_LEVEL")
	setString(&cfg.Auth.JWTSecret, "APEX_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "APEX_JWT_ISSUER")
	setString(&cfg.AI.Provider, "APEX_AI_PROVIDER")
	setString(&cfg.AI.Model, "APEX_AI_MODEL")
	setString(&cfg.AI.BaseURL, "APEX_AI_BASE_URL")

	if v := os.Getenv("APEX_JWT_TTL_HOURS"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APEX_JWT_TTL_HOURS: %w", err)
		}
		cfg.Auth.JWTDuration = time.Duration(h) * time.Hour
	}
	if v := os.Getenv("APEX_FREE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APEX_FREE_LIMIT: %w", err)
		}
		cfg.FreeLimit = n
	}

	// provider-specific keys only fill in when no generic key is set
	setString(&cfg.AI.APIKey, "APEX_AI_API_KEY")
	if cfg.AI.APIKey == "" {
		switch strings.ToLower(cfg.AI.Provider) {
		case "", "gemini":
			cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate returns the first problem found.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.StorageDir == "" {
		return errors.New("storage_dir is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.JWTDuration <= 0 {
		return errors.New("auth.jwt_ttl must be positive")
	}
	if c.FreeLimit < 0 {
		return errors.New("free_limit must not be negative")
	}
	switch strings.ToLower(c.AI.Provider) {
	case "", "gemini", "openai":
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for provider %q", c.AI.Provider)
		}
	case "mock":
	default:
		return fmt.Errorf("ai.provider %q not supported", c.AI.Provider)
	}
	return nil
}

// UsesDevSecret reports whether the JWT secret is still the built-in default.
func (c Config) UsesDevSecret() bool { return c.Auth.JWTSecret == devJWTSecret }
