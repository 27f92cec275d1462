package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	BaseURL     string   `mapstructure:"BASE_URL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer  string   `mapstructure:"AUTH_ISSUER"`
	AuthAud     string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSecret  string   `mapstructure:"AUTH_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range []string{
		"PORT", "ENV", "BASE_URL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SECRET", "CORS_ORIGINS",
	} {
		v.BindEnv(key)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s/fhir", cfg.Port)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate refuses configurations that would run without a database or,
// outside development, without authentication.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if !c.IsDev() && c.AuthSecret == "" && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_SECRET or AUTH_ISSUER must be set when ENV is not development")
	}
	return nil
}
