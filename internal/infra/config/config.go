package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	minSecretLength = 32
	// tokens carry whole-second iat/exp claims
	minTokenTTL = time.Second
)

type Config struct {
	DatabaseURL string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	PasswordHasher string
	BcryptCost     int
	PasswordPepper string

	HTTPAddress   string
	GRPCAddress   string
	HTTPSCertFile string
	HTTPSKeyFile  string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AllowedOrigins   []string
	AllowCredentials bool

	RateLimit int
	RateBurst int

	LogLevel string
}

// Load reads config.json from the working directory when present and lets
// environment variables override every key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("ACCESS_TOKEN_TTL", "5m")
	v.SetDefault("REFRESH_TOKEN_TTL", "5h")
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("HTTP_ADDRESS", ":8000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT", 50)
	v.SetDefault("RATE_BURST", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	origins, err := parseList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		PasswordHasher:   strings.ToLower(v.GetString("PASSWORD_HASHER")),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		PasswordPepper:   v.GetString("PASSWORD_PEPPER"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		GRPCAddress:      v.GetString("GRPC_ADDRESS"),
		HTTPSCertFile:    v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:     v.GetString("HTTPS_KEY_FILE"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		AllowedOrigins:   origins,
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		RateLimit:        v.GetInt("RATE_LIMIT"),
		RateBurst:        v.GetInt("RATE_BURST"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("DATABASE_URL is not set")
	case c.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET is not set")
	case len(c.JWTSecret) < minSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	case c.AccessTokenTTL < minTokenTTL:
		return fmt.Errorf("ACCESS_TOKEN_TTL must be at least %s, got %s", minTokenTTL, c.AccessTokenTTL)
	case c.RefreshTokenTTL < minTokenTTL:
		return fmt.Errorf("REFRESH_TOKEN_TTL must be at least %s, got %s", minTokenTTL, c.RefreshTokenTTL)
	case c.RateLimit > 0 && c.RateBurst <= 0:
		return fmt.Errorf("RATE_BURST must be positive when RATE_LIMIT is set, got %d", c.RateBurst)
	case c.PasswordHasher != "bcrypt" && c.PasswordHasher != "argon2id":
		return fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.PasswordHasher)
	case (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == ""):
		return fmt.Errorf("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	return nil
}

// parseList accepts either a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}
