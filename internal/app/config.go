package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/studybridge-backend/internal/platform/envutil"
)

// Config is the immutable startup snapshot. Nothing reads the environment
// after this is built; retrieval settings travel with it explicitly.
type Config struct {
	Mode           string
	Port           string
	DatabaseURL    string
	AllowedOrigins string

	JWTSecret string
	JWTTTL    time.Duration

	VectorStoreID      string
	StrictVerifiedOnly bool
	DefaultModel       string

	RedisAddr      string
	RedisPassword  string
	PolicyCacheTTL time.Duration
}

// fileOverlay mirrors the optional YAML config file. Set fields override the
// environment values.
type fileOverlay struct {
	Mode               string `yaml:"mode"`
	Port               string `yaml:"port"`
	DatabaseURL        string `yaml:"database_url"`
	AllowedOrigins     string `yaml:"allowed_origins"`
	JWTSecret          string `yaml:"jwt_secret"`
	JWTTTLMinutes      int    `yaml:"jwt_ttl_minutes"`
	VectorStoreID      string `yaml:"vector_store_id"`
	StrictVerifiedOnly *bool  `yaml:"strict_verified_only"`
	DefaultModel       string `yaml:"default_model"`
	RedisAddr          string `yaml:"redis_addr"`
	RedisPassword      string `yaml:"redis_password"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Mode:               envutil.String("APP_MODE", "dev"),
		Port:               envutil.String("PORT", "8080"),
		DatabaseURL:        envutil.String("DATABASE_URL", ""),
		AllowedOrigins:     envutil.String("ALLOWED_ORIGINS", "*"),
		JWTSecret:          envutil.String("JWT_SECRET", ""),
		JWTTTL:             time.Duration(envutil.Int("JWT_TTL_MINUTES", 60*24)) * time.Minute,
		VectorStoreID:      envutil.String("VECTOR_STORE_ID", ""),
		StrictVerifiedOnly: envutil.Bool("STRICT_VERIFIED_ONLY", false),
		DefaultModel:       envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		RedisAddr:          envutil.String("REDIS_ADDR", ""),
		RedisPassword:      envutil.String("REDIS_PASSWORD", ""),
		PolicyCacheTTL:     envutil.Duration("POLICY_CACHE_TTL", 30*time.Second),
	}

	if path := envutil.String("STUDYBRIDGE_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		var overlay fileOverlay
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		applyOverlay(cfg, overlay)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, o fileOverlay) {
	if o.Mode != "" {
		cfg.Mode = o.Mode
	}
	if o.Port != "" {
		cfg.Port = o.Port
	}
	if o.DatabaseURL != "" {
		cfg.DatabaseURL = o.DatabaseURL
	}
	if o.AllowedOrigins != "" {
		cfg.AllowedOrigins = o.AllowedOrigins
	}
	if o.JWTSecret != "" {
		cfg.JWTSecret = o.JWTSecret
	}
	if o.JWTTTLMinutes > 0 {
		cfg.JWTTTL = time.Duration(o.JWTTTLMinutes) * time.Minute
	}
	if o.VectorStoreID != "" {
		cfg.VectorStoreID = o.VectorStoreID
	}
	if o.StrictVerifiedOnly != nil {
		cfg.StrictVerifiedOnly = *o.StrictVerifiedOnly
	}
	if o.DefaultModel != "" {
		cfg.DefaultModel = o.DefaultModel
	}
	if o.RedisAddr != "" {
		cfg.RedisAddr = o.RedisAddr
	}
	if o.RedisPassword != "" {
		cfg.RedisPassword = o.RedisPassword
	}
}
