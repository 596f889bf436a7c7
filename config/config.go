package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	KeyDBType      = "DB_TYPE"
	KeyMongoURL    = "MONGO_URL"
	KeyMongoDB     = "MONGO_DB"
	KeyPostgresURL = "POSTGRES_URL"
	KeyJWTSecret   = "JWT_SECRET"
	KeyPort        = "PORT"
	KeyAppEnv      = "APP_ENV"
	KeyLogLevel    = "LOG_LEVEL"
	KeyRedisAddr   = "REDIS_ADDR"
	KeyRedisPass   = "REDIS_PASSWORD"
	KeyRedisDB     = "REDIS_DB"
	KeyR2AccountID = "R2_ACCOUNT_ID"
	KeyR2Bucket    = "R2_BUCKET"
	KeyR2PublicURL = "R2_PUBLIC_URL"
	KeyR2AccessKey = "R2_ACCESS_KEY_ID"
	KeyR2SecretKey = "R2_SECRET_ACCESS_KEY"

	DBTypeMongo    = "mongo"
	DBTypePostgres = "postgres"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultDBType   = DBTypeMongo
	DefaultMongoDB  = "MicroLoan"
	DefaultPort     = 3000
	DefaultAppEnv   = EnvProduction
	DefaultLogLevel = "info"
)

// R2Config holds the Cloudflare R2 bucket used for loan images.
type R2Config struct {
	AccountID       string
	Bucket          string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether every R2 setting is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != "" && c.PublicURL != "" &&
		c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type Config struct {
	DBType        string
	MongoURL      string
	MongoDB       string
	PostgresURL   string
	JWTSecret     string
	Port          int
	AppEnv        string
	LogLevel      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	R2            R2Config
}

// LoadConfig reads the environment, optionally seeded from a .env file, and
// validates it. The server must not start when it returns an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		DBType:        strings.ToLower(envOr(KeyDBType, DefaultDBType)),
		MongoURL:      env(KeyMongoURL),
		MongoDB:       envOr(KeyMongoDB, DefaultMongoDB),
		PostgresURL:   env(KeyPostgresURL),
		JWTSecret:     env(KeyJWTSecret),
		Port:          DefaultPort,
		AppEnv:        strings.ToLower(envOr(KeyAppEnv, DefaultAppEnv)),
		LogLevel:      envOr(KeyLogLevel, DefaultLogLevel),
		RedisAddr:     env(KeyRedisAddr),
		RedisPassword: env(KeyRedisPass),
		R2: R2Config{
			AccountID:       env(KeyR2AccountID),
			Bucket:          env(KeyR2Bucket),
			PublicURL:       env(KeyR2PublicURL),
			AccessKeyID:     env(KeyR2AccessKey),
			SecretAccessKey: env(KeyR2SecretKey),
		},
	}

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		return nil, fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
	}

	missing := make([]string, 0)
	switch cfg.DBType {
	case DBTypeMongo:
		if cfg.MongoURL == "" {
			missing = append(missing, KeyMongoURL)
		}
	case DBTypePostgres:
		if cfg.PostgresURL == "" {
			missing = append(missing, KeyPostgresURL)
		}
	default:
		return nil, fmt.Errorf("invalid %s %q: must be %q or %q", KeyDBType, cfg.DBType, DBTypeMongo, DBTypePostgres)
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, KeyJWTSecret)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if raw := env(KeyPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", KeyPort, err)
		}
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%s must be between 1 and 65535", KeyPort)
		}
		cfg.Port = port
	}

	if raw := env(KeyRedisDB); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", KeyRedisDB, err)
		}
		cfg.RedisDB = db
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envOr(key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}
