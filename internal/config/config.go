package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	CORS     CORSConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	SSLMode       string
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int

	// Login/register attempts allowed per client per window
	AuthRequestsPerWindow int
	AuthWindow            time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type StorageConfig struct {
	UploadDir     string
	PublicBaseURL string
}

// IsDevelopment reports whether the server runs with development settings.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// DSN builds the PostgreSQL connection string for the pgx driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.Schema,
	)
}

// Addr returns host:port of the Redis server.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// Load reads configuration from an optional .env file and the environment.
// It is called once at process start; the result is passed to constructors.
func Load() *Config {
	// Populate the process environment first so AutomaticEnv sees .env values too.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: no .env file loaded: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_REQUEST_TIMEOUT", "15s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_AUTH_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_AUTH_WINDOW", "1m")
	v.SetDefault("JWT_EXPIRY", "48h")
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3001,https://digitronix-store.netlify.app")
	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:3000")

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			RequestTimeout: v.GetDuration("SERVER_REQUEST_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Database:      v.GetString("DB_DATABASE"),
			Schema:        v.GetString("DB_SCHEMA"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:                  v.GetString("REDIS_HOST"),
			Port:                  v.GetString("REDIS_PORT"),
			Password:              v.GetString("REDIS_PASSWORD"),
			DB:                    v.GetInt("REDIS_DB"),
			AuthRequestsPerWindow: v.GetInt("RATE_LIMIT_AUTH_REQUESTS"),
			AuthWindow:            v.GetDuration("RATE_LIMIT_AUTH_WINDOW"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: v.GetDuration("JWT_EXPIRY"),
		},
		Cookie: CookieConfig{
			Name:   v.GetString("COOKIE_NAME"),
			Secure: v.GetBool("COOKIE_SECURE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Storage: StorageConfig{
			UploadDir:     v.GetString("UPLOAD_DIR"),
			PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWT.Expiry)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("DB_DATABASE must be set")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
