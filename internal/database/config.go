package database

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	HTTPAddr string
	AppEnv   string

	JWTSecret   string
	TokenTTL    time.Duration
	AdminAPIKey string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments supply the environment directly.
	_ = godotenv.Load()

	return &Config{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          getEnv("DB_PORT", "5432"),
		User:          getEnv("DB_USER", "app_user"),
		Password:      getEnv("DB_PASSWORD", "postgres_password"),
		DBName:        getEnv("DB_NAME", "storefront"),
		SSLMode:       getEnv("DB_SSLMODE", "disable"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		AppEnv:   getEnv("APP_ENV", "development"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 168*time.Hour),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@storefront.local"),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}, nil
}

// Production returns true when the process runs with APP_ENV=production.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// WarnOnWeakSecrets logs startup warnings for missing or weak secrets.
// Missing secrets are not fatal so that local development keeps working.
func (c *Config) WarnOnWeakSecrets() {
	if c.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; session tokens are signed with an insecure default")
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 bytes")
	}
	if c.AdminAPIKey == "" {
		log.Println("WARNING: ADMIN_API_KEY is not set; admin-data endpoints will reject all requests")
	}
	if c.BootstrapAdminPassword != "" {
		log.Println("WARNING: bootstrap admin login is enabled; disable BOOTSTRAP_ADMIN_PASSWORD once a real admin exists")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid duration in %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
