// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Supported user store drivers
const (
	StoreDriverMySQL = "mysql"
	StoreDriverMongo = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	StoreDriver string
	Database    DatabaseConfig
	Mongo       MongoConfig
	Server      ServerConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	JWT         JWTConfig
	Password    PasswordConfig
	SMTP        SMTPConfig
	FrontendURL string
}

// DatabaseConfig holds MySQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI      string
	Database string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
	MaxRequestSize     int64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret       string
	Expiry       time.Duration
	CookieSecure bool
}

// PasswordConfig holds credential hashing and reset settings
type PasswordConfig struct {
	BcryptCost       int
	ResetTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMySQL))
	switch cfg.StoreDriver {
	case StoreDriverMySQL:
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	case StoreDriverMongo:
		cfg.Mongo.URI = os.Getenv("MONGO_URI")
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("MONGO_URI is required")
		}
		cfg.Mongo.Database = getEnv("MONGO_DATABASE", "shopit")
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}

	// Server configuration
	serverPort, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	maxRequestSize, err := getEnvInt("MAX_REQUEST_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.Server.MaxRequestSize = int64(maxRequestSize)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Session token expiry (default: 7 days)
	jwtExpiry, err := getEnvDuration("JWT_EXPIRES_TIME", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.Expiry = jwtExpiry

	cookieSecure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}
	cfg.JWT.CookieSecure = cookieSecure

	// Password configuration
	bcryptCost, err := getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid BCRYPT_COST: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.Password.BcryptCost = bcryptCost

	resetExpiry, err := getEnvDuration("RESET_TOKEN_EXPIRY", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Password.ResetTokenExpiry = resetExpiry

	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	// SMTP configuration
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Port = smtpPort
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional
	cfg.SMTP.From = getEnv("SMTP_FROM", "noreply@shopit.com")

	return cfg, nil
}

// loadDatabase reads the MySQL settings, all of which are required
func loadDatabase(cfg *Config) error {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// DSN returns the MySQL connection string
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
