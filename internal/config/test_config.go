package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig reads the TEST_DB_* and TEST_MONGO_URI variables used by integration tests.
// Missing MySQL variables leave Database empty so tests can fall back to a default DSN.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{StoreDriver: StoreDriverMySQL}
	cfg.Mongo.URI = os.Getenv("TEST_MONGO_URI")
	cfg.Mongo.Database = getEnv("TEST_MONGO_DATABASE", "shopit_test")

	required := map[string]*string{
		"TEST_DB_HOST":     &cfg.Database.Host,
		"TEST_DB_USER":     &cfg.Database.User,
		"TEST_DB_PASSWORD": &cfg.Database.Password,
		"TEST_DB_NAME":     &cfg.Database.DBName,
	}
	for key, dst := range required {
		value := os.Getenv(key)
		if value == "" {
			return &Config{StoreDriver: StoreDriverMySQL, Mongo: cfg.Mongo}, nil
		}
		*dst = value
	}

	dbPortStr := os.Getenv("TEST_DB_PORT")
	if dbPortStr == "" {
		return &Config{StoreDriver: StoreDriverMySQL, Mongo: cfg.Mongo}, nil
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	return cfg, nil
}
