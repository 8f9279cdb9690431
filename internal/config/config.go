package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment      string
	InternalDomain   string
	DBHost           string
	DBPort           string
	DBUsername       string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	Port             string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	TransportTimeout time.Duration
	Timezone         string
}

func NewConfig() (*Config, error) {
	env := os.Getenv("MAILENGINE_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment:      env,
		InternalDomain:   getEnvOrDefault("MAILENGINE_INTERNAL_DOMAIN", "hirewire.jobs"),
		DBHost:           getEnvOrDefault("MAILENGINE_DB_HOST", "localhost"),
		DBPort:           getEnvOrDefault("MAILENGINE_DB_PORT", "5432"),
		DBUsername:       getEnvOrDefault("MAILENGINE_DB_USER", "mailengine"),
		DBPassword:       os.Getenv("MAILENGINE_DB_PASSWORD"),
		DBName:           getEnvOrDefault("MAILENGINE_DB_NAME", "mailengine"),
		DBSSLMode:        getEnvOrDefault("MAILENGINE_DB_SSLMODE", "disable"),
		Port:             getEnvOrDefault("PORT", "8080"),
		SMTPHost:         getEnvOrDefault("MAILENGINE_SMTP_HOST", "localhost"),
		SMTPPort:         getEnvOrDefault("MAILENGINE_SMTP_PORT", "587"),
		SMTPUsername:     os.Getenv("MAILENGINE_SMTP_USER"),
		SMTPPassword:     os.Getenv("MAILENGINE_SMTP_PASSWORD"),
		TransportTimeout: getDurationOrDefault("MAILENGINE_TRANSPORT_TIMEOUT_SECONDS", 15*time.Second),
		Timezone:         getEnvOrDefault("TZ", "UTC"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.InternalDomain == "" {
		return fmt.Errorf("MAILENGINE_INTERNAL_DOMAIN is required")
	}

	if c.DBPassword == "" {
		return fmt.Errorf("MAILENGINE_DB_PASSWORD is required")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// GetSMTPAddress returns the host:port the external transport dials.
func (c *Config) GetSMTPAddress() string {
	return c.SMTPHost + ":" + c.SMTPPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
