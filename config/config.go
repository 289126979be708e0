package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	CORSOrigins []string

	DBDriver      string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	SQLitePath    string
	RedisAddr     string
	RedisPort     string
	RedisPassword string
	JWTSecret     string
	JWTTTLHours   int

	// Payment gateway configuration. Never sourced from user input.
	MerchantID          string
	MerchantSecret      string
	GatewaySandbox      bool
	ReturnURL           string
	CancelURL           string
	NotifyURL           string
	Currency            string
	SupportedCurrencies []string
	AttemptTTLMinutes   int
	ReaperIntervalSecs  int

	// Log configuration
	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
	LogConsole    bool
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// Validate reports every mandatory setting that is missing or out of range.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"JWT_SECRET", c.JWTSecret},
		{"PAYHERE_MERCHANT_ID", c.MerchantID},
		{"PAYHERE_MERCHANT_SECRET", c.MerchantSecret},
		{"PAYMENT_RETURN_URL", c.ReturnURL},
		{"PAYMENT_CANCEL_URL", c.CancelURL},
		{"PAYMENT_NOTIFY_URL", c.NotifyURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}

	var nonPositive []string
	for _, r := range []struct {
		key   string
		value int
	}{
		{"JWT_TTL_HOURS", c.JWTTTLHours},
		{"PAYMENT_ATTEMPT_TTL_MINUTES", c.AttemptTTLMinutes},
		{"PAYMENT_REAPER_INTERVAL_SECONDS", c.ReaperIntervalSecs},
	} {
		if r.value <= 0 {
			nonPositive = append(nonPositive, r.key)
		}
	}
	if len(nonPositive) > 0 {
		return fmt.Errorf("configuration must be greater than zero: %s", strings.Join(nonPositive, ", "))
	}
	return nil
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return &Config{
		ServerPort:  getEnv("PORT", "8080"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:8081", "http://localhost:19006"}),

		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        os.Getenv("DB_PORT"),
		SQLitePath:    getEnv("SQLITE_PATH", "carelink.db"),
		RedisAddr:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTLHours:   getEnvAsInt("JWT_TTL_HOURS", 72),

		MerchantID:          os.Getenv("PAYHERE_MERCHANT_ID"),
		MerchantSecret:      os.Getenv("PAYHERE_MERCHANT_SECRET"),
		GatewaySandbox:      getEnvAsBool("PAYHERE_SANDBOX", true),
		ReturnURL:           os.Getenv("PAYMENT_RETURN_URL"),
		CancelURL:           os.Getenv("PAYMENT_CANCEL_URL"),
		NotifyURL:           os.Getenv("PAYMENT_NOTIFY_URL"),
		Currency:            strings.ToUpper(getEnv("PAYMENT_CURRENCY", "LKR")),
		SupportedCurrencies: getEnvAsList("PAYMENT_SUPPORTED_CURRENCIES", []string{"LKR", "USD", "GBP", "EUR", "AUD"}),
		AttemptTTLMinutes:   getEnvAsInt("PAYMENT_ATTEMPT_TTL_MINUTES", 30),
		ReaperIntervalSecs:  getEnvAsInt("PAYMENT_REAPER_INTERVAL_SECONDS", 60),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFilename:   getEnv("LOG_FILENAME", "logs/app.log"),
		LogMaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvAsInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvAsBool("LOG_COMPRESS", true),
		LogConsole:    getEnvAsBool("LOG_CONSOLE", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
