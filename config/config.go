package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. Every feature flag and credential lives here and is handed to
// components at construction; nothing reads the environment afterwards,
// which keeps dry-run and disabled-integration behavior testable.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Crawl scope. MaxPages = 0 means walk the index until an empty page.
	BaseURL      string
	Region       string
	PriceCeiling int
	MaxPages     int

	IndexWaveSize    int
	DetailWaveSize   int
	DispatchWaveSize int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	SMSGatewayURL   string
	SMSGatewayToken string
	SMSFrom         string

	BitlyToken string

	LeadServiceURL string
	LeadToken      string
	LeadNotify     bool // false keeps lead forwarding in dry-run mode

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "watcher"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "watcher123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		BaseURL:      getEnv("BLOCKET_BASE_URL", "https://www.blocket.se"),
		Region:       getEnv("BLOCKET_REGION", "stockholm"),
		PriceCeiling: getEnvInt("BLOCKET_PRICE_CEILING", 8000),
		MaxPages:     getEnvInt("BLOCKET_MAX_PAGES", 0),

		IndexWaveSize:    getEnvInt("INDEX_WAVE_SIZE", 5),
		DetailWaveSize:   getEnvInt("DETAIL_WAVE_SIZE", 50),
		DispatchWaveSize: getEnvInt("DISPATCH_WAVE_SIZE", 50),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		SMSGatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayToken: getEnv("SMS_GATEWAY_TOKEN", ""),
		SMSFrom:         getEnv("SMS_FROM", "RentalWatch"),

		BitlyToken: getEnv("BITLY_TOKEN", ""),

		LeadServiceURL: getEnv("LEAD_SERVICE_URL", "https://api.qasa.se/v1/blocket_leads"),
		LeadToken:      getEnv("LEAD_TOKEN", ""),
		LeadNotify:     getEnvBool("LEAD_NOTIFY", false),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
