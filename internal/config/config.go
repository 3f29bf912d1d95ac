package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Port              string
	BaseURL           string
	DBDriver          string // mysql | postgres | sqlite
	DBDSN             string
	DBLogLevel        string // silent | error | warn | info
	JWTSecret         string
	JWTTTL            time.Duration
	AllowRegistration bool
	GeminiAPIKey      string
	KafkaBrokers      string
	KafkaTopic        string
	CheckoutTimeout   time.Duration
	CORSOrigins       []string
}

// Load reads configuration from environment variables with reasonable defaults.
// Call godotenv.Load first if a .env file should be honoured.
func Load() Config {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		DBLogLevel:        strings.ToLower(getenv("DB_LOG_LEVEL", "warn")),
		JWTSecret:         getenv("JWT_SECRET", "dev_secret_change_me"),
		JWTTTL:            getduration("JWT_TTL", 24*time.Hour),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        getenv("KAFKA_TOPIC", "adega.sales"),
		CheckoutTimeout:   getduration("CHECKOUT_TX_TIMEOUT", 5*time.Second),
		CORSOrigins:       strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173"), ","),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		log.Printf("invalid PORT value %q, defaulting to 8080", cfg.Port)
		cfg.Port = "8080"
	}
	cfg.BaseURL = getenv("BASE_URL", "http://localhost:"+cfg.Port)

	switch cfg.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		log.Printf("unknown DB_DRIVER %q, defaulting to mysql", cfg.DBDriver)
		cfg.DBDriver = "mysql"
	}
	return cfg
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getduration(k string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s value %q, defaulting to %s", k, raw, def)
		return def
	}
	return d
}
