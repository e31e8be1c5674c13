package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	RabbitMQ RabbitMQConfig
	Ledger   LedgerConfig
	Admin    AdminConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PublicBaseURL string // used to build referral links
	LogLevel      string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type PaymentConfig struct {
	Provider      string // razorpay | stub
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

type RabbitMQConfig struct {
	URL      string // empty disables event publishing
	Exchange string
}

type LedgerConfig struct {
	TimeZone             string
	WithdrawalRejectMode string // refund | forfeit
}

type AdminConfig struct {
	Mobile   string
	Password string
}

type JobsConfig struct {
	ReconcileCron      string
	ReconcileBatchSize int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Env:           getEnv("APP_ENV", "development"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "videoearn:videoearn@tcp(localhost:3306)/videoearn?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "videoearn"),
		},
		Payment: PaymentConfig{
			Provider:      getEnv("PAYMENT_PROVIDER", "stub"),
			KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Currency:      getEnv("PAYMENT_CURRENCY", "INR"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "ledger_events"),
		},
		Ledger: LedgerConfig{
			TimeZone:             getEnv("LEDGER_TIMEZONE", "Asia/Kolkata"),
			WithdrawalRejectMode: getEnv("WITHDRAWAL_REJECT_POLICY", "refund"),
		},
		Admin: AdminConfig{
			Mobile:   getEnv("ADMIN_MOBILE", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Jobs: JobsConfig{
			ReconcileCron:      getEnv("RECONCILE_CRON", "30 2 * * *"),
			ReconcileBatchSize: getInt("RECONCILE_BATCH_SIZE", 200),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
