package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	// StorageDriverPostgres persists everything in PostgreSQL.
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory keeps state in process, for local runs and tests.
	StorageDriverMemory = "memory"

	// AssetRailVoltage drives Lightning through the Voltage REST API.
	AssetRailVoltage = "voltage"
	// AssetRailLND drives Lightning through an LND node over gRPC.
	AssetRailLND = "lnd"

	defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageDriver  string
	MigrationsPath string

	// Operator API auth
	JWTSecret string
	JWTIssuer string

	RateLimit          string
	CORSAllowedOrigins []string

	// Pricing
	FeeBasePercentage decimal.Decimal
	FeeMinFiat        decimal.Decimal
	FeeMaxFiat        decimal.Decimal

	RateFreshnessWindow time.Duration
	RateFallback        decimal.Decimal
	RateSourceURL       string
	RateSourceRPS       float64

	// Lightning rail
	AssetRailDriver   string
	VoltageBaseURL    string
	VoltageAPIKey     string
	InvoiceExpiry     time.Duration
	LNDHost           string
	LNDTLSCertPath    string
	LNDMacaroonPath   string
	LNDPaymentTimeout time.Duration
	LNDFeeLimitSats   int64

	// Mobile money rail
	LipilaBaseURL string
	LipilaAPIKey  string

	RailTimeout           time.Duration
	RailRequestsPerSecond float64

	WebhookSecretVoltage string
	WebhookSecretLipila  string

	RedisURL         string
	KafkaBrokers     []string
	KafkaEventsTopic string

	PendingTimeout time.Duration
	SweepInterval  time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "btc-momo-exchange")
	viper.SetDefault("RATE_LIMIT", "60-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("FEE_BASE_PERCENTAGE", "1.5")
	viper.SetDefault("FEE_MIN_FIAT", "5")
	viper.SetDefault("FEE_MAX_FIAT", "500")
	viper.SetDefault("RATE_FRESHNESS_WINDOW", "5m")
	viper.SetDefault("RATE_FALLBACK", "1500000")
	viper.SetDefault("RATE_SOURCE_URL", "https://api.coingecko.com/api/v3")
	viper.SetDefault("RATE_SOURCE_RPS", 0.5)
	viper.SetDefault("ASSET_RAIL_DRIVER", AssetRailVoltage)
	viper.SetDefault("VOLTAGE_BASE_URL", "https://api.voltage.cloud/v1")
	viper.SetDefault("VOLTAGE_API_KEY", "")
	viper.SetDefault("INVOICE_EXPIRY", "1h")
	viper.SetDefault("LND_HOST", "")
	viper.SetDefault("LND_TLS_CERT_PATH", "")
	viper.SetDefault("LND_MACAROON_PATH", "")
	viper.SetDefault("LND_PAYMENT_TIMEOUT", "60s")
	viper.SetDefault("LND_FEE_LIMIT_SATS", 100)
	viper.SetDefault("LIPILA_BASE_URL", "https://api.lipila.dev/v1")
	viper.SetDefault("LIPILA_API_KEY", "")
	viper.SetDefault("RAIL_TIMEOUT", "30s")
	viper.SetDefault("RAIL_REQUESTS_PER_SECOND", 10)
	viper.SetDefault("WEBHOOK_SECRET_VOLTAGE", "")
	viper.SetDefault("WEBHOOK_SECRET_LIPILA", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_EVENTS_TOPIC", "exchange.transactions")
	viper.SetDefault("PENDING_TIMEOUT", "65m")
	viper.SetDefault("SWEEP_INTERVAL", "1m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.StorageDriver = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" && cfg.StorageDriver == StorageDriverPostgres {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	var err error
	if cfg.FeeBasePercentage, err = decimalSetting("FEE_BASE_PERCENTAGE"); err != nil {
		return nil, err
	}
	if cfg.FeeMinFiat, err = decimalSetting("FEE_MIN_FIAT"); err != nil {
		return nil, err
	}
	if cfg.FeeMaxFiat, err = decimalSetting("FEE_MAX_FIAT"); err != nil {
		return nil, err
	}
	if cfg.FeeMinFiat.GreaterThan(cfg.FeeMaxFiat) {
		return nil, fmt.Errorf("FEE_MIN_FIAT (%s) exceeds FEE_MAX_FIAT (%s)", cfg.FeeMinFiat, cfg.FeeMaxFiat)
	}

	cfg.RateFreshnessWindow = durationSetting("RATE_FRESHNESS_WINDOW", 5*time.Minute)
	if cfg.RateFallback, err = decimalSetting("RATE_FALLBACK"); err != nil {
		return nil, err
	}
	cfg.RateSourceURL = viper.GetString("RATE_SOURCE_URL")
	cfg.RateSourceRPS = viper.GetFloat64("RATE_SOURCE_RPS")

	cfg.AssetRailDriver = strings.ToLower(viper.GetString("ASSET_RAIL_DRIVER"))
	if cfg.AssetRailDriver != AssetRailVoltage && cfg.AssetRailDriver != AssetRailLND {
		return nil, fmt.Errorf("unsupported ASSET_RAIL_DRIVER %q", cfg.AssetRailDriver)
	}
	cfg.VoltageBaseURL = viper.GetString("VOLTAGE_BASE_URL")
	cfg.VoltageAPIKey = viper.GetString("VOLTAGE_API_KEY")
	cfg.InvoiceExpiry = durationSetting("INVOICE_EXPIRY", time.Hour)
	cfg.LNDHost = viper.GetString("LND_HOST")
	cfg.LNDTLSCertPath = viper.GetString("LND_TLS_CERT_PATH")
	cfg.LNDMacaroonPath = viper.GetString("LND_MACAROON_PATH")
	cfg.LNDPaymentTimeout = durationSetting("LND_PAYMENT_TIMEOUT", time.Minute)
	cfg.LNDFeeLimitSats = viper.GetInt64("LND_FEE_LIMIT_SATS")
	if cfg.AssetRailDriver == AssetRailLND && cfg.LNDHost == "" {
		return nil, fmt.Errorf("LND_HOST must be set when ASSET_RAIL_DRIVER=lnd")
	}
	if cfg.AssetRailDriver == AssetRailVoltage && cfg.VoltageAPIKey == "" {
		log.Println("Warning: VOLTAGE_API_KEY not set. Lightning calls will be rejected upstream.")
	}

	cfg.LipilaBaseURL = viper.GetString("LIPILA_BASE_URL")
	cfg.LipilaAPIKey = viper.GetString("LIPILA_API_KEY")
	if cfg.LipilaAPIKey == "" {
		log.Println("Warning: LIPILA_API_KEY not set. Mobile money calls will be rejected upstream.")
	}

	cfg.RailTimeout = durationSetting("RAIL_TIMEOUT", 30*time.Second)
	cfg.RailRequestsPerSecond = viper.GetFloat64("RAIL_REQUESTS_PER_SECOND")

	cfg.WebhookSecretVoltage = viper.GetString("WEBHOOK_SECRET_VOLTAGE")
	cfg.WebhookSecretLipila = viper.GetString("WEBHOOK_SECRET_LIPILA")
	if cfg.IsProduction && (cfg.WebhookSecretVoltage == "" || cfg.WebhookSecretLipila == "") {
		log.Println("Warning: webhook secrets not set. Webhook signatures will not be verified.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.KafkaBrokers = splitList(viper.GetString("KAFKA_BROKERS"))
	cfg.KafkaEventsTopic = viper.GetString("KAFKA_EVENTS_TOPIC")

	cfg.PendingTimeout = durationSetting("PENDING_TIMEOUT", 65*time.Minute)
	cfg.SweepInterval = durationSetting("SWEEP_INTERVAL", time.Minute)

	return cfg, nil
}

// durationSetting parses key, falling back to def with a warning when the value is malformed.
func durationSetting(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func decimalSetting(key string) (decimal.Decimal, error) {
	raw := viper.GetString(key)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
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
