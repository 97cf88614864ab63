package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	DB        DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Engine   string
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	SSLMode  string
	Migrate  bool
}

type AuthConfig struct {
	TokenSecret []byte
	TokenTTL    time.Duration
	Issuer      string
	HeaderName  string
	BcryptCost  int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig points at the store holding the pending account deletion
// journal. An empty Addr disables the journal.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	JournalKey string
}

// KafkaConfig enables domain event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	ServiceName          string
	ServiceVersion       string
	OTLPEndpoint         string
	OTLPTracesEndpoint   string
	OTLPMetricsEndpoint  string
	OTLPProtocol         string
	OTLPInsecure         bool
	OTLPHeaders          map[string]string
	ExportTimeout        time.Duration
	MetricExportInterval time.Duration
}

const (
	minBcryptCost = 4
	maxBcryptCost = 14
)

func Load() (Config, error) {
	v := newViper()

	appEnv := v.GetString("APP_ENV")

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET must be set")
	}

	tokenTTL, err := getDuration(v, "JWT_TTL")
	if err != nil {
		return Config{}, err
	}

	bcryptCost, err := getInt(v, "BCRYPT_COST")
	if err != nil {
		return Config{}, err
	}
	if bcryptCost < minBcryptCost || bcryptCost > maxBcryptCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost)
	}

	redisDB, err := getInt(v, "REDIS_DB")
	if err != nil {
		return Config{}, err
	}

	exportTimeout, err := getDuration(v, "OTEL_EXPORTER_OTLP_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	metricInterval, err := getDuration(v, "OTEL_METRIC_EXPORT_INTERVAL")
	if err != nil {
		return Config{}, err
	}

	dbName := v.GetString("DB_NAME")
	if dbName == "" {
		dbName = v.GetString("DB_INSTANCE_IDENTIFIER")
	}

	dbSSLMode := v.GetString("DB_SSLMODE")
	if dbSSLMode == "" {
		if appEnv == "prod" {
			dbSSLMode = "require"
		} else {
			dbSSLMode = "disable"
		}
	}

	cfg := Config{
		AppEnv:   appEnv,
		Port:     v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		DB: DatabaseConfig{
			Engine:   v.GetString("DB_ENGINE"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     dbName,
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  dbSSLMode,
			Migrate:  getBool(v, "DB_MIGRATE", true),
		},
		Auth: AuthConfig{
			TokenSecret: []byte(secret),
			TokenTTL:    tokenTTL,
			Issuer:      v.GetString("JWT_ISSUER"),
			HeaderName:  v.GetString("AUTH_HEADER"),
			BcryptCost:  bcryptCost,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Redis: RedisConfig{
			Addr:       v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         redisDB,
			JournalKey: v.GetString("REDIS_JOURNAL_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers: parseCSV(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:          v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion:       v.GetString("OTEL_SERVICE_VERSION"),
			OTLPEndpoint:         v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPTracesEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
			OTLPMetricsEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
			OTLPProtocol:         strings.ToLower(v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL")),
			OTLPInsecure:         getBool(v, "OTEL_EXPORTER_OTLP_INSECURE", appEnv != "prod"),
			OTLPHeaders:          parseHeaders(v.GetString("OTEL_EXPORTER_OTLP_HEADERS")),
			ExportTimeout:        exportTimeout,
			MetricExportInterval: metricInterval,
		},
	}

	if cfg.DB.Name == "" || cfg.DB.Username == "" {
		return Config{}, errors.New("DB_NAME (or DB_INSTANCE_IDENTIFIER) and DB_USERNAME must be set")
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_ENGINE", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")

	v.SetDefault("JWT_TTL", "100h")
	v.SetDefault("JWT_ISSUER", "profile-service")
	v.SetDefault("AUTH_HEADER", "x-auth-token")
	v.SetDefault("BCRYPT_COST", "10")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("REDIS_JOURNAL_KEY", "profile-service:pending-deletions")

	v.SetDefault("KAFKA_TOPIC", "profile-service.events")

	v.SetDefault("OTEL_SERVICE_NAME", "profile-service")
	v.SetDefault("OTEL_SERVICE_VERSION", "dev")
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_EXPORTER_OTLP_TIMEOUT", "10s")
	v.SetDefault("OTEL_METRIC_EXPORT_INTERVAL", "60s")
	return v
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	parsed, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getInt(v *viper.Viper, key string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getBool(v *viper.Viper, key string, fallback bool) bool {
	value := v.GetString(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	var results []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func parseHeaders(value string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range parseCSV(value) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}
