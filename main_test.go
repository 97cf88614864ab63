package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"profile-service/config"
	"profile-service/events"
	"profile-service/logger"
	"profile-service/middleware"
	"profile-service/routes"
	"profile-service/store"
	"profile-service/telemetry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecretJSON      = `{"JWT_SECRET":"prod-secret"}`
	postgresSecretJSON = `{"username":"user","password":"pass","engine":"postgres","host":"localhost","port":5432,"dbInstanceIdentifier":"db"}`
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:   "dev",
		Port:     "8080",
		LogLevel: "info",
		DB:       config.DatabaseConfig{Engine: "postgres", Name: "profiles", Username: "user"},
		Auth: config.AuthConfig{
			TokenSecret: []byte("secret"),
			TokenTTL:    time.Hour,
			Issuer:      "profile-service",
			HeaderName:  "x-auth-token",
			BcryptCost:  4,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost"}},
	}
}

// stubRun replaces every external dependency of run with an in-memory
// stand-in and restores the originals when the test finishes.
func stubRun(t *testing.T, cfg config.Config) sqlmock.Sqlmock {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	originalLoadEnv := loadEnv
	originalLoadConfig := loadConfig
	originalNewLogger := newLogger
	originalInitTelemetry := initTelemetry
	originalConnectDB := connectDB
	originalMigrateDB := migrateDB
	originalNewRedisJournal := newRedisJournal
	originalNewKafkaPublisher := newKafkaPublisher
	originalSetupRoutes := setupRoutes
	originalListenAndServe := listenAndServe
	t.Cleanup(func() {
		loadEnv = originalLoadEnv
		loadConfig = originalLoadConfig
		newLogger = originalNewLogger
		initTelemetry = originalInitTelemetry
		connectDB = originalConnectDB
		migrateDB = originalMigrateDB
		newRedisJournal = originalNewRedisJournal
		newKafkaPublisher = originalNewKafkaPublisher
		setupRoutes = originalSetupRoutes
		listenAndServe = originalListenAndServe
	})

	loadEnv = func(_ ...string) error { return errors.New("no env") }
	loadConfig = func() (config.Config, error) { return cfg, nil }
	newLogger = func(env, level string) (logger.Logger, error) { return logger.Nop(), nil }
	initTelemetry = func(ctx context.Context, cfg config.TelemetryConfig, appEnv string, log logger.Logger) (telemetry.ShutdownFunc, error) {
		return func(context.Context) error { return nil }, nil
	}
	connectDB = func(cfg config.DatabaseConfig) (*sql.DB, error) { return conn, nil }
	migrateDB = func(ctx context.Context, conn *sql.DB) error { return nil }
	newRedisJournal = func(cfg config.RedisConfig) (*store.RedisJournal, error) {
		return nil, errors.New("redis should not be dialed")
	}
	newKafkaPublisher = func(cfg config.KafkaConfig) (*events.KafkaPublisher, error) {
		return nil, errors.New("kafka should not be dialed")
	}
	setupRoutes = func(cfg config.Config, log logger.Logger, verifier middleware.TokenVerifier, h routes.Handlers) *mux.Router {
		return mux.NewRouter()
	}
	listenAndServe = func(srv *http.Server) error { return nil }

	return mock
}

func TestLoadSecretMapErrors(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		return "", errors.New("secret error")
	}
	defer func() { getSecret = originalGetSecret }()

	_, err := loadSecretMap("prod/jwt")
	assert.Error(t, err)

	getSecret = func(name string) (string, error) {
		return "not-json", nil
	}
	_, err = loadSecretMap("prod/jwt")
	assert.Error(t, err)
}

func TestLoadProdSecretsSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	for _, key := range []string{"DB_USERNAME", "DB_PASSWORD", "DB_ENGINE", "DB_HOST", "DB_PORT", "DB_INSTANCE_IDENTIFIER"} {
		t.Setenv(key, "")
	}

	originalGetSecret := getSecret
	originalExportSecret := exportSecret
	var exported []string
	getSecret = func(name string) (string, error) {
		switch name {
		case "prod/jwt":
			return jwtSecretJSON, nil
		case "prod/postgres":
			return postgresSecretJSON, nil
		case "prod/redis":
			return `{"REDIS_ADDR":"localhost:6379"}`, nil
		case "prod/kafka":
			return `{"KAFKA_BROKERS":"localhost:9092"}`, nil
		default:
			return "", errors.New("unknown")
		}
	}
	exportSecret = func(secret string) error {
		exported = append(exported, secret)
		return nil
	}
	defer func() {
		getSecret = originalGetSecret
		exportSecret = originalExportSecret
	}()

	require.NoError(t, loadProdSecrets())
	assert.Equal(t, "prod-secret", os.Getenv("JWT_SECRET"))
	assert.Equal(t, "user", os.Getenv("DB_USERNAME"))
	assert.Equal(t, "localhost", os.Getenv("DB_HOST"))
	assert.Equal(t, "5432", os.Getenv("DB_PORT"))
	assert.Equal(t, []string{`{"REDIS_ADDR":"localhost:6379"}`, `{"KAFKA_BROKERS":"localhost:9092"}`}, exported)
}

func TestLoadProdSecretsInvalidPostgresJSON(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		switch name {
		case "prod/jwt":
			return jwtSecretJSON, nil
		case "prod/postgres":
			return "not-json", nil
		default:
			return "", errors.New("unknown")
		}
	}
	defer func() { getSecret = originalGetSecret }()

	assert.Error(t, loadProdSecrets())
}

func TestLoadProdSecretsPostgresError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		switch name {
		case "prod/jwt":
			return jwtSecretJSON, nil
		case "prod/postgres":
			return "", errors.New("postgres error")
		default:
			return "", errors.New("unknown")
		}
	}
	defer func() { getSecret = originalGetSecret }()

	assert.Error(t, loadProdSecrets())
}

func TestLoadProdSecretsError(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		return "", errors.New("secret error")
	}
	defer func() { getSecret = originalGetSecret }()

	assert.Error(t, loadProdSecrets())
}

func TestRunSuccess(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	mock := stubRun(t, testConfig())

	var served *http.Server
	listenAndServe = func(srv *http.Server) error {
		served = srv
		return http.ErrServerClosed
	}

	require.NoError(t, run())
	require.NotNil(t, served)
	assert.Equal(t, ":8080", served.Addr)
	assert.NotNil(t, served.Handler)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDefaultEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	cfg := testConfig()
	cfg.Port = ""
	stubRun(t, cfg)

	var addr string
	listenAndServe = func(srv *http.Server) error {
		addr = srv.Addr
		return nil
	}

	assert.NoError(t, run())
	assert.Equal(t, ":8080", addr)
}

func TestRunMigratesWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg := testConfig()
	cfg.DB.Migrate = true
	stubRun(t, cfg)

	migrated := false
	migrateDB = func(ctx context.Context, conn *sql.DB) error {
		migrated = true
		return nil
	}

	require.NoError(t, run())
	assert.True(t, migrated)
}

func TestRunMigrateError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg := testConfig()
	cfg.DB.Migrate = true
	stubRun(t, cfg)
	migrateDB = func(ctx context.Context, conn *sql.DB) error { return errors.New("migrate error") }

	assert.EqualError(t, run(), "migrate error")
}

func TestRunSkipsMigrationsWhenDisabled(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())
	migrateDB = func(ctx context.Context, conn *sql.DB) error {
		t.Fatal("migrations should not run")
		return nil
	}

	assert.NoError(t, run())
}

func TestRunProdSecretsError(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	originalGetSecret := getSecret
	originalLoadConfig := loadConfig
	getSecret = func(name string) (string, error) { return "", errors.New("secret error") }
	loadConfig = func() (config.Config, error) {
		return config.Config{}, nil
	}
	defer func() {
		getSecret = originalGetSecret
		loadConfig = originalLoadConfig
	}()

	assert.Error(t, run())
}

func TestRunConfigError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	originalLoadConfig := loadConfig
	loadConfig = func() (config.Config, error) { return config.Config{}, errors.New("config error") }
	defer func() { loadConfig = originalLoadConfig }()

	assert.Error(t, run())
}

func TestRunLoggerError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())
	newLogger = func(env, level string) (logger.Logger, error) { return nil, errors.New("bad level") }

	assert.ErrorContains(t, run(), "logger error")
}

func TestRunTelemetryError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())
	initTelemetry = func(ctx context.Context, cfg config.TelemetryConfig, appEnv string, log logger.Logger) (telemetry.ShutdownFunc, error) {
		return nil, errors.New("exporter error")
	}

	assert.ErrorContains(t, run(), "telemetry error")
}

func TestRunConnectDBError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())
	connectDB = func(cfg config.DatabaseConfig) (*sql.DB, error) { return nil, errors.New("db error") }

	assert.EqualError(t, run(), "db error")
}

func TestRunRedisError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg := testConfig()
	cfg.Redis.Addr = "localhost:6379"
	stubRun(t, cfg)

	assert.ErrorContains(t, run(), "redis connection error")
}

func TestRunKafkaError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg := testConfig()
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	stubRun(t, cfg)

	assert.ErrorContains(t, run(), "kafka publisher error")
}

func TestRunListenError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())
	listenAndServe = func(srv *http.Server) error { return errors.New("listen error") }

	assert.ErrorContains(t, run(), "listen error")
}

func TestRunShutsDownOnSignal(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())

	originalNotifyContext := notifyContext
	notifyContext = func(parent context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		cancel()
		return ctx, cancel
	}
	release := make(chan struct{})
	listenAndServe = func(srv *http.Server) error {
		<-release
		return http.ErrServerClosed
	}
	defer func() {
		close(release)
		notifyContext = originalNotifyContext
	}()

	assert.NoError(t, run())
}

func TestMainFunction(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	stubRun(t, testConfig())

	originalLogFatal := logFatal
	called := false
	logFatal = func(args ...interface{}) { called = true }
	defer func() { logFatal = originalLogFatal }()

	main()
	assert.False(t, called)
}

func TestMainFunctionError(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	originalLoadConfig := loadConfig
	originalLogFatal := logFatal
	loadConfig = func() (config.Config, error) { return config.Config{}, errors.New("config error") }
	called := false
	logFatal = func(args ...interface{}) {
		called = true
	}
	defer func() {
		loadConfig = originalLoadConfig
		logFatal = originalLogFatal
	}()

	main()
	assert.True(t, called)
}
