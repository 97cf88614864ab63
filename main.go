package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"profile-service/config"
	"profile-service/db"
	"profile-service/events"
	"profile-service/handlers"
	"profile-service/logger"
	"profile-service/routes"
	"profile-service/secretmanager"
	"profile-service/services"
	"profile-service/store"
	"profile-service/telemetry"
	"profile-service/utils"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var (
	loadEnv           = godotenv.Load
	loadConfig        = config.Load
	newLogger         = logger.New
	initTelemetry     = telemetry.Init
	connectDB         = db.Connect
	migrateDB         = db.Migrate
	newRedisJournal   = store.NewRedisJournal
	newKafkaPublisher = events.NewKafkaPublisher
	setupRoutes       = routes.SetupRoutes
	notifyContext     = signal.NotifyContext
	listenAndServe    = func(srv *http.Server) error { return srv.ListenAndServe() }
	getSecret         = secretmanager.GetSecret
	exportSecret      = secretmanager.ExportJSON
	setEnv            = os.Setenv
	logFatal          = log.Fatal
)

type postgresSecret struct {
	Username             string `json:"username"`
	Password             string `json:"password"`
	Engine               string `json:"engine"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	DBInstanceIdentifier string `json:"dbInstanceIdentifier"`
}

func loadSecretMap(secretName string) (map[string]string, error) {
	secretJSON, err := getSecret(secretName)
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]string)
	if err := json.Unmarshal([]byte(secretJSON), &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func setEnvFromMap(values map[string]string) error {
	for key, value := range values {
		if err := setEnv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func validatePostgresSecret(secret postgresSecret) error {
	var missing []string
	if secret.Username == "" {
		missing = append(missing, "username")
	}
	if secret.Password == "" {
		missing = append(missing, "password")
	}
	if secret.Engine == "" {
		missing = append(missing, "engine")
	}
	if secret.Host == "" {
		missing = append(missing, "host")
	}
	if secret.DBInstanceIdentifier == "" {
		missing = append(missing, "dbInstanceIdentifier")
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres secret missing fields: %s", strings.Join(missing, ", "))
	}
	if secret.Port <= 0 {
		return fmt.Errorf("postgres secret has invalid port %d", secret.Port)
	}
	return nil
}

func loadPostgresSecret() (postgresSecret, error) {
	raw, err := getSecret("prod/postgres")
	if err != nil {
		return postgresSecret{}, fmt.Errorf("error retrieving Postgres secret: %w", err)
	}
	var secret postgresSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return postgresSecret{}, fmt.Errorf("error parsing Postgres secret JSON: %w", err)
	}
	if err := validatePostgresSecret(secret); err != nil {
		return postgresSecret{}, err
	}
	return secret, nil
}

// loadProdSecrets exports the production secrets as environment variables
// before the configuration is read. The redis and kafka secrets are
// optional; without them the journal and the event stream stay disabled.
func loadProdSecrets() error {
	jwtSecrets, err := loadSecretMap("prod/jwt")
	if err != nil {
		return fmt.Errorf("error retrieving JWT secret: %w", err)
	}
	if err := setEnvFromMap(jwtSecrets); err != nil {
		return err
	}

	pg, err := loadPostgresSecret()
	if err != nil {
		return err
	}
	if err := setEnvFromMap(map[string]string{
		"DB_USERNAME":            pg.Username,
		"DB_PASSWORD":            pg.Password,
		"DB_ENGINE":              pg.Engine,
		"DB_HOST":                pg.Host,
		"DB_PORT":                strconv.Itoa(pg.Port),
		"DB_INSTANCE_IDENTIFIER": pg.DBInstanceIdentifier,
	}); err != nil {
		return err
	}

	for _, name := range []string{"prod/redis", "prod/kafka"} {
		raw, err := getSecret(name)
		if err != nil {
			continue
		}
		if err := exportSecret(raw); err != nil {
			return fmt.Errorf("error exporting %s secret: %w", name, err)
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		logFatal(err)
	}
}

func run() error {
	if err := loadEnv(); err != nil {
		log.Println("No .env file found; using system environment variables")
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if appEnv == "prod" {
		if err := loadProdSecrets(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	appLog, err := newLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer appLog.Sync()
	appLog.Info("starting profile-service", zap.String("env", cfg.AppEnv))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg.Telemetry, cfg.AppEnv, appLog)
	if err != nil {
		return fmt.Errorf("telemetry error: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			appLog.Error("telemetry shutdown failed", err)
		}
	}()

	conn, err := connectDB(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.DB.Migrate {
		if err := migrateDB(ctx, conn); err != nil {
			return err
		}
		appLog.Info("database migrations applied")
	}

	var journal store.DeletionJournal = store.NopJournal{}
	if cfg.Redis.Addr != "" {
		redisJournal, err := newRedisJournal(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		journal = redisJournal
	} else {
		appLog.Warn("REDIS_ADDR is empty; interrupted account deletions will not be journaled")
	}
	defer journal.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := newKafkaPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka publisher error: %w", err)
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	users := store.NewUserStore(conn)
	profiles := store.NewProfileStore(conn)
	posts := store.NewPostStore(conn)
	tokens := utils.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	accounts := services.NewAccountService(users, profiles, tokens, journal, publisher, appLog, cfg.Auth.BcryptCost)
	profileManager := services.NewProfileManager(profiles, publisher, appLog)
	postService := services.NewPostService(posts, users, publisher, appLog)

	router := setupRoutes(cfg, appLog, tokens, routes.Handlers{
		Auth:    handlers.NewAuthHandler(accounts),
		Profile: handlers.NewProfileHandler(profileManager, accounts),
		Post:    handlers.NewPostHandler(postService),
		Health:  handlers.NewHealthHandler(conn),
	})

	corsOpts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", cfg.Auth.HeaderName}),
		gorillaHandlers.AllowCredentials(),
	}
	handler := otelhttp.NewHandler(gorillaHandlers.CORS(corsOpts...)(router), "profile-service")

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("cors", strings.Join(cfg.CORS.AllowedOrigins, ",")),
		)
		errCh <- listenAndServe(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
