package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/betablockz/backend/docs"
	"github.com/betablockz/backend/internal/audit"
	"github.com/betablockz/backend/internal/config"
	"github.com/betablockz/backend/internal/database"
	"github.com/betablockz/backend/internal/handlers"
	"github.com/betablockz/backend/internal/logger"
	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/repository/postgres"
	"github.com/betablockz/backend/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// @title BetaBlockz Ledger API
// @version 1.0
// @description Wagering ledger: balances, dice and mines settlement, redemptions and windowed statistics
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.lock_timeout", "DATABASE_LOCK_TIMEOUT")
	viper.BindEnv("database.conn_max_idle_time", "DATABASE_CONN_MAX_IDLE_TIME")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.pretty", "LOG_PRETTY")
	viper.BindEnv("app.version", "APP_VERSION")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.salt_length", 16)
	viper.SetDefault("argon2.key_length", 32)

	configErr := viper.ReadInConfig()

	appLogger := logger.New(logger.Config{
		Level:   viper.GetString("log.level"),
		Pretty:  viper.GetBool("log.pretty"),
		Version: viper.GetString("app.version"),
	})
	if configErr != nil {
		log.Info().Err(configErr).Msg("Config file not found, using environment and defaults")
	}
	if viper.GetString("jwt.secret_key") == "" {
		log.Fatal().Msg("JWT_SECRET_KEY must be set")
	}

	port := viper.GetString("server.port")

	docs.SwaggerInfo.Host = "localhost:" + port
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	db := database.InitDatabase()
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	cancelMigrate()

	// nil when redis is unreachable; the cache and payout queue degrade to no-ops
	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerCfg := config.LoadLedgerConfig()
	if err := ledgerCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger configuration")
	}
	log.Info().
		Str("house_edge", ledgerCfg.HouseEdge.String()).
		Dur("stats_cache_ttl", ledgerCfg.StatsCacheTTL).
		Str("redemption_queue", ledgerCfg.RedemptionQueue).
		Str("max_bet", ledgerCfg.MaxBet.String()).
		Msg("Ledger configuration loaded")

	store := postgres.NewLedgerStore(db)
	metricsCollector := metrics.NewMetricsCollector()
	auditLogger := audit.NewAuditLogger(appLogger)

	statsCache := services.NewStatsCache(redisClient, ledgerCfg.StatsCacheTTL)
	payoutQueue := services.NewPayoutQueue(redisClient, ledgerCfg.RedemptionQueue)
	engine := services.NewOutcomeEngine(services.NewRandomSource(), ledgerCfg.HouseEdge)

	wagerService := services.NewWagerService(store, engine, statsCache, metricsCollector, auditLogger, appLogger, ledgerCfg.MaxBet)
	redemptionService := services.NewRedemptionService(store, payoutQueue, metricsCollector, auditLogger, appLogger, ledgerCfg.RedemptionMinAmount)
	bonusService := services.NewBonusService(store, metricsCollector, auditLogger)
	accountService := services.NewAccountService(store, auditLogger, ledgerCfg.RecentEntriesLimit)
	statsService := services.NewStatsService(store, statsCache, metricsCollector)

	var origins []string
	if raw := viper.GetString("server.allowed_origins"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Wager:          handlers.NewWagerHandler(wagerService),
		Account:        handlers.NewAccountHandler(accountService, statsService, redemptionService, bonusService),
		Admin:          handlers.NewAdminHandler(accountService, statsService, redemptionService, bonusService),
		Metrics:        metricsCollector.GetHandler(),
		SwaggerURL:     fmt.Sprintf("http://localhost:%s/swagger/doc.json", port),
		AllowedOrigins: origins,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
