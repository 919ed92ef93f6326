package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_store/internal/config"
	"account_store/internal/events"
	"account_store/internal/handlers"
	"account_store/internal/logger"
	"account_store/internal/repository"
	"account_store/internal/repository/db"
	"account_store/internal/server"
	"account_store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title                      Account Store API
// @version                    1.0
// @description                Registration, login, paginated listing and deletion of user accounts.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// load configs/config.yml (or $ACCOUNTS_CONFIG) and the environment
	cfg, err := config.Load(os.Getenv("ACCOUNTS_CONFIG"))
	if err != nil {
		logger.New(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	generated, err := cfg.EnsureSigningKey()
	if err != nil {
		log.Fatalw("failed to prepare signing key", "err", err)
	}
	if generated {
		log.Warnw("auth.signing_key not set; using a random key, tokens will not survive a restart")
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startCancel()

	// open DB
	conn, err := openDB(startCtx, cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	pub, closePub := openPublisher(startCtx, cfg, log)
	defer closePub()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Options{
		BcryptCost:      cfg.Auth.BcryptCost,
		MaxOffset:       cfg.Accounts.MaxOffset,
		SigningKey:      []byte(cfg.Auth.SigningKey),
		TokenTTL:        cfg.Auth.TokenTTL,
		VerifyListToken: cfg.Auth.VerifyListToken,
	}, pub, log)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openDB initializes the SQLite database and applies pending migrations.
func openDB(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	conn, err := db.InitDB(ctx, cfg.DB.Path, db.Options{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	version, err := db.SchemaVersion(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Infow("sqlite_ready", "path", cfg.DB.Path, "schema_version", version, "max_open_conns", cfg.DB.MaxOpenConns)
	return conn, nil
}

// openPublisher connects the redis event stream when configured. Without an
// address, or when redis is unreachable, events are dropped.
func openPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (events.Publisher, func()) {
	if cfg.Events.RedisAddr == "" {
		return events.Nop{}, func() {}
	}

	client, err := events.NewRedisClient(ctx, cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.RedisDB)
	if err != nil {
		log.Warnw("redis unavailable; account events disabled", "addr", cfg.Events.RedisAddr, "err", err)
		return events.Nop{}, func() {}
	}
	log.Infow("redis_events_enabled", "addr", cfg.Events.RedisAddr, "stream", cfg.Events.Stream)

	return events.NewRedisPublisher(client, cfg.Events.Stream), func() { closeRedis(client, log) }
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Errorw("failed to close redis", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
