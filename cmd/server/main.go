package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"microloan/auth"
	"microloan/cache"
	"microloan/config"
	"microloan/db"
	"microloan/db/mongo"
	"microloan/db/postgres"
	"microloan/handlers"
	"microloan/logging"
	"microloan/repository"
	"microloan/routes"
	"microloan/utils"
)

const (
	storeConnectTimeout    = 10 * time.Second
	storeSetupTimeout      = 30 * time.Second
	storeDisconnectTimeout = 5 * time.Second
	redisConnectTimeout    = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	shutdownTimeout        = 15 * time.Second
)

type repositories struct {
	users        repository.UserRepository
	loans        repository.LoanRepository
	applications repository.ApplicationRepository
}

// openStore connects the configured backend and prepares its schema.
func openStore(cfg *config.Config, logger *logrus.Entry) (db.DB, repositories, error) {
	connectCtx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
	defer cancel()

	switch cfg.DBType {
	case config.DBTypePostgres:
		pg := postgres.NewPostgresDB(cfg.PostgresURL)
		if err := pg.Connect(connectCtx); err != nil {
			return nil, repositories{}, err
		}
		if err := db.RunMigrations(pg.Conn); err != nil {
			_ = pg.Disconnect(context.Background())
			return nil, repositories{}, err
		}
		logger.WithField("event", "postgres_migrations").Info("postgres schema is up to date")

		return pg, repositories{
			users:        repository.NewPostgresUserRepo(pg.Conn),
			loans:        repository.NewPostgresLoanRepo(pg.Conn),
			applications: repository.NewPostgresApplicationRepo(pg.Conn),
		}, nil

	case config.DBTypeMongo:
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDB)
		if err := mg.Connect(connectCtx); err != nil {
			return nil, repositories{}, err
		}
		indexCtx, cancelIndexes := context.WithTimeout(context.Background(), storeSetupTimeout)
		defer cancelIndexes()
		if err := mg.EnsureIndexes(indexCtx); err != nil {
			_ = mg.Disconnect(context.Background())
			return nil, repositories{}, err
		}
		logger.WithField("event", "mongo_indexes").Info("ensured mongo unique indexes")

		return mg, repositories{
			users:        repository.NewMongoUserRepo(mg.Users()),
			loans:        repository.NewMongoLoanRepo(mg.Loans()),
			applications: repository.NewMongoApplicationRepo(mg.Applications()),
		}, nil
	}

	return nil, repositories{}, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Default().WithError(err).Error("configuration error")
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Default().WithError(err).Error("logger setup error")
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Entry) error {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, 0)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	store, repos, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("store setup: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeDisconnectTimeout)
		defer cancel()
		if err := store.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("store disconnect error")
		}
	}()
	logger.WithField("db_type", cfg.DBType).Info("store connected")

	app := &handlers.App{
		Users:        repos.users,
		Loans:        repos.loans,
		Applications: repos.applications,
		Tokens:       tokens,
		Store:        store,
		Logger:       logger,
	}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			return fmt.Errorf("redis connection: %w", err)
		}
		defer client.Close()
		app.Roles = cache.NewRedisRoleCache(client, cache.DefaultRoleTTL)
		logger.WithField("event", "redis_connect").Info("role cache enabled")
	}

	if cfg.R2.Enabled() {
		images, err := utils.NewR2ImageStore(context.Background(), cfg.R2)
		if err != nil {
			return fmt.Errorf("image storage: %w", err)
		}
		app.Images = images
		logger.WithField("bucket", cfg.R2.Bucket).Info("loan image upload enabled")
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           routes.NewRouter(app, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logging.Fields{"event": "startup", "port": cfg.Port}).Info("server running")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown").Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.WithField("event", "shutdown").Info("server stopped")
	return nil
}
