package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adbeam/recycling-rewards-backend/api/routes"
	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/handlers"
	"github.com/adbeam/recycling-rewards-backend/internal/logging"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	mongorepo "github.com/adbeam/recycling-rewards-backend/internal/repositories/mongodb"
	"github.com/adbeam/recycling-rewards-backend/internal/services"
	"github.com/adbeam/recycling-rewards-backend/pkg/jwt"
	"github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout())
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	var tx repositories.Transactor = mongodb.NoopTransactor{}
	if cfg.MongoDB.UseTransactions {
		tx = mongodb.NewSessionTransactor(mongoClient.Mongo())
	} else {
		logger.Warn("MongoDB transactions disabled, multi-step writes fall back to compensation")
	}

	// Repositories
	userRepo := mongorepo.NewUserRepository(db)
	activityRepo := mongorepo.NewRecyclingActivityRepository(db)
	claimRepo := mongorepo.NewScanClaimRepository(db)
	campusRepo := mongorepo.NewCampusRepository(db)
	transactionRepo := mongorepo.NewTransactionRepository(db)
	templateRepo := mongorepo.NewVoucherTemplateRepository(db)
	voucherRepo := mongorepo.NewVoucherRepository(db)

	// Services
	tokens := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	ledger := services.NewLedgerService(userRepo)
	recyclingService := services.NewRecyclingService(activityRepo, claimRepo, campusRepo, transactionRepo, ledger, tx, cfg.Recycling)
	voucherService := services.NewVoucherService(templateRepo, voucherRepo, transactionRepo, ledger, tx, cfg.Vouchers)
	impactService := services.NewImpactService(activityRepo, ledger)
	leaderboardService, err := services.NewLeaderboardService(userRepo, campusRepo, cfg.Leaderboard)
	if err != nil {
		logger.Error("Failed to create leaderboard service", "error", err)
		os.Exit(1)
	}
	userService := services.NewUserService(ledger, transactionRepo, recyclingService, impactService, leaderboardService)
	authService := services.NewAuthService(userRepo, tokens)

	handlerDeps := routes.HandlerDependencies{
		Auth:        handlers.NewAuthHandler(authService),
		Recycling:   handlers.NewRecyclingHandler(recyclingService),
		User:        handlers.NewUserHandler(userService, impactService),
		Voucher:     handlers.NewVoucherHandler(voucherService),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService),
	}
	router := routes.SetupRouter(cfg, handlerDeps, tokens, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server exiting")
}
