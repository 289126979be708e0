package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carelink-backend/config"
	"carelink-backend/internal/api"
	"carelink-backend/internal/database"
	"carelink-backend/internal/guard"
	"carelink-backend/internal/payment"
	"carelink-backend/internal/payment/outcome"
	"carelink-backend/internal/payment/payhere"
	"carelink-backend/internal/services"
	"carelink-backend/internal/utils"
	"carelink-backend/pkg/logger"

	"go.uber.org/zap"
)

// @title carelink-backend API
// @version 1.0
// @description Sign in, role routing and PayHere checkout for the CareLink app.

// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zlog, flush, err := logger.New(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
		Console:    cfg.LogConsole,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer flush()

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		zlog.Fatal("Failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	paymentCfg := payment.Config{
		Credentials: payment.MerchantCredentials{
			MerchantID:     cfg.MerchantID,
			MerchantSecret: cfg.MerchantSecret,
		},
		ReturnURL:           cfg.ReturnURL,
		CancelURL:           cfg.CancelURL,
		NotifyURL:           cfg.NotifyURL,
		Currency:            cfg.Currency,
		SupportedCurrencies: cfg.SupportedCurrencies,
		Sandbox:             cfg.GatewaySandbox,
	}
	zlog.Info("Payment gateway configured",
		zap.Stringer("credentials", paymentCfg.Credentials),
		zap.Bool("sandbox", paymentCfg.Sandbox))

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	denylist := services.NewTokenDenylist(rdb)
	users := services.NewUserService(db, rdb)
	payments := services.NewPaymentService(db, payhere.NewDriver(paymentCfg, zlog), outcome.NewRegistry(), zlog)

	reaper := services.NewAttemptReaper(payments,
		time.Duration(cfg.ReaperIntervalSecs)*time.Second,
		time.Duration(cfg.AttemptTTLMinutes)*time.Minute,
		zlog)
	go reaper.Start(ctx)
	defer reaper.Stop()

	router := api.NewRouter(api.Dependencies{
		Tokens:      tokens,
		Denylist:    denylist,
		Users:       users,
		Auth:        services.NewAuthService(db, tokens, denylist, users, zlog),
		Payments:    payments,
		Routes:      guard.DefaultRoutes(),
		CORSOrigins: cfg.CORSOrigins,
		Log:         zlog,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}
	go func() {
		zlog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Graceful shutdown failed", zap.Error(err))
	}
}
