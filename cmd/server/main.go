// Package main starts the reference sheet endpoint: configuration, logging,
// PostgreSQL, the revision pruner and the HTTP(S) server.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/config"
	"github.com/storystudio/ledger/internal/db"
	"github.com/storystudio/ledger/internal/logger"
	"github.com/storystudio/ledger/internal/repository"
	"github.com/storystudio/ledger/internal/server/handler/http"
	"github.com/storystudio/ledger/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.Log.Level); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db.StartRevisionPruner(ctx, postgresDB,
		options.Revisions.Interval,
		options.Revisions.Retention,
		zapLogger,
	)

	sheetRepo := repository.NewPostgresSheetRepository(postgresDB)
	deploymentRepo := repository.NewPostgresDeploymentRepository(postgresDB)

	sheetService := service.NewSheetService(sheetRepo)
	deploymentService := service.NewDeploymentService(deploymentRepo)

	router := http.NewRouter(
		&http.SheetHandler{SheetService: sheetService, Log: zapLogger},
		&http.DeploymentHandler{DeploymentService: deploymentService, PublicURL: options.PublicURL},
		deploymentService,
		options.AdminToken,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if options.TLS.Enabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
		err = server.ListenAndServeTLS(options.TLS.Cert, options.TLS.Key)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
