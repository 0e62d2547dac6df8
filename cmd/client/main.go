package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/client/storage"
	"github.com/storystudio/ledger/internal/client/syncer"
	"github.com/storystudio/ledger/internal/config"
	"github.com/storystudio/ledger/internal/ledger"
	"github.com/storystudio/ledger/internal/logger"
	"github.com/storystudio/ledger/internal/sheet"
)

var (
	version   string
	buildDate string
)

// cacheStore is a ledger cache that owns resources.
type cacheStore interface {
	ledger.Cache
	Close() error
}

func openCache(cfg config.CacheConfig) (cacheStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return storage.OpenSQLite(cfg.Path)
	default:
		return storage.NewFileStore(cfg.Path)
	}
}

// main loads configuration, opens the book and runs the shell on stdin.
func main() {
	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Version {
		fmt.Printf("Story Ledger\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	l := logger.New()
	if err := l.Init(cfg.Log.Level); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Log.Sync() }()

	cache, err := openCache(cfg.Cache)
	if err != nil {
		l.Log.Fatal("failed to open cache", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
	}

	remote := sheet.NewClient(
		&http.Client{Timeout: cfg.HTTP.Timeout},
		sheet.WithLogger(l.Log),
		sheet.WithReadMethod(cfg.Sync.ReadMethod),
	)

	book, err := ledger.Open(cache, remote,
		ledger.WithLogger(l.Log),
		ledger.WithSheetURL(cfg.SheetURL),
		ledger.WithSchedulerOptions(
			syncer.WithDebounce(cfg.Sync.Debounce),
			syncer.WithResetAfter(cfg.Sync.ResetAfter),
		),
	)
	if err != nil {
		_ = cache.Close()
		l.Log.Fatal("failed to open ledger", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newShell(book, os.Stdin, os.Stdout).run(ctx)

	if err := book.Close(); err != nil {
		l.Log.Warn("pending changes were not saved", zap.Error(err))
	}
	if err := cache.Close(); err != nil {
		l.Log.Warn("failed to close cache", zap.Error(err))
	}
}
