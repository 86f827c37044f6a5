package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	storepulse "github.com/karimfahmy/storepulse"
	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/config"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/demo"
	"github.com/karimfahmy/storepulse/internal/diskstat"
	"github.com/karimfahmy/storepulse/internal/handler"
	"github.com/karimfahmy/storepulse/internal/report"
)

func Run(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, storepulse.MigrationFS); err != nil {
		return err
	}
	slog.Info("database ready")

	store := blob.New(cfg.DataDir, cfg.BaseURL, cfg.SignSecret)
	if err := store.Init(blob.BucketMedia, blob.BucketReports); err != nil {
		return err
	}

	diskCache := diskstat.New(cfg.DataDir, 60*time.Second)
	diskCache.Start()
	defer diskCache.Stop()

	gen := &report.Generator{
		DB:       database,
		Blob:     store,
		Client:   &http.Client{Timeout: 20 * time.Second},
		FontPath: cfg.FontPath,
		Log:      slog.Default(),
	}

	fixture := demo.NewFixture(time.Now().UTC())

	// API rate limiter: 10 req/sec sustained, burst 40
	apiRL := handler.NewRateLimiter(10.0, 40)
	defer apiRL.Stop()

	h := handler.New(database, cfg, store, gen, fixture, diskCache, slog.Default())
	router := h.Routes(apiRL)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		srv.Shutdown(context.Background())
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
