// Command server runs the gift-drive backend: the gift catalog API, the
// checkout session endpoint, the payment webhook, and the realtime update
// stream.
//
// Startup order:
//  1. Load .env (best effort) and the environment configuration.
//  2. Configure logging and tracing.
//  3. Select the catalog store: SQLite-backed when DB_PATH is set, the
//     compiled-in static list otherwise.
//  4. Wire the payment provider client and the HTTP router.
//  5. Serve until SIGINT/SIGTERM, then drain connections gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82/client"
	"gorm.io/gorm"

	"github.com/tbourn/go-giftdrive-backend/internal/catalog"
	"github.com/tbourn/go-giftdrive-backend/internal/config"
	httpapi "github.com/tbourn/go-giftdrive-backend/internal/http"
	"github.com/tbourn/go-giftdrive-backend/internal/observability"
	"github.com/tbourn/go-giftdrive-backend/internal/realtime"
	"github.com/tbourn/go-giftdrive-backend/internal/repo"
	"github.com/tbourn/go-giftdrive-backend/internal/services"
	"github.com/tbourn/go-giftdrive-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// eventLogShim adapts the repository free functions to the services.EventLog
// interface expected by the WebhookService. This keeps services decoupled
// from the concrete repo package while reusing existing functions.
type eventLogShim struct {
	db *gorm.DB
}

// Seen proxies repo.SeenWebhookEvent.
func (s eventLogShim) Seen(ctx context.Context, eventID string) (bool, error) {
	return repo.SeenWebhookEvent(ctx, s.db, eventID)
}

// Record proxies repo.RecordWebhookEvent.
func (s eventLogShim) Record(ctx context.Context, eventID, eventType string) error {
	return repo.RecordWebhookEvent(ctx, s.db, eventID, eventType)
}

func main() {
	// Best effort; production injects real env vars.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Catalog store selection. Without a database path the site still runs,
	// serving the compiled-in gift list; purchases then survive only for the
	// lifetime of the process.
	var (
		store  catalog.Store
		events services.EventLog
		hub    *realtime.Hub
	)
	if cfg.StaticCatalog() {
		log.Warn().Msg("DB_PATH not set; serving the static gift catalog without persistence")
		store = catalog.NewStaticStore()
	} else {
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		if err := repo.SeedGifts(db); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
		hub = realtime.NewHub()
		store = catalog.NewLiveStore(db, hub)
		events = eventLogShim{db: db}
	}

	// Payment provider client. Only the checkout-session surface is used.
	sc := &client.API{}
	sc.Init(cfg.Stripe.SecretKey, nil)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, store, sc.CheckoutSessions, events, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("version", version).
			Bool("static_catalog", cfg.StaticCatalog()).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if hub != nil {
		hub.Close()
	}
	log.Info().Msg("server stopped")
}
