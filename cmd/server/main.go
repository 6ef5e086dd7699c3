package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/config"
	"github.com/DoyleJ11/rts-session/internal/httpapi"
	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/lobby"
	"github.com/DoyleJ11/rts-session/internal/logging"
	"github.com/DoyleJ11/rts-session/internal/world"
	"github.com/DoyleJ11/rts-session/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	maps := world.DefaultMaps()
	if cfg.MapsPath != "" {
		if maps, err = world.LoadMapsFile(cfg.MapsPath); err != nil {
			return err
		}
	}
	loader := world.NewStaticLoader(maps, 0)

	lobbyCfg := lobby.Config{
		StartingResources: cfg.StartingResources,
		MinPlayers:        cfg.MinPlayers,
		MapID:             cfg.MapID,
		BuildRange:        cfg.BuildRange,
		UnitHealth:        cfg.UnitHealth,
	}
	h := hub.NewHub(ctx, func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, code, lobbyCfg,
			lobby.WithLogger(log),
			lobby.WithCatalog(cat),
			lobby.WithLoader(loader),
		)
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cat, ws.Options{
			OutboxSize:     cfg.OutboxSize,
			Logger:         log,
			OriginPatterns: cfg.OriginPatterns,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		log.Info("stopped")
		return err
	})
	return g.Wait()
}

func loadCatalog(ctx context.Context, cfg config.Config, log *zap.Logger) (*catalog.Catalog, error) {
	switch {
	case cfg.DatabaseURL != "":
		store, err := catalog.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if cfg.SeedCatalog {
			if err := store.Migrate(ctx); err != nil {
				return nil, err
			}
			if err := store.Seed(ctx, catalog.Default()); err != nil {
				return nil, err
			}
		}
		cat, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("catalog loaded from database", zap.Int("templates", len(cat.Templates())))
		return cat, nil
	case cfg.CatalogPath != "":
		log.Info("catalog loaded from file", zap.String("path", cfg.CatalogPath))
		return catalog.LoadFile(cfg.CatalogPath)
	default:
		return catalog.Default(), nil
	}
}
