package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"talkdeck/internal/config"
	"talkdeck/internal/db"
	"talkdeck/internal/editor"
	"talkdeck/internal/execution"
	"talkdeck/internal/handlers"
	"talkdeck/internal/logging"
	"talkdeck/internal/render"
	"talkdeck/internal/services"
	"talkdeck/internal/slides"
	"talkdeck/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "talkdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize database
	if err := db.InitDatabase(cfg.Database.Path); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	reg, err := loadRegistry(cfg.Slides)
	if err != nil {
		return err
	}
	if dups := reg.DuplicateIDs(); len(dups) > 0 {
		logger.Warn("slides share ids; editors on them share storage", zap.Strings("ids", dups))
	}

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return err
	}

	// Initialize services
	execClient := execution.NewClient(cfg.Execution.Endpoint, cfg.Execution.Timeout, logger)
	editors := editor.NewManager(func(scope string) storage.KV {
		return db.NewKV(db.DB, scope)
	}, execClient, cfg.Editor.Debounce, logger)
	// pending drafts are flushed before the database closes
	defer editors.Close()

	deckService := services.NewDeckService(reg, renderer, editors, logger)
	sessionService := services.NewSessionService(db.DB, logger)

	var watcher *slides.Watcher
	if cfg.Slides.Watch {
		if watcher, err = slides.NewWatcher(cfg.Slides.Path, logger, deckService.SetRegistry); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Initialize handlers
	deckHandler, err := handlers.NewDeckHandler(deckService, logger)
	if err != nil {
		return err
	}
	editorHandler := handlers.NewEditorHandler(deckService, logger)
	wsHandler := handlers.NewWebSocketHandler(ctx, deckService, logger)
	staticHandler := handlers.NewStaticHandler()
	sessionMiddleware := handlers.NewSessionMiddleware(sessionService, cfg.TLS.Enabled, logger)

	// Setup routes
	router := handlers.SetupRoutes(deckHandler, editorHandler, wsHandler, staticHandler, sessionMiddleware)

	// Configure server
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		var err error
		// Configure TLS if enabled
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}

			logger.Info("starting HTTPS server",
				zap.String("addr", server.Addr),
				zap.String("cert", cfg.TLS.CertFile),
				zap.String("key", cfg.TLS.KeyFile),
				zap.String("min_version", cfg.TLS.MinVersion))
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			logger.Info("starting HTTP server", zap.String("addr", server.Addr))
			logger.Warn("HTTP mode is not recommended for production")
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sessionService.RunPurger(ctx, cfg.Sessions.PurgeInterval, cfg.Sessions.Retention, func(ids []string) {
			for _, id := range ids {
				editors.DiscardScope(id)
			}
		})
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}

func loadRegistry(cfg config.SlidesConfig) (*slides.Registry, error) {
	if cfg.Path == "" {
		return slides.Default(), nil
	}
	return slides.LoadFile(cfg.Path)
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
