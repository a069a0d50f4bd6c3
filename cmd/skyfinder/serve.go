package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChamsBouzaiene/skyfinder/internal/config"
	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/prompts"
	"github.com/ChamsBouzaiene/skyfinder/internal/providers"
	"github.com/ChamsBouzaiene/skyfinder/internal/relay"
	"github.com/ChamsBouzaiene/skyfinder/internal/satellite"
	"github.com/ChamsBouzaiene/skyfinder/internal/server"
	"github.com/ChamsBouzaiene/skyfinder/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Starts the HTTP and websocket server, the ISS position tracker and the
persona template watcher. Stops cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides PORT)")
}

// app is the fully wired server and its background workers.
type app struct {
	server  *server.Server
	tracker *satellite.Tracker
	watcher *prompts.Watcher
	store   *session.Store
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	gateway, err := providers.NewGateway(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat gateway: %w", err)
	}

	registry := prompts.NewDefaultRegistry(cfg.Personas.Station, cfg.Personas.Alien, logger.Named("prompts"))
	builder := prompts.NewPromptBuilder(registry, cfg.Chat.HistoryWindow)
	store := session.NewStore(seedHistory(builder, cfg.Chat.Greeting)...)
	pipeline := engine.NewPipeline(builder, gateway, store, logger.Named("chat"))
	pipeline.Use(engine.LoggerHook{L: logger.Named("turns")})

	tracker := satellite.NewTracker(cfg.Satellite.URL, cfg.Satellite.PollInterval, logger.Named("satellite"))
	catalog := satellite.NewCatalog(tracker, satellite.NewAlienTarget(cfg.Targets.Alien.Alpha, cfg.Targets.Alien.Beta))

	monitor := relay.NewMonitor(catalog, cfg.Align.Threshold, store, logger.Named("alignment"))
	hub := relay.NewHub(pipeline, monitor, store, logger.Named("relay"), relay.Options{})

	srv := server.New(server.Options{
		Addr:      cfg.Addr(),
		PublicDir: cfg.PublicDir,
	}, pipeline, hub, store, catalog, logger.Named("http"))

	a := &app{server: srv, tracker: tracker, store: store}

	watcher, err := prompts.NewWatcher(registry.Paths(), logger.Named("prompts"))
	if err != nil {
		logger.Warn("persona hot-reload disabled", zap.Error(err))
	} else {
		a.watcher = watcher
	}
	return a, nil
}

// seedHistory opens the session with the station persona and its greeting.
func seedHistory(builder *prompts.PromptBuilder, greeting string) []engine.ChatMessage {
	seed := []engine.ChatMessage{{
		Role:    engine.RoleSystem,
		Content: builder.RenderPersona(engine.TargetISS, "", nil),
	}}
	if greeting != "" {
		seed = append(seed, engine.ChatMessage{Role: engine.RoleAssistant, Content: greeting})
	}
	return seed
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting skyfinder",
		zap.String("provider", cfg.Provider),
		zap.String("addr", cfg.Addr()),
		zap.String("public_dir", cfg.PublicDir))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(gctx) })
	g.Go(func() error { return a.tracker.Run(gctx) })
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Info("skyfinder stopped")
	return nil
}
