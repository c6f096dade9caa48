package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxelforge/voxelforge-server/internal/config"
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"github.com/voxelforge/voxelforge-server/internal/game"
	"github.com/voxelforge/voxelforge-server/internal/journal"
	"github.com/voxelforge/voxelforge-server/internal/network"
	"github.com/voxelforge/voxelforge-server/internal/sim"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting voxelforge server",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("network_mode", cfg.Network.Mode),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	types := event.NewTypeRegistry(logger)

	// Network layer per configured mode
	var net event.Network = event.NoNetwork{}
	switch cfg.Network.Mode {
	case "server", "listen":
		mode := event.ModeServer
		if cfg.Network.Mode == "listen" {
			mode = event.ModeListenServer
		}
		hub, err := network.NewHub(mode, cfg.Network.JoinPassword, types, logger)
		if err != nil {
			logger.Fatal("failed to create network hub", zap.Error(err))
		}
		net = hub

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
		go func() {
			logger.Info("listening for clients", zap.String("addr", cfg.Server.ListenAddr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server failed", zap.Error(err))
				cancel()
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Shutdown(context.Background())
		}()
	case "client":
		upstream, err := network.Dial(cfg.Network.UpstreamURL, cfg.Network.PlayerName, cfg.Network.JoinPassword, types, logger)
		if err != nil {
			logger.Fatal("failed to connect to host", zap.Error(err))
		}
		defer upstream.Close()
		net = upstream
	}

	// Event journal
	var journalStore journal.Store = journal.NewMemoryStore()
	if cfg.Journal.DSN != "" {
		pgStore, err := journal.NewPostgresStore(ctx, cfg.Journal.DSN, logger)
		if err != nil {
			logger.Fatal("failed to connect journal store", zap.Error(err))
		}
		defer pgStore.Close()
		journalStore = pgStore
	}
	recorder := journal.NewRecorder(journalStore, logger)
	if cfg.Journal.Record {
		recorder.Start()
		logger.Info("event recording enabled")
	}

	// The event system is owned by this goroutine, which also runs the tick
	// loop below.
	events := event.NewSystem(types, net, recorder, logger)
	store := ecs.NewStore()

	if err := game.RegisterCoreTypes(events); err != nil {
		logger.Fatal("failed to register core event types", zap.Error(err))
	}
	if err := events.RegisterSubsystem(game.NewHealthSystem(store, events, logger)); err != nil {
		logger.Fatal("failed to register health subsystem", zap.Error(err))
	}
	logger.Info("event engine initialized")

	loop := sim.NewLoop(events, cfg.Server.TickRate, logger)
	loop.Run(ctx)

	logger.Info("server stopped")
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
