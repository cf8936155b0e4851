// Package main provides the world server binary: it grows per-profile worlds
// and serves them over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/lilwins/internal/config"
	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/observability"
	"github.com/cory-johannsen/lilwins/internal/scripting"
	"github.com/cory-johannsen/lilwins/internal/server"
	"github.com/cory-johannsen/lilwins/internal/storage/postgres"
	"github.com/cory-johannsen/lilwins/internal/storage/sqlite"
	"github.com/cory-johannsen/lilwins/internal/world"
	"github.com/cory-johannsen/lilwins/internal/worldserver"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthInterval := flag.Duration("health-interval", 30*time.Second, "database health check interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "worldserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting world server",
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	themeStart := time.Now()
	themes, err := world.LoadThemesFromDir(cfg.Worlds.ContentDir)
	if err != nil {
		logger.Fatal("loading worlds", zap.Error(err))
	}
	for _, th := range themes {
		for _, ref := range th.UnknownReferences() {
			logger.Warn("world references unknown content", zap.String("world", th.ID), zap.String("ref", ref))
		}
	}
	logger.Info("worlds loaded",
		zap.Int("count", len(themes)),
		zap.Duration("elapsed", time.Since(themeStart)),
	)

	lifecycle := server.NewLifecycle(logger)

	var store worldserver.SnapshotStore
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = pool.Snapshots()
		health := &server.PeriodicService{
			Name:     "postgres-health",
			Interval: *healthInterval,
			Logger:   logger,
			Fn: func(ctx context.Context) error {
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					return err
				}
				total, idle := pool.Stats()
				logger.Debug("database healthy", zap.Int32("conns", total), zap.Int32("idle", idle))
				return nil
			},
		}
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: health.Start,
			StopFn: func() {
				health.Stop()
				pool.Close()
			},
		})
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Fatal("opening sqlite", zap.Error(err))
		}
		defer db.Close()
		logger.Info("sqlite opened", zap.String("path", cfg.Storage.SQLitePath))
		store = db
	default:
		logger.Warn("memory storage selected, worlds are lost on exit")
		store = worldserver.NewMemoryStore()
	}

	var src dice.Source = dice.NewCryptoSource()
	if cfg.Worlds.Seed != 0 {
		src = dice.NewSeededSource(cfg.Worlds.Seed)
	}
	scriptMgr := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger)
	defer scriptMgr.Close()
	if cfg.Worlds.ScriptDir != "" {
		scriptStart := time.Now()
		n, err := worldserver.LoadWorldScripts(scriptMgr, themes, cfg.Worlds.ScriptDir, logger)
		if err != nil {
			logger.Fatal("loading world scripts", zap.Error(err))
		}
		logger.Info("scripting engine initialized",
			zap.Int("worlds", n),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	mgr, err := worldserver.NewManager(themes, store, scriptMgr, logger, worldserver.Options{
		Seed:   cfg.Worlds.Seed,
		Strict: cfg.Worlds.Strict,
	})
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	worldserver.RegisterWorldServiceServer(grpcServer, worldserver.NewService(mgr, logger))

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GRPC.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			stopGracefully(grpcServer, cfg.GRPC.ShutdownTimeout, logger)
		},
	})

	logger.Info("world server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// stopGracefully drains in-flight calls and force-stops after timeout.
func stopGracefully(s *grpc.Server, timeout time.Duration, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return
	}
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out, forcing", zap.Duration("timeout", timeout))
		s.Stop()
	}
}
