// Package main is the entry point for the booth sampling service.
//
// Startup sequence: configuration, logging, SQLite, the S3 shapefile store
// client, the sampling engine and run service, the maintenance scheduler,
// and finally the HTTP server. Shutdown is signal-driven and graceful.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/boothmap/internal/clients/s3"
	"github.com/aristath/boothmap/internal/config"
	"github.com/aristath/boothmap/internal/database"
	"github.com/aristath/boothmap/internal/events"
	"github.com/aristath/boothmap/internal/modules/clustering"
	"github.com/aristath/boothmap/internal/modules/geodata"
	"github.com/aristath/boothmap/internal/modules/maps"
	"github.com/aristath/boothmap/internal/modules/runs"
	runshandlers "github.com/aristath/boothmap/internal/modules/runs/handlers"
	"github.com/aristath/boothmap/internal/modules/sampling"
	"github.com/aristath/boothmap/internal/scheduler"
	"github.com/aristath/boothmap/internal/server"
	"github.com/aristath/boothmap/pkg/geo"
	"github.com/aristath/boothmap/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Msg("Starting booth sampling service")

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "boothmap.db"),
		Name: "boothmap",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	store, err := s3.New(ctx, s3.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Prefix:    cfg.S3Prefix,
		Dir:       filepath.Join(cfg.DataDir, "shapefiles"),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create shapefile store client")
	}

	geoCache, err := geodata.NewCache(filepath.Join(cfg.DataDir, "geodata"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create geodata cache")
	}
	loader := geodata.NewLoader(store, geoCache, log)

	engine := sampling.NewEngine(clustering.NewKMeans(), geo.HaversineDistancer{}, log)
	runner := sampling.NewRunner(engine, cfg.Workers, log)

	bus := events.NewBus()
	repo, err := runs.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize runs repository")
	}
	renderer := maps.NewRenderer(log)
	mapsRoot := filepath.Join(cfg.DataDir, "maps")
	runService := runs.NewService(repo, loader, runner, renderer, bus, mapsRoot, log)

	sched := scheduler.New(log)
	runTTL := time.Duration(cfg.RunTTLHrs) * time.Hour
	if err := sched.AddJob("@hourly", scheduler.NewExpireRunsJob(runService, runTTL, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register run expiry job")
	}
	refreshJob := scheduler.NewRefreshStatesJob(loader, log)
	if err := sched.AddJob("@every 30m", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register state refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the state catalog so the first /api/states request doesn't pay
	// the S3 round trip
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Initial state list refresh failed")
		}
	}()

	srv := server.New(server.Config{
		Log:          log,
		Config:       cfg,
		Bus:          bus,
		RunsHandler:  runshandlers.NewHandler(runService, loader, log),
		SystemStatus: server.NewSystemHandlers(cfg.DataDir, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Int("workers", cfg.Workers).Msg("Service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Service stopped")
}
