// Command trackd runs the storm track analysis service: it consumes
// transformed storm reports from Kafka, assembles storm tracks, publishes
// track summaries, and serves the analysis HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	httpadapter "github.com/couchcryptid/storm-track-analysis/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-track-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-analysis/internal/config"
	"github.com/couchcryptid/storm-track-analysis/internal/network"
	"github.com/couchcryptid/storm-track-analysis/internal/observability"
	"github.com/couchcryptid/storm-track-analysis/internal/pipeline"
	"github.com/couchcryptid/storm-track-analysis/internal/store"
	"github.com/couchcryptid/storm-track-analysis/internal/track"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}

	// The spatial network is optional; without it the /api/network endpoints
	// report 503 and everything else runs as normal.
	var net *network.Network
	if cfg.NetworkGeoJSONPath != "" {
		net, err = loadNetwork(cfg.NetworkGeoJSONPath, logger)
		if err != nil {
			logger.Error("failed to load network", "error", err, "path", cfg.NetworkGeoJSONPath)
			os.Exit(1)
		}
	} else {
		logger.Info("no network configured, /api/network endpoints disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	assembler := pipeline.NewAssembler(db, track.Config{
		MaxGap:    cfg.TrackMaxGap,
		MaxJump:   cfg.TrackMaxJump,
		MinPoints: cfg.TrackMinPoints,
	}, logger, metrics)

	p := pipeline.New(reader, assembler, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, db, net, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the analysis pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadNetwork(path string, logger *slog.Logger) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, skipped, err := network.LinesFromGeoJSON(data)
	if err != nil {
		return nil, err
	}
	net := network.Build(lines)
	logger.Info("network loaded",
		"lines", len(lines),
		"skipped_features", skipped,
		"nodes", net.NodeCount(),
		"edges", net.EdgeCount(),
		"components", len(net.Components()),
	)
	return net, nil
}
