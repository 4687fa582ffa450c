// Command reconcile assigns IBTrACS storm ids to EM-DAT impact records and
// writes the resolved table (and optionally a Kafka topic).
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	httpadapter "github.com/couchcryptid/storm-impact-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-impact-etl/internal/adapter/kafka"
	"github.com/couchcryptid/storm-impact-etl/internal/config"
	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/couchcryptid/storm-impact-etl/internal/observability"
	"github.com/couchcryptid/storm-impact-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	overrides, err := config.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		logger.Error("failed to load overrides", "path", cfg.OverridesPath, "error", err)
		return 1
	}

	source := &csvtable.FileSource{
		TracksPath:   cfg.TracksPath,
		TriggersPath: cfg.TriggersPath,
		ImpactsPath:  cfg.ImpactsPath,
	}

	var sinks []pipeline.Sink
	if cfg.OutputPath != "" {
		fileSink := csvtable.NewSink(cfg.OutputPath, source.OutputColumns)
		defer fileSink.Close()
		sinks = append(sinks, pipeline.Sink{Name: "csv", Loader: fileSink})
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	opts := pipeline.Options{
		PatternCacheSize: cfg.PatternCacheSize,
		BatchSize:        cfg.BatchSize,
	}
	if cfg.ExplicitThreshold() {
		opts.Threshold = &domain.Threshold{DistanceKm: cfg.ThresholdDistanceKm, WindSpeed: cfg.ThresholdWind}
	}

	p := pipeline.New(source, overrides, sinks, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, func() any { return p.Progress() }, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	summary, err := p.Run(ctx)
	if err != nil {
		logFailure(logger, err)
		return 1
	}

	args := []any{"run_id", summary.RunID, "records", summary.Records}
	for outcome, n := range summary.Outcomes {
		args = append(args, string(outcome), n)
	}
	logger.Info("reconcile finished", args...)
	return 0
}

// logFailure points the operator at the override table that needs an entry.
func logFailure(logger *slog.Logger, err error) {
	var noMatch *domain.MatchError
	var ambiguous *domain.AmbiguityError
	switch {
	case errors.As(err, &ambiguous):
		logger.Error("ambiguous impact record, add a tiebreaks entry",
			"event_name", ambiguous.Name,
			"start_year", ambiguous.Year,
			"asap0_id", ambiguous.Asap0ID,
			"candidates", ambiguous.Candidates,
		)
	case errors.As(err, &noMatch):
		logger.Error("unmatched impact record, add a specific_ids or not_recognized entry",
			"event_name", noMatch.Name,
			"start_year", noMatch.Year,
			"asap0_id", noMatch.Asap0ID,
			"stage", noMatch.Stage,
		)
	case errors.Is(err, context.Canceled):
		logger.Info("run cancelled, nothing was written")
	default:
		logger.Error("reconcile run failed", "error", err)
	}
}
