package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/oilchain/internal/metrics"
	"example.com/oilchain/internal/search"
	"example.com/oilchain/internal/services"
	"example.com/oilchain/internal/tracing"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that keeps the cross-entity search index in line with the backend`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Elastic.Enabled {
		return errors.New("worker requires elastic.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}
	defer tracer.Close()

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		return err
	}

	bus := openBus(cfg, cfg.Azure.WorkerSubscription, "worker")
	defer bus.Close()

	indexer := services.NewIndexer(newBackendClient(cfg), elasticClient, metrics.NewMetrics(), tracer)

	g.Go(func() error {
		log.Info().Str("subscription", cfg.Azure.WorkerSubscription).Msg("Starting change notification processor")
		return bus.Consume(ctx, indexer.HandleChange)
	})

	// full rebuild as a fallback for missed notifications
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Scheduler.ReindexInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Running scheduled reindex")
				if _, err := indexer.Reindex(ctx); err != nil {
					log.Error().Err(err).Msg("Scheduled reindex failed")
				}
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker stopped with error")
		return err
	}

	log.Info().Msg("Worker shut down")
	return nil
}
