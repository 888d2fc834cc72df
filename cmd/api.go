package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/oilchain/internal/api"
	"example.com/oilchain/internal/cache"
	"example.com/oilchain/internal/dashboard"
	"example.com/oilchain/internal/metrics"
	"example.com/oilchain/internal/search"
	"example.com/oilchain/internal/services"
	"example.com/oilchain/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP view service serving the list views, the dashboard and the PDF exports`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	metricsCollector := metrics.NewMetrics()

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}
	defer tracer.Close()

	prefs, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, view modes kept in memory")
		prefs = cache.NewMemoryCache()
	}
	defer prefs.Close()
	metricsCollector.SetHealth("redis", err == nil)

	var searcher services.Searcher
	if cfg.Elastic.Enabled {
		elasticClient, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		} else {
			searcher = elasticClient
		}
	}

	reports, closeReports := openReports(cfg)
	defer closeReports()

	bus := openBus(cfg, cfg.Azure.APISubscription, "api")
	defer bus.Close()

	client := newBackendClient(cfg)
	hub := dashboard.NewHub(client, cfg.Backend.Timeout)

	listing := services.NewListingService(services.Deps{
		Client:    client,
		Prefs:     prefs,
		Reports:   reports,
		Publisher: bus,
		Searcher:  searcher,
		Dashboard: hub,
		Metrics:   metricsCollector,
	}, services.Options{
		BulkRequestTimeout: cfg.Views.BulkRequestTimeout,
		SessionTTL:         cfg.Views.SessionTTL,
		PrefTTL:            cfg.Redis.PrefTTL,
	})

	server := api.NewServer(cfg, listing, hub, metricsCollector, tracer)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		hub.Invalidate()
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("subscription", cfg.Azure.APISubscription).Msg("Listening for change notifications")
		return bus.Consume(ctx, listing.HandleChange)
	})

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Scheduler.DashboardInterval),
			gocron.NewTask(func() {
				log.Debug().Msg("Scheduled dashboard resync")
				hub.Invalidate()
				metricsCollector.SetHealth("backend", hub.LastError() == nil)
			}),
		)
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Scheduler.SessionSweep),
			gocron.NewTask(func() {
				listing.Sweep(time.Now())
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("API server stopped with error")
		return err
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
