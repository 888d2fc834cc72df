package cmd

import (
	"github.com/rs/zerolog/log"

	"example.com/oilchain/config"
	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/database"
	"example.com/oilchain/internal/messaging"
	"example.com/oilchain/internal/repositories"
	"example.com/oilchain/internal/services"
)

func newBackendClient(cfg config.Config) *backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:          cfg.Backend.URL,
		Timeout:          cfg.Backend.Timeout,
		Token:            cfg.Backend.Token,
		BreakerThreshold: cfg.Backend.BreakerThreshold,
		BreakerTimeout:   cfg.Backend.BreakerTimeout,
	})
}

// openReports returns the bulk report store. Without a database the reports
// are kept in memory for the life of the process.
func openReports(cfg config.Config) (services.ReportRepository, func()) {
	if !cfg.DB.Enabled {
		log.Info().Msg("Database disabled, bulk reports kept in memory")
		return repositories.NewMemoryBulkReportRepository(), func() {}
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to database, bulk reports kept in memory")
		return repositories.NewMemoryBulkReportRepository(), func() {}
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Warn().Err(err).Msg("Failed to run migrations, bulk reports kept in memory")
		_ = db.Close()
		return repositories.NewMemoryBulkReportRepository(), func() {}
	}

	gormDB, err := db.DB()
	if err != nil {
		_ = db.Close()
		return repositories.NewMemoryBulkReportRepository(), func() {}
	}
	return repositories.NewBulkReportRepository(gormDB), func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}

// openBus connects to the change topic, or to an in-process bus when no
// Service Bus is configured.
func openBus(cfg config.Config, subscription, source string) messaging.Bus {
	if cfg.Azure.QueueConnStr == "" {
		log.Warn().Msg("Azure Service Bus not configured, change notifications stay in this process")
		return messaging.NewMemoryBus()
	}
	bus, err := messaging.NewServiceBus(cfg.Azure, subscription, source)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Azure Service Bus, change notifications stay in this process")
		return messaging.NewMemoryBus()
	}
	return bus
}
