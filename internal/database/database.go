package database

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/oilchain/config"
	"example.com/oilchain/internal/models"
)

// DB is an interface for database operations
type DB interface {
	DB() (*gorm.DB, error)
	Close() error
}

// GormDatabase implements the DB interface for GORM
type GormDatabase struct {
	db *gorm.DB
}

// Connect establishes a connection to the database
func Connect(cfg config.DatabaseConfig) (DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get DB instance")
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &GormDatabase{db: db}, nil
}

// DB returns the underlying gorm.DB instance
func (d *GormDatabase) DB() (*gorm.DB, error) {
	return d.db, nil
}

// Close closes the database connection
func (d *GormDatabase) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func AutoMigrate(db DB) error {
	gormDB, err := db.DB()
	if err != nil {
		return err
	}
	return models.SetupModels(gormDB)
}
