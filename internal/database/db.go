package database

import (
	"context"
	"fmt"
	"time"

	"docchat/config"
	"docchat/internal/database/model"
	"docchat/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// Open connects to the primary, registers read replicas and applies pool
// configuration.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.Dns), &gorm.Config{
		Logger: gormlogger.New(logger.GetLogger(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("%v: open: %w", config.ModuleDatabase, err)
	}

	lifetime := time.Duration(cfg.Database.MaxLifetime) * time.Minute
	if dsns := cfg.ReplicaDSNs(); len(dsns) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dsns))
		for _, dsn := range dsns {
			replicas = append(replicas, mysql.Open(dsn))
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(cfg.Database.MaxIdleConns).
			SetMaxOpenConns(cfg.Database.MaxOpenConns).
			SetConnMaxLifetime(lifetime)
		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("%v: register replicas: %w", config.ModuleDatabase, err)
		}
		logger.Info("%v: %d read replicas registered", config.ModuleDatabase, len(replicas))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(lifetime)
	sqlDB.SetConnMaxLifetime(lifetime)

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("%v: migrate: %w", config.ModuleDatabase, err)
	}
	return nil
}

// Ping checks the primary connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
