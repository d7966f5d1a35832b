// Package store provides gorm-backed repositories for the ledger and vault
// over an in-memory SQLite database. Nothing outlives the process.
package store

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// pure-Go driver, registers itself as "sqlite"
	_ "modernc.org/sqlite"
)

const MemoryDSN = ":memory:"

func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// An in-memory database lives as long as its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	log.Info("opened session database", zap.String("dsn", dsn))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&walletRow{}, &transactionRow{}, &documentRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
