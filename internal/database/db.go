package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/config"
	"go-adega-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Open connects to the configured database, migrates the schema and seeds
// the first-run rows.
func Open(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set, please configure your database")
	}

	dialector, err := Dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	// Wait for DB to be ready
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, Config(cfg.DBLogLevel))
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in %s... (%d/%d)", connectBackoff, i+1, connectAttempts)
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.DBDriver, connectAttempts, err)
	}
	log.Printf("✅ Connected to %s", cfg.DBDriver)

	if cfg.DBDriver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions queued
		// in the pool instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("✅ Database schema synced")

	if err := Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Dialector picks the gorm driver for DB_DRIVER.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// Config is the gorm configuration shared by the server and the tests.
func Config(level string) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(level)),
		TranslateError: true,
	}
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.Product{},
		&models.StockMovement{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Settings{},
	)
}

// Seed writes the default admin account and the settings row when missing.
func Seed(db *gorm.DB) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users == 0 {
		hash, err := auth.HashPassword("admin")
		if err != nil {
			return err
		}
		admin := models.User{Username: "admin", PasswordHash: hash, Role: models.RoleAdmin}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		log.Println("⚠️  Created default user admin/admin, change the password now")
	}

	var settings int64
	if err := db.Model(&models.Settings{}).Count(&settings).Error; err != nil {
		return err
	}
	if settings == 0 {
		def := models.DefaultSettings()
		if err := db.Create(&def).Error; err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	return nil
}
