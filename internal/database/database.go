package database

import (
	"context"
	"time"

	"videoearn/config"
	"videoearn/internal/domain"
	"videoearn/internal/models"
	"videoearn/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options shared by every connection. Duplicate-key errors surface as
// gorm.ErrDuplicatedKey and timestamps are written in UTC.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	return Open(mysql.Open(cfg.DSN), cfg)
}

// Open connects through any gorm dialector and applies pool settings.
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.VideoEarning{},
		&models.Referral{},
		&models.SiteSetting{},
		&models.PaymentOrder{},
		&models.Notification{},
	)
}

// SeedSettings inserts the default site settings that are not set yet.
func SeedSettings(ctx context.Context, db *gorm.DB) error {
	return repository.NewSettingRepository(db).SeedDefaults(ctx, domain.DefaultSettings)
}
