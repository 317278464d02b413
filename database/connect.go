package database

import (
	"fmt"
	"society_tickets/config"
	"society_tickets/logger"
	"society_tickets/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDB opens the postgres pool, migrates the schema and seeds the
// default admin. It panics when the database is unreachable.
func ConnectDB(cfg *config.Settings) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect database: %v", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to get database handle: %v", err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	logger.Info("connection opened to database", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))

	if err := Migrate(db); err != nil {
		panic(fmt.Sprintf("failed to migrate database: %v", err))
	}
	logger.Info("database migrated")

	SeedData(db, cfg)

	DB = db
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Admin{},
		&model.PasswordResetToken{},
		&model.Event{},
		&model.Attendee{},
		&model.WebhookDelivery{},
	)
}
