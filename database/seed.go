package database

import (
	"society_tickets/config"
	"society_tickets/constants"
	"society_tickets/logger"
	"society_tickets/model"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedData creates the bootstrap admin account from configuration when
// SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are set.
func SeedData(db *gorm.DB, cfg *config.Settings) {
	email := strings.ToLower(strings.TrimSpace(cfg.Auth.SeedEmail))
	if email == "" || cfg.Auth.SeedPassword == "" {
		return
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.SeedPassword), 10)
	if err != nil {
		logger.Error("failed to hash seed admin password", zap.Error(err))
		return
	}

	admin := model.Admin{
		Email:    email,
		Name:     cfg.Auth.SeedName,
		Password: string(bytes),
		Role:     constants.ROLE_ADMIN,
	}
	if err := db.Where(model.Admin{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		logger.Error("failed to seed admin account", zap.String("email", admin.Email), zap.Error(err))
	}
}
