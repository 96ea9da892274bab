package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartconnect/internal/auth"
	"smartconnect/internal/config"
	"smartconnect/internal/models"
)

// seedAdmin creates the configured superuser and its admin profile once.
func seedAdmin(db *gorm.DB, cfg config.Config, lg *zap.SugaredLogger) error {
	if cfg.AdminPassword == "" {
		lg.Warnw("ADMIN_PASSWORD is empty, skipping admin seed")
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", cfg.AdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		u := models.User{
			Username:     cfg.AdminUsername,
			Email:        strings.ToLower(cfg.AdminEmail),
			PasswordHash: hash,
			IsSuperuser:  true,
			IsActive:     true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		p := models.UserProfile{UserID: u.ID, Role: models.RoleAdmin, Active: true}
		return tx.Omit(clause.Associations).Create(&p).Error
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	lg.Infow("seeded default admin", "username", cfg.AdminUsername)
	return nil
}
