package database

import (
	"fmt"

	"gorm.io/gorm"

	"ciment_back_end/internal/models"
)

// AutoMigrate crée ou met à jour les tables relationnelles
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.StockEntry{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	return nil
}
