package services

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ciment_back_end/internal/models"
)

// Dashboard résume l'activité de la boutique pour l'administration
type Dashboard struct {
	ProductCount  int64           `json:"product_count"`
	OrderCount    int64           `json:"order_count"`
	UserCount     int64           `json:"user_count"`
	PendingOrders int64           `json:"pending_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	Unavailable   int64           `json:"unavailable_products"`
}

func LoadDashboard(ctx context.Context, db *gorm.DB) (Dashboard, error) {
	var d Dashboard
	db = db.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&d.ProductCount).Error; err != nil {
		return d, err
	}
	if err := db.Model(&models.Order{}).Count(&d.OrderCount).Error; err != nil {
		return d, err
	}
	if err := db.Model(&models.User{}).Count(&d.UserCount).Error; err != nil {
		return d, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.StatusPending).Count(&d.PendingOrders).Error; err != nil {
		return d, err
	}
	if err := db.Model(&models.Product{}).Where("available = ?", false).Count(&d.Unavailable).Error; err != nil {
		return d, err
	}

	var paid []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("paid = ?", true).Pluck("total_amount", &paid).Error; err != nil {
		return d, err
	}
	d.Revenue = decimal.Sum(decimal.Zero, paid...)
	return d, nil
}
