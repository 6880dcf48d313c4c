package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/utils"
)

// Orders gère la création et le suivi des commandes
type Orders struct {
	db      *gorm.DB
	catalog cart.Catalog
	mailer  utils.Mailer
	shop    string
	log     *zap.Logger
}

func NewOrders(db *gorm.DB, catalog cart.Catalog, mailer utils.Mailer, shop string, log *zap.Logger) *Orders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orders{db: db, catalog: catalog, mailer: mailer, shop: shop, log: log}
}

// OrderForm contient les coordonnées saisies au passage de commande
type OrderForm struct {
	FirstName     string `json:"first_name" validate:"required,max=50"`
	LastName      string `json:"last_name" validate:"required,max=50"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,max=20,phone"`
	DeliveryType  string `json:"delivery_type" validate:"required,oneof=retrait livraison"`
	Address       string `json:"address" validate:"max=250"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
	City          string `json:"city" validate:"max=100"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=lumicash ecocash ihela"`
	Notes         string `json:"notes"`
}

// Validate nettoie le téléphone puis vérifie le formulaire
func (f *OrderForm) Validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = CleanPhone(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.PostalCode = strings.TrimSpace(f.PostalCode)

	verr := validateStruct(f)
	if f.DeliveryType == models.DeliveryHome {
		if f.Address == "" {
			verr.Add("address", "Veuillez fournir une adresse de livraison")
		}
		if f.City == "" {
			verr.Add("city", "Veuillez indiquer la ville de livraison")
		}
	}
	return verr.OrNil()
}

// PlaceOrder transforme le panier en commande : les lignes figent le prix du
// panier, l'e-mail de confirmation est envoyé sans bloquer, puis le panier est vidé.
func (s *Orders) PlaceOrder(ctx context.Context, user models.User, form OrderForm, c *cart.Cart) (*models.Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	items, err := c.Items(ctx, s.catalog)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := models.Order{
		UserID:        user.ID,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         form.Email,
		Phone:         form.Phone,
		DeliveryType:  form.DeliveryType,
		Notes:         form.Notes,
		Status:        models.StatusPending,
		PaymentMethod: form.PaymentMethod,
		Paid:          false,
		TotalAmount:   cart.Total(items),
	}
	if form.DeliveryType == models.DeliveryHome {
		order.Address = optional(form.Address)
		order.PostalCode = optional(form.PostalCode)
		order.City = optional(form.City)
	}
	for _, it := range items {
		pid := it.Product.ID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   &pid,
			ProductName: it.Product.Name,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	s.log.Info("🛒 Commande créée",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", user.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	s.notify(ctx, order, utils.OrderConfirmationEmail)

	if err := c.Clear(ctx); err != nil {
		s.log.Warn("⚠️ Impossible de vider le panier", zap.Uint("order_id", order.ID), zap.Error(err))
	}
	return &order, nil
}

func (s *Orders) notify(ctx context.Context, order models.Order, build func(models.Order, string) (utils.Email, error)) {
	if s.mailer == nil {
		return
	}
	email, err := build(order, s.shop)
	if err == nil {
		err = s.mailer.Send(ctx, email)
	}
	if err != nil {
		s.log.Error("❌ Erreur d'envoi d'email", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

// UserOrders liste les commandes d'un client, la plus récente d'abord
func (s *Orders) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// OrderForUser retourne la commande si l'utilisateur en est le propriétaire ou fait partie du personnel
func (s *Orders) OrderForUser(ctx context.Context, id uint, user models.User) (*models.Order, error) {
	order, err := s.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsStaff {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *Orders) Order(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("User").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// OrderFilter filtre la liste d'administration
type OrderFilter struct {
	Status string
	Paid   *bool
}

func (s *Orders) AdminOrders(ctx context.Context, f OrderFilter, page int) (Page[models.Order], error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Paid != nil {
		q = q.Where("paid = ?", *f.Paid)
	}
	return paginate[models.Order](q, page, OrdersPageSize, "User")
}

// OrderUpdate porte les champs modifiables par l'administration
type OrderUpdate struct {
	Status        string `json:"status" validate:"required"`
	DeliveryType  string `json:"delivery_type" validate:"required,oneof=retrait livraison"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=lumicash ecocash ihela"`
	Paid          bool   `json:"paid"`
}

// AdminUpdateOrder applique la modification en gardant paid et status cohérents :
// payé + en attente devient payée, non payé + payée revient en attente.
func (s *Orders) AdminUpdateOrder(ctx context.Context, id uint, in OrderUpdate) (*models.Order, error) {
	verr := validateStruct(in)
	if in.Status != "" && !models.IsOrderStatus(in.Status) {
		verr.Add("status", "Sélectionnez un statut valide.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	switch {
	case in.Paid && in.Status == models.StatusPending:
		in.Status = models.StatusPaid
	case !in.Paid && in.Status == models.StatusPaid:
		in.Status = models.StatusPending
	}

	var (
		order    models.Order
		previous string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return notFound(err)
		}
		previous = order.Status
		return tx.Model(&order).Updates(map[string]any{
			"status":         in.Status,
			"delivery_type":  in.DeliveryType,
			"payment_method": in.PaymentMethod,
			"paid":           in.Paid,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if previous != updated.Status {
		s.log.Info("📋 Statut de commande modifié",
			zap.Uint("order_id", id),
			zap.String("from", previous),
			zap.String("to", updated.Status),
		)
		s.notify(ctx, *updated, utils.OrderStatusEmail)
	}
	return updated, nil
}

// MarkOrderPaid marque la commande payée et passe son statut à payée
func (s *Orders) MarkOrderPaid(ctx context.Context, id uint) (*models.Order, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return notFound(err)
		}
		previous = order.Status
		return tx.Model(&order).Updates(map[string]any{"paid": true, "status": models.StatusPaid}).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("💰 Commande marquée comme payée", zap.Uint("order_id", id))

	updated, err := s.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if previous != updated.Status {
		s.notify(ctx, *updated, utils.OrderStatusEmail)
	}
	return updated, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsValidationError indique si err porte des erreurs de champ
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
