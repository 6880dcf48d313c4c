package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/models"
	"ciment_back_end/internal/utils"
)

// Users gère les comptes clients et le personnel
type Users struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUsers(db *gorm.DB, log *zap.Logger) *Users {
	if log == nil {
		log = zap.NewNop()
	}
	return &Users{db: db, log: log}
}

// UserInput est la fiche utilisateur saisie par l'administration ou à l'inscription
type UserInput struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Phone       string `json:"phone" validate:"omitempty,max=20,phone"`
	Password    string `json:"password" validate:"omitempty,min=8,max=128"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    *bool  `json:"is_active"`
}

func (s *Users) validate(tx *gorm.DB, in *UserInput, excludeID uint) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = CleanPhone(in.Phone)

	verr := validateStruct(in)
	if excludeID == 0 && in.Password == "" {
		verr.Add("password", "Ce champ est obligatoire.")
	}

	var count int64
	q := tx.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", in.Username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("username", "Un utilisateur avec ce nom existe déjà.")
	}

	q = tx.Model(&models.User{}).Where("email = ?", in.Email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("email", "Cette adresse e-mail est déjà utilisée.")
	}
	return verr.OrNil()
}

// CreateUser crée un compte avec un mot de passe haché en Argon2id
func (s *Users) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, &in, 0); err != nil {
			return err
		}
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return fmt.Errorf("hash du mot de passe: %w", err)
		}
		u = models.User{
			Username:     in.Username,
			Email:        in.Email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Phone:        in.Phone,
			PasswordHash: hash,
			IsStaff:      in.IsStaff,
			IsSuperuser:  in.IsSuperuser,
			IsActive:     in.IsActive == nil || *in.IsActive,
			DateJoined:   time.Now(),
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("✅ Utilisateur créé", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return &u, nil
}

// Register crée un compte client depuis le formulaire public
func (s *Users) Register(ctx context.Context, in UserInput) (*models.User, error) {
	in.IsStaff = false
	in.IsSuperuser = false
	in.IsActive = nil
	return s.CreateUser(ctx, in)
}

// UpdateUser modifie un compte. Un mot de passe vide conserve l'actuel.
func (s *Users) UpdateUser(ctx context.Context, id uint, in UserInput) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return notFound(err)
		}
		if err := s.validate(tx, &in, id); err != nil {
			return err
		}
		u.Username = in.Username
		u.Email = in.Email
		u.FirstName = in.FirstName
		u.LastName = in.LastName
		u.Phone = in.Phone
		u.IsStaff = in.IsStaff
		u.IsSuperuser = in.IsSuperuser
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
		if in.Password != "" {
			hash, err := utils.HashPassword(in.Password)
			if err != nil {
				return fmt.Errorf("hash du mot de passe: %w", err)
			}
			u.PasswordHash = hash
		}
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Users) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.log.Info("🗑️ Utilisateur supprimé", zap.Uint("user_id", id))
	return nil
}

func (s *Users) User(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Users) ListUsers(ctx context.Context, page int) (Page[models.User], error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Order("date_joined DESC, id DESC")
	return paginate[models.User](q, page, AdminPageSize)
}

// Authenticate vérifie les identifiants (nom d'utilisateur ou e-mail)
func (s *Users) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var u models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR email = ?", login, strings.ToLower(login)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	s.touchLastLogin(ctx, &u)
	return &u, nil
}

func (s *Users) touchLastLogin(ctx context.Context, u *models.User) {
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(u).UpdateColumn("last_login", now).Error; err != nil {
		s.log.Warn("⚠️ Mise à jour de last_login impossible", zap.Uint("user_id", u.ID), zap.Error(err))
		return
	}
	u.LastLogin = &now
}

// OAuthProfile est l'identité renvoyée par un fournisseur externe
type OAuthProfile struct {
	Provider   string
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
	NickName   string
}

// FindOrCreateOAuthUser retrouve le compte lié au fournisseur, puis par e-mail,
// et le crée sinon
func (s *Users) FindOrCreateOAuthUser(ctx context.Context, p OAuthProfile) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return nil, fieldError("email", "Le fournisseur n'a pas communiqué d'adresse e-mail.")
	}

	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("provider = ? AND provider_id = ?", p.Provider, p.ProviderID).Limit(1).Find(&u)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		res = tx.Where("email = ?", email).Limit(1).Find(&u)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Model(&u).Updates(map[string]any{"provider": p.Provider, "provider_id": p.ProviderID}).Error
		}

		username, err := uniqueUsername(tx, oauthUsername(p, email))
		if err != nil {
			return err
		}
		u = models.User{
			Username:   username,
			Email:      email,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Provider:   p.Provider,
			ProviderID: p.ProviderID,
			IsActive:   true,
			DateJoined: time.Now(),
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	s.touchLastLogin(ctx, &u)
	return &u, nil
}

func oauthUsername(p OAuthProfile, email string) string {
	if p.NickName != "" {
		return p.NickName
	}
	return strings.SplitN(email, "@", 2)[0]
}

func uniqueUsername(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// UserDeleteFilter sélectionne les comptes conservés lors d'une suppression en masse
type UserDeleteFilter struct {
	ExcludeSuperusers bool
	ExcludeStaff      bool
}

// UserDeleteResult décrit une suppression en masse (ou sa simulation)
type UserDeleteResult struct {
	Count   int64
	Sample  []models.User
	Deleted int64
}

// DeleteUsers supprime les comptes sélectionnés. En dryRun, seuls le nombre
// et un échantillon de cinq comptes sont retournés.
func (s *Users) DeleteUsers(ctx context.Context, f UserDeleteFilter, dryRun bool) (UserDeleteResult, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.ExcludeSuperusers {
			db = db.Where("is_superuser = ?", false)
		}
		if f.ExcludeStaff {
			db = db.Where("is_staff = ?", false)
		}
		return db
	}

	var result UserDeleteResult
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Scopes(scope).Count(&result.Count).Error; err != nil {
		return result, err
	}
	if result.Count == 0 {
		return result, nil
	}
	if err := db.Model(&models.User{}).Scopes(scope).Order("id").Limit(5).Find(&result.Sample).Error; err != nil {
		return result, err
	}
	if dryRun {
		return result, nil
	}

	res := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Scopes(scope).Delete(&models.User{})
	if res.Error != nil {
		return result, res.Error
	}
	result.Deleted = res.RowsAffected
	s.log.Warn("🗑️ Suppression en masse des utilisateurs", zap.Int64("deleted", result.Deleted))
	return result, nil
}
