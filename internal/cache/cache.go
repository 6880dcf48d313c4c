package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"ciment_back_end/internal/models"
)

const (
	CategoriesKey = "categories:all"
	CategoryTTL   = 10 * time.Minute
)

// GetJSON décode la valeur stockée sous key dans dest
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(data), ttl)
}

// CategoryCache garde la liste des catégories affichée dans la navigation
type CategoryCache struct {
	store Store
	load  func(ctx context.Context) ([]models.Category, error)
	log   *zap.Logger
}

func NewCategoryCache(store Store, load func(ctx context.Context) ([]models.Category, error), log *zap.Logger) *CategoryCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryCache{store: store, load: load, log: log}
}

// Categories lit le cache et retombe sur la base en cas d'absence ou d'erreur
func (c *CategoryCache) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := GetJSON(ctx, c.store, CategoriesKey, &cats)
	if err == nil {
		return cats, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.log.Warn("⚠️ Cache catégories illisible", zap.Error(err))
	}

	cats, err = c.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := SetJSON(ctx, c.store, CategoriesKey, cats, CategoryTTL); err != nil {
		c.log.Warn("⚠️ Mise en cache des catégories impossible", zap.Error(err))
	}
	return cats, nil
}

func (c *CategoryCache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, CategoriesKey); err != nil {
		c.log.Warn("⚠️ Invalidation du cache catégories impossible", zap.Error(err))
	}
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}

// RevokeToken bloque le jeton jusqu'à son expiration naturelle
func RevokeToken(ctx context.Context, s Store, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.Set(ctx, revokedKey(jti), "1", ttl)
}

func IsTokenRevoked(ctx context.Context, s Store, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.Exists(ctx, revokedKey(jti))
}
