package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// TTL d'un panier inactif dans Redis
const TTL = 30 * 24 * time.Hour

// Line est une ligne de panier telle que stockée en session
type Line struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Lines associe l'identifiant produit (en texte) à sa ligne
type Lines map[string]Line

// Store persiste le contenu des paniers par clé de session
type Store interface {
	Load(ctx context.Context, key string) (Lines, error)
	Save(ctx context.Context, key string, lines Lines) error
	Delete(ctx context.Context, key string) error
}

// RedisStore stocke chaque panier en JSON sous la clé cart:<session>
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key string) string {
	return "cart:" + key
}

func (s *RedisStore) Load(ctx context.Context, key string) (Lines, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lines{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}

	lines := Lines{}
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("décodage panier: %w", err)
	}
	return lines, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, lines Lines) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(key), data, TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

// MemoryStore garde les paniers en mémoire (développement et tests)
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Lines
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Lines)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Lines, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := Lines{}
	for id, l := range s.carts[key] {
		lines[id] = l
	}
	return lines, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, lines Lines) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(Lines, len(lines))
	for id, l := range lines {
		cp[id] = l
	}
	s.carts[key] = cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}
