package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message est diffusé à tous les abonnés d'un salon
type Message struct {
	Message     string `json:"message"`
	BotResponse string `json:"bot_response"`
	User        string `json:"user"`
}

// Layer diffuse les messages entre les connexions d'un même salon,
// éventuellement réparties sur plusieurs instances du serveur
type Layer interface {
	Publish(ctx context.Context, room string, msg Message) error
	// Subscribe retourne le flux des messages du salon et la fonction qui y met fin
	Subscribe(ctx context.Context, room string) (<-chan Message, func(), error)
}

func channelName(room string) string {
	return "chat_" + room
}

// RedisLayer s'appuie sur le pub/sub Redis
type RedisLayer struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisLayer(client *redis.Client, log *zap.Logger) *RedisLayer {
	return &RedisLayer{client: client, log: log}
}

func (l *RedisLayer) Publish(ctx context.Context, room string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := l.client.Publish(ctx, channelName(room), data).Err(); err != nil {
		return fmt.Errorf("publication salon %s: %w", room, err)
	}
	return nil
}

func (l *RedisLayer) Subscribe(ctx context.Context, room string) (<-chan Message, func(), error) {
	pubsub := l.client.Subscribe(ctx, channelName(room))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("abonnement salon %s: %w", room, err)
	}

	out := make(chan Message, 16)
	stop := make(chan struct{})
	go func() {
		defer close(out)
		for m := range pubsub.Channel() {
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				l.log.Warn("⚠️ Message de chat illisible", zap.String("room", room), zap.Error(err))
				continue
			}
			select {
			case out <- msg:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

// MemoryLayer diffuse les messages au sein du processus
type MemoryLayer struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Message]struct{}
}

func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{rooms: make(map[string]map[chan Message]struct{})}
}

func (l *MemoryLayer) Publish(_ context.Context, room string, msg Message) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.rooms[room] {
		select {
		case ch <- msg:
		default:
			// abonné trop lent : le message est perdu pour lui
		}
	}
	return nil
}

func (l *MemoryLayer) Subscribe(_ context.Context, room string) (<-chan Message, func(), error) {
	ch := make(chan Message, 16)

	l.mu.Lock()
	if l.rooms[room] == nil {
		l.rooms[room] = make(map[chan Message]struct{})
	}
	l.rooms[room][ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.rooms[room], ch)
			if len(l.rooms[room]) == 0 {
				delete(l.rooms, room)
			}
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
