package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"ciment_back_end/internal/database"
	"ciment_back_end/internal/models"
)

var ErrConversationNotFound = errors.New("conversation introuvable")

// ConversationStore conserve l'historique des échanges avec le chatbot
type ConversationStore interface {
	Create(ctx context.Context, c *models.Conversation) error
	SetBotResponse(ctx context.Context, room string, id gocql.UUID, response string) error
	// List retourne les conversations les plus récentes (tous salons si room est vide)
	List(ctx context.Context, room string, limit int) ([]models.Conversation, error)
	Resolve(ctx context.Context, room string, id gocql.UUID) error
}

func prepare(c *models.Conversation) {
	now := time.Now()
	if c.ID == (gocql.UUID{}) {
		c.ID = gocql.UUIDFromTime(now)
	}
	if c.Intent == "" {
		c.Intent = models.IntentOther
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
}

// ScyllaConversationStore range les conversations par salon dans ScyllaDB
type ScyllaConversationStore struct {
	scylla *database.ScyllaManager
}

func NewScyllaConversationStore(scylla *database.ScyllaManager) *ScyllaConversationStore {
	return &ScyllaConversationStore{scylla: scylla}
}

const conversationColumns = `room_name, id, user_id, username, session_key, intent, user_message,
	bot_response, is_resolved, requires_followup, metadata, created_at, updated_at`

func (s *ScyllaConversationStore) Create(ctx context.Context, c *models.Conversation) error {
	session, err := s.scylla.Session()
	if err != nil {
		return err
	}
	prepare(c)

	var userID *int64
	if c.UserID != nil {
		id := int64(*c.UserID)
		userID = &id
	}
	return session.Query(`INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RoomName, c.ID, userID, c.Username, c.SessionKey, c.Intent, c.UserMessage,
		c.BotResponse, c.IsResolved, c.RequiresFollowup, c.Metadata, c.CreatedAt, c.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaConversationStore) SetBotResponse(ctx context.Context, room string, id gocql.UUID, response string) error {
	session, err := s.scylla.Session()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE conversations SET bot_response = ?, updated_at = ?
		WHERE room_name = ? AND id = ?`, response, time.Now(), room, id,
	).WithContext(ctx).Exec()
}

func (s *ScyllaConversationStore) Resolve(ctx context.Context, room string, id gocql.UUID) error {
	session, err := s.scylla.Session()
	if err != nil {
		return err
	}

	var found gocql.UUID
	err = session.Query(`SELECT id FROM conversations WHERE room_name = ? AND id = ?`, room, id).
		WithContext(ctx).Scan(&found)
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrConversationNotFound
	}
	if err != nil {
		return err
	}

	return session.Query(`UPDATE conversations SET is_resolved = true, updated_at = ?
		WHERE room_name = ? AND id = ?`, time.Now(), room, id,
	).WithContext(ctx).Exec()
}

func (s *ScyllaConversationStore) List(ctx context.Context, room string, limit int) ([]models.Conversation, error) {
	session, err := s.scylla.Session()
	if err != nil {
		return nil, err
	}

	var q *gocql.Query
	if room != "" {
		q = session.Query(`SELECT `+conversationColumns+` FROM conversations WHERE room_name = ? LIMIT ?`, room, limit)
	} else {
		q = session.Query(`SELECT `+conversationColumns+` FROM conversations LIMIT ?`, limit)
	}
	iter := q.WithContext(ctx).Iter()

	var (
		out    []models.Conversation
		c      models.Conversation
		userID *int64
	)
	for iter.Scan(&c.RoomName, &c.ID, &userID, &c.Username, &c.SessionKey, &c.Intent, &c.UserMessage,
		&c.BotResponse, &c.IsResolved, &c.RequiresFollowup, &c.Metadata, &c.CreatedAt, &c.UpdatedAt) {
		if userID != nil {
			id := uint(*userID)
			c.UserID = &id
		}
		out = append(out, c)
		c = models.Conversation{}
		userID = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	sortRecentFirst(out)
	return out, nil
}

// MemoryConversationStore garde les conversations en mémoire quand ScyllaDB n'est pas configuré
type MemoryConversationStore struct {
	mu    sync.RWMutex
	items map[gocql.UUID]models.Conversation
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{items: make(map[gocql.UUID]models.Conversation)}
}

func (m *MemoryConversationStore) Create(_ context.Context, c *models.Conversation) error {
	prepare(c)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = *c
	return nil
}

func (m *MemoryConversationStore) update(room string, id gocql.UUID, fn func(*models.Conversation)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.RoomName != room {
		return ErrConversationNotFound
	}
	fn(&c)
	c.UpdatedAt = time.Now()
	m.items[id] = c
	return nil
}

func (m *MemoryConversationStore) SetBotResponse(_ context.Context, room string, id gocql.UUID, response string) error {
	return m.update(room, id, func(c *models.Conversation) { c.BotResponse = response })
}

func (m *MemoryConversationStore) Resolve(_ context.Context, room string, id gocql.UUID) error {
	return m.update(room, id, func(c *models.Conversation) { c.IsResolved = true })
}

func (m *MemoryConversationStore) List(_ context.Context, room string, limit int) ([]models.Conversation, error) {
	m.mu.RLock()
	out := make([]models.Conversation, 0, len(m.items))
	for _, c := range m.items {
		if room == "" || c.RoomName == room {
			out = append(out, c)
		}
	}
	m.mu.RUnlock()

	sortRecentFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortRecentFirst(cs []models.Conversation) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].ID.Time().After(cs[j].ID.Time())
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}
