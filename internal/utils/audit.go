package utils

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"ciment_back_end/internal/database"
	"ciment_back_end/internal/models"
)

// Actions d'audit
const (
	ActionCategoryCreate = "category.create"
	ActionCategoryUpdate = "category.update"
	ActionCategoryDelete = "category.delete"
	ActionProductCreate  = "product.create"
	ActionProductUpdate  = "product.update"
	ActionProductDelete  = "product.delete"
	ActionProductImage   = "product.image"
	ActionStockUpdate    = "stock.update"
	ActionOrderUpdate    = "order.update"
	ActionOrderPaid      = "order.paid"
	ActionUserCreate     = "user.create"
	ActionUserUpdate     = "user.update"
	ActionUserDelete     = "user.delete"
	ActionChatResolve    = "conversation.resolve"
)

// Ressources d'audit
const (
	ResourceCategory     = "category"
	ResourceProduct      = "product"
	ResourceStock        = "stock"
	ResourceOrder        = "order"
	ResourceUser         = "user"
	ResourceConversation = "conversation"
)

// AuditStore enregistre et relit le journal d'audit
type AuditStore interface {
	Record(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

// LogAction enregistre une action d'administration en arrière-plan
func LogAction(c *gin.Context, store AuditStore, action, resource, resourceID string, newValue any) {
	entry := models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     c.GetUint("user_id"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    true,
		Timestamp:  time.Now(),
	}
	if newValue != nil {
		if b, err := json.Marshal(newValue); err == nil {
			entry.NewValue = string(b)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Record(ctx, entry); err != nil {
			zap.L().Error("❌ Erreur enregistrement log audit", zap.String("action", action), zap.Error(err))
		}
	}()
}

// ScyllaAuditStore écrit le journal dans la table audit_logs
type ScyllaAuditStore struct {
	scylla *database.ScyllaManager
}

func NewScyllaAuditStore(scylla *database.ScyllaManager) *ScyllaAuditStore {
	return &ScyllaAuditStore{scylla: scylla}
}

func (s *ScyllaAuditStore) Record(ctx context.Context, e models.AuditLog) error {
	session, err := s.scylla.Session()
	if err != nil {
		return err
	}
	return session.Query(`
		INSERT INTO audit_logs (
			resource, id, user_id, action, resource_id, new_value,
			ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Resource, e.ID, int64(e.UserID), e.Action, e.ResourceID, e.NewValue,
		e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

func (s *ScyllaAuditStore) List(ctx context.Context, resource string, limit int) ([]models.AuditLog, error) {
	session, err := s.scylla.Session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT resource, id, user_id, action, resource_id, new_value,
			ip_address, user_agent, success, error_msg, timestamp
		FROM audit_logs WHERE resource = ? LIMIT ?`, resource, limit,
	).WithContext(ctx).Iter()

	var (
		logs   []models.AuditLog
		e      models.AuditLog
		userID int64
	)
	for iter.Scan(&e.Resource, &e.ID, &userID, &e.Action, &e.ResourceID, &e.NewValue,
		&e.IPAddress, &e.UserAgent, &e.Success, &e.ErrorMsg, &e.Timestamp) {
		e.UserID = uint(userID)
		logs = append(logs, e)
		e = models.AuditLog{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return logs, nil
}

// MemoryAuditStore garde le journal en mémoire quand ScyllaDB n'est pas configuré
type MemoryAuditStore struct {
	mu   sync.RWMutex
	logs []models.AuditLog
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (m *MemoryAuditStore) Record(_ context.Context, e models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, e)
	return nil
}

func (m *MemoryAuditStore) List(_ context.Context, resource string, limit int) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.AuditLog
	for _, e := range m.logs {
		if e.Resource == resource {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
