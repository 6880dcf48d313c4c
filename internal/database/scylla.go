package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"ciment_back_end/internal/config"
)

// ScyllaManager garde une session par keyspace et la recrée si elle tombe
type ScyllaManager struct {
	cfg      config.ScyllaConfig
	log      *zap.Logger
	sessions map[string]*gocql.Session
	mu       sync.Mutex
}

func NewScyllaManager(cfg config.ScyllaConfig, log *zap.Logger) *ScyllaManager {
	return &ScyllaManager{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*gocql.Session),
	}
}

// Keyspace retourne le keyspace applicatif
func (sm *ScyllaManager) Keyspace() string {
	return sm.cfg.Keyspace
}

func (sm *ScyllaManager) newCluster(keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(sm.cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if sm.cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: sm.cfg.Username,
			Password: sm.cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// Session retourne la session du keyspace applicatif
func (sm *ScyllaManager) Session() (*gocql.Session, error) {
	return sm.session(sm.cfg.Keyspace)
}

func (sm *ScyllaManager) session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.sessions[keyspace]; ok {
		if err := s.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return s, nil
		}
		s.Close()
	}

	s, err := sm.newCluster(keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session ScyllaDB pour %q: %w", keyspace, err)
	}
	sm.sessions[keyspace] = s
	sm.log.Info("✅ Nouvelle session ScyllaDB", zap.String("keyspace", keyspace))
	return s, nil
}

// EnsureSchema crée le keyspace et les tables des conversations et de l'audit
func (sm *ScyllaManager) EnsureSchema() error {
	sys, err := sm.session("system")
	if err != nil {
		return err
	}
	ks := sm.cfg.Keyspace
	if err := sys.Query(fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, ks)).Exec(); err != nil {
		return fmt.Errorf("création keyspace %s: %w", ks, err)
	}

	s, err := sm.Session()
	if err != nil {
		return err
	}
	for _, stmt := range schema {
		if err := s.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("création schéma ScyllaDB: %w", err)
		}
	}
	sm.log.Info("✅ Schéma ScyllaDB prêt", zap.String("keyspace", ks))
	return nil
}

// Close ferme toutes les sessions ouvertes
func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ks, s := range sm.sessions {
		s.Close()
		sm.log.Info("🔌 Session ScyllaDB fermée", zap.String("keyspace", ks))
	}
	sm.sessions = make(map[string]*gocql.Session)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		room_name text,
		id timeuuid,
		user_id bigint,
		username text,
		session_key text,
		intent text,
		user_message text,
		bot_response text,
		is_resolved boolean,
		requires_followup boolean,
		metadata map<text, text>,
		created_at timestamp,
		updated_at timestamp,
		PRIMARY KEY ((room_name), id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		resource text,
		id timeuuid,
		user_id bigint,
		action text,
		resource_id text,
		new_value text,
		ip_address text,
		user_agent text,
		success boolean,
		error_msg text,
		timestamp timestamp,
		PRIMARY KEY ((resource), id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
}
