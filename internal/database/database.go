package database

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ciment_back_end/internal/config"
	"ciment_back_end/internal/logger"
)

// Connections regroupe les clients vers les bases de données.
// Seul PostgreSQL est obligatoire, les autres restent nil s'ils ne sont pas configurés.
type Connections struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Scylla  *ScyllaManager
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// Connect ouvre toutes les connexions configurées
func Connect(cfg *config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenSQL(cfg, log)
	if err != nil {
		return nil, err
	}
	conns := &Connections{DB: db}

	if cfg.Redis.Host != "" {
		conns.Redis, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Connecté à Redis", zap.String("host", cfg.Redis.Host))
	} else {
		log.Warn("⚠️ REDIS_HOST absent, panier et cache en mémoire")
	}

	if len(cfg.Scylla.Hosts) > 0 {
		conns.Scylla = NewScyllaManager(cfg.Scylla, log)
		if err := conns.Scylla.EnsureSchema(); err != nil {
			return nil, fmt.Errorf("initialisation ScyllaDB: %w", err)
		}
	} else {
		log.Warn("⚠️ SCYLLA_HOSTS absent, conversations et audit en mémoire")
	}

	if cfg.Elastic.URL != "" {
		conns.Elastic, err = connectElastic(cfg.Elastic)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Connecté à Elasticsearch", zap.String("url", cfg.Elastic.URL))
	}

	if cfg.MinIO.Endpoint != "" {
		conns.MinIO, err = connectMinIO(ctx, cfg.MinIO, log)
		if err != nil {
			return nil, err
		}
	}

	log.Info("✅ Toutes les bases de données configurées sont connectées")
	return conns, nil
}

// Close ferme proprement toutes les connexions
func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// OpenSQL ouvre PostgreSQL, ou un fichier SQLite quand DB_DRIVER=sqlite (développement local)
func OpenSQL(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.NewGormLogger(log, cfg.Log.Level)}

	if cfg.Database.Driver == "sqlite" {
		db, err := OpenSQLite(cfg.Database.Name+".db", gormCfg)
		if err != nil {
			return nil, fmt.Errorf("ouverture SQLite: %w", err)
		}
		log.Info("✅ Base SQLite ouverte", zap.String("file", cfg.Database.Name+".db"))
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connexion PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("✅ Connecté à PostgreSQL", zap.String("database", cfg.Database.Name))
	return db, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	return client, nil
}

func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	return client, nil
}

func connectMinIO(ctx context.Context, cfg config.MinIOConfig, log *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO: %w", err)
		}
		log.Info("🪣 Bucket créé", zap.String("bucket", cfg.Bucket))
	}

	log.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.Endpoint))
	return client, nil
}
