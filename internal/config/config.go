package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config regroupe toute la configuration du serveur
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Scylla   ScyllaConfig
	Elastic  ElasticConfig
	MinIO    MinIOConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Log      LogConfig
	Shop     ShopConfig
}

type AppConfig struct {
	Env         string
	Port        string
	BaseURL     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type AuthConfig struct {
	JWTSecret     string
	SessionSecret string
	TokenTTLHours int
}

type OAuthConfig struct {
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

// ShopConfig contient les paramètres métier de la boutique
type ShopConfig struct {
	Name         string
	TVARate      decimal.Decimal
	FeaturedSize int
	PaymentPhone string
}

// Load charge le fichier .env (si présent) puis lit la configuration depuis l'environnement
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "ciment")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCYLLA_KEYSPACE", "ks_ciment")
	v.SetDefault("ELASTIC_INDEX", "products")
	v.SetDefault("MINIO_BUCKET", "ciment-products")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "noreply@ciment.bi")

	v.SetDefault("JWT_SECRET", "super_secret")
	v.SetDefault("SESSION_SECRET", "session_secret_dev")
	v.SetDefault("JWT_TTL_HOURS", 24)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("SHOP_NAME", "Ciment Burundi")
	v.SetDefault("TVA_RATE", "0.20")
	v.SetDefault("FEATURED_PRODUCTS", 8)
}

func fromViper(v *viper.Viper) *Config {
	tva, err := decimal.NewFromString(v.GetString("TVA_RATE"))
	if err != nil {
		log.Printf("⚠️ TVA_RATE invalide (%q), utilisation de 0.20", v.GetString("TVA_RATE"))
		tva = decimal.RequireFromString("0.20")
	}

	return &Config{
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			Port:        v.GetString("PORT"),
			BaseURL:     strings.TrimRight(v.GetString("BASE_URL"), "/"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Scylla: ScyllaConfig{
			Hosts:    splitList(v.GetString("SCYLLA_HOSTS")),
			Keyspace: v.GetString("SCYLLA_KEYSPACE"),
			Username: v.GetString("SCYLLA_USER"),
			Password: v.GetString("SCYLLA_PASSWORD"),
		},
		Elastic: ElasticConfig{
			URL:      v.GetString("ELASTIC_URL"),
			Username: v.GetString("ELASTIC_USER"),
			Password: v.GetString("ELASTIC_PASSWORD"),
			Index:    v.GetString("ELASTIC_INDEX"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			SessionSecret: v.GetString("SESSION_SECRET"),
			TokenTTLHours: v.GetInt("JWT_TTL_HOURS"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
			FacebookClientID:     v.GetString("FACEBOOK_CLIENT_ID"),
			FacebookClientSecret: v.GetString("FACEBOOK_CLIENT_SECRET"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Shop: ShopConfig{
			Name:         v.GetString("SHOP_NAME"),
			TVARate:      tva,
			FeaturedSize: v.GetInt("FEATURED_PRODUCTS"),
			PaymentPhone: v.GetString("SHOP_PAYMENT_PHONE"),
		},
	}
}

// IsProduction indique si le serveur tourne en production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN retourne la chaîne de connexion PostgreSQL
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
