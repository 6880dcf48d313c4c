package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/chat"
	"ciment_back_end/internal/config"
	"ciment_back_end/internal/database"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/handlers/admin"
	"ciment_back_end/internal/handlers/invoice"
	"ciment_back_end/internal/handlers/product"
	"ciment_back_end/internal/handlers/user"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/routes"
	"ciment_back_end/internal/services"
	"ciment_back_end/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg)
	defer func() { _ = log.Sync() }()

	conns, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("❌ Connexion aux bases impossible", zap.Error(err))
	}
	defer conns.Close()

	if err := database.AutoMigrate(conns.DB); err != nil {
		log.Fatal("❌ Migration impossible", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	sessionStore := middleware.NewSessionStore(cfg.Auth.SessionSecret, cfg.IsProduction())
	initOAuthProviders(cfg, sessionStore, log)

	r := gin.New()
	r.Use(logger.Recovery(log), logger.GinMiddleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(r, buildDeps(cfg, conns, sessionStore, log))

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 Serveur Ciment lancé", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Arrêt inattendu du serveur", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Arrêt du serveur en cours...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("❌ Arrêt forcé du serveur", zap.Error(err))
	}
}

// buildDeps choisit pour chaque service l'implémentation réelle ou sa variante en mémoire
func buildDeps(cfg *config.Config, conns *database.Connections, sessionStore sessions.Store, log *zap.Logger) routes.Deps {
	var (
		kv        cache.Store            = cache.NewMemoryStore()
		cartStore cart.Store             = cart.NewMemoryStore()
		layer     chat.Layer             = chat.NewMemoryLayer()
		convs     chat.ConversationStore = chat.NewMemoryConversationStore()
		audit     utils.AuditStore       = utils.NewMemoryAuditStore()
		mailer    utils.Mailer           = utils.NewLogMailer(log)
		indexer   services.ProductIndexer
		images    services.ImageStore
	)
	if conns.Redis != nil {
		kv = cache.NewRedisStore(conns.Redis)
		cartStore = cart.NewRedisStore(conns.Redis)
		layer = chat.NewRedisLayer(conns.Redis, log)
	}
	if conns.Scylla != nil {
		convs = chat.NewScyllaConversationStore(conns.Scylla)
		audit = utils.NewScyllaAuditStore(conns.Scylla)
	}
	if conns.Elastic != nil {
		indexer = services.NewElasticIndexer(conns.Elastic, cfg.Elastic.Index)
	}
	if conns.MinIO != nil {
		images = services.NewMinIOImageStore(conns.MinIO, cfg.MinIO.Bucket, cfg.MinIO.Endpoint, cfg.MinIO.UseSSL)
	}
	if cfg.SMTP.Host != "" {
		mailer = utils.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Warn("⚠️ SMTP_HOST absent, les e-mails sont seulement journalisés")
	}

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	catalog := services.NewCatalog(conns.DB, indexer, images, log)
	users := services.NewUsers(conns.DB, log)
	orders := services.NewOrders(conns.DB, catalog, mailer, cfg.Shop.Name, log)
	chatSvc := chat.NewService(convs, layer, chat.EchoBot{}, log)
	categories := cache.NewCategoryCache(kv, catalog.Categories, log)

	return routes.Deps{
		Auth:     middleware.NewAuth(tokens, kv),
		Limiter:  middleware.NewRateLimiter(kv),
		Sessions: sessionStore,
		Audit:    audit,
		Users:    users,

		AuthHandler: handlers.NewAuthHandler(users, tokens, kv),
		Shop:        product.NewHandler(conns.DB, catalog, categories, cfg.Shop.FeaturedSize),
		Cart:        user.NewCartHandler(cartStore, catalog),
		Orders:      user.NewOrderHandler(orders, users, cartStore),
		Invoices:    invoice.NewHandler(orders, users, cfg.Shop, nil),
		Chat:        user.NewChatHandler(chatSvc, cfg.App.CORSOrigins),
		Admin:       admin.NewHandler(conns.DB, orders, users, chatSvc, audit),
	}
}

func initOAuthProviders(cfg *config.Config, store sessions.Store, log *zap.Logger) {
	gothic.Store = store

	var providers []goth.Provider
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			cfg.App.BaseURL+"/api/auth/google/callback",
			"email", "profile",
		))
		log.Info("✅ Google OAuth activé")
	}
	if cfg.OAuth.FacebookClientID != "" && cfg.OAuth.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			cfg.OAuth.FacebookClientID,
			cfg.OAuth.FacebookClientSecret,
			cfg.App.BaseURL+"/api/auth/facebook/callback",
			"email",
		))
		log.Info("✅ Facebook OAuth activé")
	}

	if len(providers) == 0 {
		log.Warn("⚠️ Aucun provider OAuth configuré")
		return
	}
	goth.UseProviders(providers...)
	log.Info("✅ OAuth initialisé", zap.Int("providers", len(providers)))
}
