package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/logger"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute

	CartMaxAdds    = 20
	SearchMaxCalls = 30
)

// RateLimiter regroupe les limitations par compteur à fenêtre fixe
type RateLimiter struct {
	store cache.Store
}

func NewRateLimiter(store cache.Store) *RateLimiter {
	return &RateLimiter{store: store}
}

// window autorise max requêtes par fenêtre pour la clé calculée par keyOf.
// Une clé vide laisse passer la requête.
func (l *RateLimiter) window(prefix string, max int64, period time.Duration, message string, keyOf func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := keyOf(c)
		if id == "" {
			c.Next()
			return
		}

		n, err := l.store.Incr(c.Request.Context(), prefix+id, period)
		if err != nil {
			// compteur indisponible : on ne bloque pas la boutique
			logger.FromGin(c).Warn("⚠️ Limiteur indisponible", zap.String("prefix", prefix), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		if n > max {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       message,
				"retry_after": int(period.Seconds()),
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max-n, 10))
		c.Next()
	}
}

// CartRateLimit limite les ajouts au panier (20 par minute et par visiteur)
func (l *RateLimiter) CartRateLimit() gin.HandlerFunc {
	return l.window("cart_add:", CartMaxAdds, time.Minute, "Trop d'ajouts au panier. Ralentissez un peu", func(c *gin.Context) string {
		if uid := c.GetUint("user_id"); uid != 0 {
			return strconv.FormatUint(uint64(uid), 10)
		}
		return SessionKey(c)
	})
}

// SearchRateLimit limite les recherches par IP
func (l *RateLimiter) SearchRateLimit() gin.HandlerFunc {
	return l.window("search_requests:", SearchMaxCalls, time.Minute, "Trop de recherches. Réessayez dans 1 minute", func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// LoginRateLimit bloque un identifiant après LoginMaxAttempts échecs consécutifs
func (l *RateLimiter) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		var input struct {
			Username string `json:"username"`
		}
		if json.Unmarshal(body, &input) != nil || strings.TrimSpace(input.Username) == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		login := strings.ToLower(strings.TrimSpace(input.Username))
		attemptsKey := "login_attempts:" + login
		cooldownKey := "login_cooldown:" + login

		if blocked, _ := l.store.Exists(ctx, cooldownKey); blocked {
			ttl, _ := l.store.TTL(ctx, cooldownKey)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			n, err := l.store.Incr(ctx, attemptsKey, LoginCooldown)
			if err != nil {
				logger.FromGin(c).Warn("⚠️ Compteur de connexion indisponible", zap.Error(err))
				return
			}
			if n >= LoginMaxAttempts {
				_ = l.store.Set(ctx, cooldownKey, "1", LoginCooldown)
				_ = l.store.Delete(ctx, attemptsKey)
				logger.FromGin(c).Warn("🚫 Connexion bloquée après échecs répétés", zap.String("login", login))
			}
		case http.StatusOK:
			_ = l.store.Delete(ctx, attemptsKey, cooldownKey)
		}
	}
}
