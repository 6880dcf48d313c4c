package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/utils"
)

const claimsKey = "claims"

// Auth vérifie les jetons Bearer et place l'identité dans le contexte gin
type Auth struct {
	tokens  *utils.TokenIssuer
	revoked cache.Store
}

// NewAuth crée le middleware. revoked peut être nil si la déconnexion
// côté serveur n'est pas gérée.
func NewAuth(tokens *utils.TokenIssuer, revoked cache.Store) *Auth {
	return &Auth{tokens: tokens, revoked: revoked}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (a *Auth) authenticate(c *gin.Context, token string) bool {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		logger.FromGin(c).Debug("❌ Jeton refusé", zap.Error(err))
		return false
	}
	if a.revoked != nil {
		revoked, err := cache.IsTokenRevoked(c.Request.Context(), a.revoked, claims.ID)
		if err != nil {
			logger.FromGin(c).Warn("⚠️ Vérification de révocation impossible", zap.Error(err))
		}
		if revoked {
			return false
		}
	}

	c.Set(claimsKey, claims)
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("email", claims.Email)
	c.Set("is_staff", claims.IsStaff)
	c.Set("is_superuser", claims.IsSuperuser)
	return true
}

// Required refuse la requête (401) sans jeton valide
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}
		if !a.authenticate(c, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}
		c.Next()
	}
}

// Optional renseigne l'identité si un jeton valide est présent, sans jamais bloquer
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			a.authenticate(c, token)
		}
		c.Next()
	}
}

// Claims retourne les claims du jeton courant
func Claims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
