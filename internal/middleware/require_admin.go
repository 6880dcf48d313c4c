package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
)

// UserLoader relit le compte du porteur du jeton
type UserLoader interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// RequireStaff réserve la route aux membres du personnel et aux superutilisateurs.
// À placer après Auth.Required. Les droits sont relus en base à chaque requête :
// un compte rétrogradé, désactivé ou supprimé perd l'accès immédiatement.
func RequireStaff(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetUint("user_id")
		if id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		u, err := users.User(c.Request.Context(), id)
		if errors.Is(err, services.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
			return
		}
		if err != nil {
			logger.FromGin(c).Error("❌ Lecture du compte impossible", zap.Uint("user_id", id), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Compte désactivé"})
			return
		}

		c.Set("is_staff", u.IsStaff)
		c.Set("is_superuser", u.IsSuperuser)
		if !u.IsStaff && !u.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès réservé au personnel"})
			return
		}
		c.Next()
	}
}
