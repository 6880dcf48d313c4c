package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/services"
)

// withProvider expose le fournisseur de la route à gothic via ?provider=
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return false
	}
	if _, err := goth.GetProvider(provider); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider inconnu"})
		return false
	}
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

// GET /api/auth/:provider
func (h *AuthHandler) BeginOAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if !withProvider(c) {
		return
	}

	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		logger.FromGin(c).Warn("❌ Échec de l'authentification OAuth", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentification refusée par le fournisseur"})
		return
	}

	u, err := h.users.FindOrCreateOAuthUser(c.Request.Context(), services.OAuthProfile{
		Provider:   gu.Provider,
		ProviderID: gu.UserID,
		Email:      gu.Email,
		FirstName:  gu.FirstName,
		LastName:   gu.LastName,
		NickName:   gu.NickName,
	})
	if err != nil {
		Error(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, u)
}
