package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/services"
)

// Error traduit une erreur de service en réponse JSON
func Error(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "fields": verr.Fields})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ressource introuvable"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
	case errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Votre panier est vide"})
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "fields": gin.H{"quantity": "La quantité doit être comprise entre 1 et 100"}})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
	case errors.Is(err, services.ErrInactiveUser):
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce compte est désactivé"})
	case errors.Is(err, services.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Le stockage des images n'est pas configuré"})
	default:
		logger.FromGin(c).Error("❌ Erreur interne", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne du serveur"})
	}
}

// BindError répond 400 quand le corps de la requête est illisible
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "details": err.Error()})
}

// ParamID lit un identifiant numérique dans l'URL, 404 sinon
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ressource introuvable"})
		return 0, false
	}
	return uint(id), true
}

// PageParam lit ?page=, 1 par défaut
func PageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
