package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
	"ciment_back_end/internal/utils"
)

// AuthHandler gère l'inscription, la connexion et la session JWT
type AuthHandler struct {
	users   *services.Users
	tokens  *utils.TokenIssuer
	revoked cache.Store
}

func NewAuthHandler(users *services.Users, tokens *utils.TokenIssuer, revoked cache.Store) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, revoked: revoked}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, u *models.User) {
	token, err := h.tokens.Generate(*u)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": u})
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BindError(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		Error(c, err)
		return
	}
	logger.FromGin(c).Info("✅ Nouveau client inscrit", zap.Uint("user_id", u.ID))
	h.respondWithToken(c, http.StatusCreated, u)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		BindError(c, err)
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		Error(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, u)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.User(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/auth/logout révoque le jeton courant jusqu'à son expiration
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if ok && h.revoked != nil && claims.ExpiresAt != nil {
		if err := cache.RevokeToken(c.Request.Context(), h.revoked, claims.ID, claims.ExpiresAt.Time); err != nil {
			Error(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}
