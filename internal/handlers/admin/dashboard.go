package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ciment_back_end/internal/chat"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/services"
	"ciment_back_end/internal/utils"
)

// Handler regroupe les écrans d'administration hors catalogue
type Handler struct {
	db     *gorm.DB
	orders *services.Orders
	users  *services.Users
	chat   *chat.Service
	audit  utils.AuditStore
}

func NewHandler(db *gorm.DB, orders *services.Orders, users *services.Users, chatSvc *chat.Service, audit utils.AuditStore) *Handler {
	return &Handler{db: db, orders: orders, users: users, chat: chatSvc, audit: audit}
}

// GET /api/admin/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := services.LoadDashboard(c.Request.Context(), h.db)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
