package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/chat"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
)

// GET /api/admin/conversations?room=&limit=
func (h *Handler) Conversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	convs, err := h.chat.Conversations(c.Request.Context(), c.Query("room"), limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs, "count": len(convs)})
}

// POST /api/admin/conversations/:room/:id/resolve
func (h *Handler) ResolveConversation(c *gin.Context) {
	err := h.chat.Resolve(c.Request.Context(), c.Param("room"), c.Param("id"))
	if errors.Is(err, chat.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation introuvable"})
		return
	}
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("room")+"/"+c.Param("id"), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Conversation marquée comme résolue"})
}
