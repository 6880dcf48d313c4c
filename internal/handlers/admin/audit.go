package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/utils"
)

var auditResources = map[string]bool{
	utils.ResourceCategory:     true,
	utils.ResourceProduct:      true,
	utils.ResourceStock:        true,
	utils.ResourceOrder:        true,
	utils.ResourceUser:         true,
	utils.ResourceConversation: true,
}

// GetAuditLogs liste le journal d'une ressource, du plus récent au plus ancien
func (h *Handler) GetAuditLogs(c *gin.Context) {
	resource := c.Query("resource")
	if !auditResources[resource] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre resource invalide"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := h.audit.List(c.Request.Context(), resource, limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}
