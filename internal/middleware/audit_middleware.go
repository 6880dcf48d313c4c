package middleware

import (
	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/utils"
)

// AuditAction journalise l'action d'administration quand le handler a réussi.
// L'identifiant de la ressource est lu dans le paramètre :id.
func AuditAction(store utils.AuditStore, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if store == nil {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		resourceID := c.Param("id")
		if v, ok := c.Get("audit_resource_id"); ok {
			if id, ok := v.(string); ok {
				resourceID = id
			}
		}
		newValue, _ := c.Get("audit_new_value")
		utils.LogAction(c, store, action, resource, resourceID, newValue)
	}
}

// SetAuditTarget précise la ressource touchée quand elle n'est pas dans l'URL (création)
func SetAuditTarget(c *gin.Context, resourceID string, newValue any) {
	c.Set("audit_resource_id", resourceID)
	if newValue != nil {
		c.Set("audit_new_value", newValue)
	}
}
