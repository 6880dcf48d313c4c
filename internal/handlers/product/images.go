package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
)

const maxImageSize = 5 << 20

// =========================
// 🖼️ UPLOAD IMAGE PRODUIT
// =========================
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop volumineuse (5 Mo maximum)"})
		return
	}

	p, err := h.catalog.AttachImage(c.Request.Context(), id, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("id"), gin.H{"image": p.Image})
	c.JSON(http.StatusOK, gin.H{"message": "✅ Image uploadée avec succès", "product": p})
}
