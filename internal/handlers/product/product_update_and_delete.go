package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

func (h *Handler) AdminProducts(c *gin.Context) {
	page, err := h.catalog.AdminProducts(c.Request.Context(), handlers.PageParam(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminProduct(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	stock, err := services.CurrentStock(c.Request.Context(), h.db, id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p, "current_stock": stock})
}

// 🟢 Créer un produit
func (h *Handler) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, strconv.FormatUint(uint64(p.ID), 10), p)
	c.JSON(http.StatusCreated, p)
}

// 🟡 Modifier un produit
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("id"), p)
	c.JSON(http.StatusOK, p)
}

// 🔴 Supprimer un produit
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé avec succès"})
}
