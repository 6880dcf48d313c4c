package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

// 🔵 Lister les catégories (cache Redis)
func (h *Handler) Categories(c *gin.Context) {
	cats, err := h.categories.Categories(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// GET /api/categories/:slug/products
func (h *Handler) CategoryProducts(c *gin.Context) {
	ctx := c.Request.Context()
	cat, err := h.catalog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	products, err := h.catalog.ListProducts(ctx, services.ProductFilter{
		CategorySlug: cat.Slug,
		CementType:   c.Query("cement_type"),
	})
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "products": products})
}

// ----- Administration -----

func (h *Handler) AdminCategories(c *gin.Context) {
	page, err := h.catalog.CategoriesPage(c.Request.Context(), handlers.PageParam(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// 🟢 Créer une catégorie
func (h *Handler) CreateCategory(c *gin.Context) {
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	middleware.SetAuditTarget(c, strconv.FormatUint(uint64(cat.ID), 10), cat)
	c.JSON(http.StatusCreated, cat)
}

// 🟡 Modifier une catégorie
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	cat, err := h.catalog.UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	middleware.SetAuditTarget(c, c.Param("id"), cat)
	c.JSON(http.StatusOK, cat)
}

// 🔴 Supprimer une catégorie et ses produits
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		handlers.Error(c, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Catégorie supprimée avec succès"})
}
