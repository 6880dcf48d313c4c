package product

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/services"
)

const searchLimit = 20

// Handler sert le catalogue public et sa gestion par le personnel
type Handler struct {
	db         *gorm.DB
	catalog    *services.Catalog
	categories *cache.CategoryCache
	featured   int
}

func NewHandler(db *gorm.DB, catalog *services.Catalog, categories *cache.CategoryCache, featured int) *Handler {
	if featured <= 0 {
		featured = 8
	}
	return &Handler{db: db, catalog: catalog, categories: categories, featured: featured}
}

// =========================
// 🏠 ACCUEIL
// =========================
func (h *Handler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := h.catalog.FeaturedProducts(ctx, h.featured)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	cats, err := h.categories.Categories(ctx)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "categories": cats})
}

// GET /api/products?category=<slug>&cement_type=<type>
func (h *Handler) Products(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), services.ProductFilter{
		CategorySlug: c.Query("category"),
		CementType:   c.Query("cement_type"),
	})
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GET /api/products/:id/:slug
func (h *Handler) Detail(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.ProductByIDSlug(c.Request.Context(), id, c.Param("slug"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/products/search?q=
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit := searchLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	products, err := h.catalog.Search(c.Request.Context(), q, limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "products": products, "count": len(products)})
}
