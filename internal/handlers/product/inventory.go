package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

// GET /api/admin/stock?category=<id>&availability=in_stock|out_of_stock
func (h *Handler) StockLevels(c *gin.Context) {
	var f services.StockFilter
	if cat, err := strconv.ParseUint(c.Query("category"), 10, 64); err == nil {
		f.CategoryID = uint(cat)
	}
	f.Availability = c.Query("availability")

	ctx := c.Request.Context()
	rows, err := services.StockLevels(ctx, h.db, f)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	cats, err := h.categories.Categories(ctx)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": rows, "categories": cats})
}

// POST /api/admin/stock/:id
func (h *Handler) UpdateStock(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	var form services.StockForm
	if err := c.ShouldBindJSON(&form); err != nil {
		handlers.BindError(c, err)
		return
	}

	res, err := services.ApplyStockOperation(c.Request.Context(), h.db, id, form)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	logger.FromGin(c).Info("📦 Stock mis à jour",
		zap.Uint("product_id", id),
		zap.Int("quantity", res.Entry.Quantity),
		zap.Int("stock", res.Stock),
	)
	middleware.SetAuditTarget(c, c.Param("id"), gin.H{"quantity": res.Entry.Quantity, "stock": res.Stock})
	c.JSON(http.StatusOK, res)
}

// GET /api/admin/stock/history et /api/admin/stock/:id/history
func (h *Handler) StockHistory(c *gin.Context) {
	var productID uint
	if c.Param("id") != "" {
		id, ok := handlers.ParamID(c, "id")
		if !ok {
			return
		}
		productID = id
	}

	page, err := services.StockHistory(c.Request.Context(), h.db, productID, handlers.PageParam(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
