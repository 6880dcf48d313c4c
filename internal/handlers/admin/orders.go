package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

// GET /api/admin/orders?status=&paid=&page=
func (h *Handler) Orders(c *gin.Context) {
	f := services.OrderFilter{Status: c.Query("status")}
	if paid, err := strconv.ParseBool(c.Query("paid")); err == nil {
		f.Paid = &paid
	}
	page, err := h.orders.AdminOrders(c.Request.Context(), f, handlers.PageParam(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Order(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Order(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/admin/orders/:id
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	var in services.OrderUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	order, err := h.orders.AdminUpdateOrder(c.Request.Context(), id, in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("id"), gin.H{"status": order.Status, "paid": order.Paid})
	c.JSON(http.StatusOK, order)
}

// POST /api/admin/orders/:id/paid
func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.MarkOrderPaid(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("id"), gin.H{"status": order.Status, "paid": order.Paid})
	c.JSON(http.StatusOK, order)
}
