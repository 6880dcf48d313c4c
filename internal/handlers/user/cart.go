package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

// CartHandler expose le panier de la session
type CartHandler struct {
	store   cart.Store
	catalog *services.Catalog
}

func NewCartHandler(store cart.Store, catalog *services.Catalog) *CartHandler {
	return &CartHandler{store: store, catalog: catalog}
}

type addRequest struct {
	Quantity int  `json:"quantity"`
	Override bool `json:"override"`
}

func (h *CartHandler) load(c *gin.Context) (*cart.Cart, bool) {
	ct, err := cart.Load(c.Request.Context(), h.store, middleware.SessionKey(c))
	if err != nil {
		handlers.Error(c, err)
		return nil, false
	}
	return ct, true
}

func (h *CartHandler) respond(c *gin.Context, ct *cart.Cart) {
	items, err := ct.Items(c.Request.Context(), h.catalog)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"count":       cart.Count(items),
		"total_price": cart.Total(items),
	})
}

// GET /api/cart
func (h *CartHandler) Show(c *gin.Context) {
	ct, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, ct)
}

// 🟢 POST /api/cart/add/:product_id
func (h *CartHandler) Add(c *gin.Context) {
	id, ok := handlers.ParamID(c, "product_id")
	if !ok {
		return
	}
	in := addRequest{Quantity: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			handlers.BindError(c, err)
			return
		}
	}

	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	ct, ok := h.load(c)
	if !ok {
		return
	}
	if err := ct.Add(c.Request.Context(), *p, in.Quantity, in.Override); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, ct)
}

// 🔴 POST /api/cart/remove/:product_id
func (h *CartHandler) Remove(c *gin.Context) {
	id, ok := handlers.ParamID(c, "product_id")
	if !ok {
		return
	}
	ct, ok := h.load(c)
	if !ok {
		return
	}
	if err := ct.Remove(c.Request.Context(), id); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, ct)
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	ct, ok := h.load(c)
	if !ok {
		return
	}
	if err := ct.Clear(c.Request.Context()); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, ct)
}
