package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

// OrderHandler gère le passage de commande et l'historique du client
type OrderHandler struct {
	orders *services.Orders
	users  *services.Users
	carts  cart.Store
}

func NewOrderHandler(orders *services.Orders, users *services.Users, carts cart.Store) *OrderHandler {
	return &OrderHandler{orders: orders, users: users, carts: carts}
}

// ✅ POST /api/orders transforme le panier de la session en commande
func (h *OrderHandler) Create(c *gin.Context) {
	var form services.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.User(ctx, c.GetUint("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	ct, err := cart.Load(ctx, h.carts, middleware.SessionKey(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}

	order, err := h.orders.PlaceOrder(ctx, *u, form, ct)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	logger.FromGin(c).Info("🛒 Commande passée",
		zap.Uint("order_id", order.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	c.Header("Location", "/api/orders/"+strconv.FormatUint(uint64(order.ID), 10))
	c.JSON(http.StatusCreated, order)
}

// ✅ Récupère toutes les commandes de l'utilisateur connecté
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.UserOrders(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GET /api/orders/:id
func (h *OrderHandler) Detail(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.User(ctx, c.GetUint("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	order, err := h.orders.OrderForUser(ctx, id, *u)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
