package invoice

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ciment_back_end/internal/config"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
)

// Handler produit la facture d'une commande en HTML ou en PDF
type Handler struct {
	orders *services.Orders
	users  *services.Users
	shop   config.ShopConfig
	render services.PDFRenderer
}

// NewHandler crée le handler. render nil utilise Chrome headless.
func NewHandler(orders *services.Orders, users *services.Users, shop config.ShopConfig, render services.PDFRenderer) *Handler {
	if shop.TVARate.IsZero() {
		shop.TVARate = decimal.RequireFromString("0.20")
	}
	return &Handler{orders: orders, users: users, shop: shop, render: render}
}

func (h *Handler) load(c *gin.Context) (services.Invoice, bool) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return services.Invoice{}, false
	}
	ctx := c.Request.Context()
	u, err := h.users.User(ctx, c.GetUint("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return services.Invoice{}, false
	}

	var order *models.Order
	order, err = h.orders.OrderForUser(ctx, id, *u)
	if err != nil {
		handlers.Error(c, err)
		return services.Invoice{}, false
	}
	return services.NewInvoice(*order, h.shop.TVARate).WithPaymentQR(h.shop.Name, h.shop.PaymentPhone), true
}

// GET /api/orders/:id/invoice
func (h *Handler) HTML(c *gin.Context) {
	inv, ok := h.load(c)
	if !ok {
		return
	}
	html, err := inv.RenderHTML()
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GET /api/orders/:id/invoice.pdf
func (h *Handler) PDF(c *gin.Context) {
	inv, ok := h.load(c)
	if !ok {
		return
	}
	pdf, err := inv.RenderPDF(c.Request.Context(), h.render)
	if err != nil {
		logger.FromGin(c).Error("❌ Génération PDF impossible", zap.Uint("order_id", inv.Order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Impossible de générer la facture PDF"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="facture_%d.pdf"`, inv.Order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
