package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/cart"
	"ciment_back_end/internal/chat"
	"ciment_back_end/internal/config"
	"ciment_back_end/internal/database"
	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/handlers/admin"
	"ciment_back_end/internal/handlers/invoice"
	"ciment_back_end/internal/handlers/product"
	"ciment_back_end/internal/handlers/user"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
	"ciment_back_end/internal/utils"
)

type testApp struct {
	router  *gin.Engine
	db      *gorm.DB
	tokens  *utils.TokenIssuer
	catalog *services.Catalog
	users   *services.Users
	chat    *chat.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	kv := cache.NewMemoryStore()
	carts := cart.NewMemoryStore()
	audit := utils.NewMemoryAuditStore()
	tokens := utils.NewTokenIssuer("secret-de-test", time.Hour)

	catalog := services.NewCatalog(db, nil, nil, log)
	users := services.NewUsers(db, log)
	orders := services.NewOrders(db, catalog, utils.NewLogMailer(log), "Ciment Test", log)
	chatSvc := chat.NewService(chat.NewMemoryConversationStore(), chat.NewMemoryLayer(), nil, log)
	shop := config.ShopConfig{Name: "Ciment Test", TVARate: decimal.RequireFromString("0.20")}
	fakePDF := func(context.Context, string) ([]byte, error) { return []byte("%PDF-1.4 test"), nil }

	r := gin.New()
	RegisterRoutes(r, Deps{
		Auth:     middleware.NewAuth(tokens, kv),
		Limiter:  middleware.NewRateLimiter(kv),
		Sessions: middleware.NewSessionStore("secret-de-session-pour-les-tests", false),
		Audit:    audit,
		Users:    users,

		AuthHandler: handlers.NewAuthHandler(users, tokens, kv),
		Shop:        product.NewHandler(db, catalog, cache.NewCategoryCache(kv, catalog.Categories, log), 8),
		Cart:        user.NewCartHandler(carts, catalog),
		Orders:      user.NewOrderHandler(orders, users, carts),
		Invoices:    invoice.NewHandler(orders, users, shop, fakePDF),
		Chat:        user.NewChatHandler(chatSvc, nil),
		Admin:       admin.NewHandler(db, orders, users, chatSvc, audit),
	})

	return &testApp{router: r, db: db, tokens: tokens, catalog: catalog, users: users, chat: chatSvc}
}

// client conserve les cookies de session entre les requêtes, comme un navigateur
type client struct {
	app     *testApp
	token   string
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T, u *models.User) *client {
	t.Helper()
	c := &client{app: a, cookies: map[string]*http.Cookie{}}
	if u != nil {
		tok, err := a.tokens.Generate(*u)
		require.NoError(t, err)
		c.token = tok
	}
	return c
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (a *testApp) seedUser(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	u, err := a.users.CreateUser(context.Background(), services.UserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "motdepasse-solide",
		IsStaff:  staff,
	})
	require.NoError(t, err)
	return u
}

func (a *testApp) seedProduct(t *testing.T, name, price string) *models.Product {
	t.Helper()
	ctx := context.Background()
	cat, err := a.catalog.CategoryBySlug(ctx, "ciment")
	if err != nil {
		cat, err = a.catalog.CreateCategory(ctx, services.CategoryInput{Name: "Ciment", Code: "ciment"})
		require.NoError(t, err)
	}
	p, err := a.catalog.CreateProduct(ctx, services.ProductInput{
		Name:       name,
		CategoryID: cat.ID,
		Price:      decimal.RequireFromString(price),
		Weight:     decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	return p
}

func TestPublicCatalog(t *testing.T) {
	app := newTestApp(t)
	p := app.seedProduct(t, "Ciment CPJ45 50kg", "25000")
	anon := app.client(t, nil)

	w := anon.do(http.MethodGet, "/api/home", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var home struct {
		Products   []models.Product  `json:"products"`
		Categories []models.Category `json:"categories"`
	}
	decode(t, w, &home)
	require.Len(t, home.Products, 1)
	assert.Len(t, home.Categories, 1)

	w = anon.do(http.MethodGet, fmt.Sprintf("/api/products/%d/%s", p.ID, p.Slug), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = anon.do(http.MethodGet, fmt.Sprintf("/api/products/%d/mauvais-slug", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = anon.do(http.MethodGet, "/api/categories/ciment/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/api/categories/inconnue/products", nil).Code)

	w = anon.do(http.MethodGet, "/api/products/search?q=cpj45", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var search struct {
		Count int `json:"count"`
	}
	decode(t, w, &search)
	assert.Equal(t, 1, search.Count)
}

func TestAdminAccess(t *testing.T) {
	app := newTestApp(t)
	customer := app.seedUser(t, "client", false)
	staff := app.seedUser(t, "magasinier", true)

	assert.Equal(t, http.StatusUnauthorized, app.client(t, nil).do(http.MethodGet, "/api/admin/dashboard", nil).Code)
	assert.Equal(t, http.StatusForbidden, app.client(t, customer).do(http.MethodGet, "/api/admin/dashboard", nil).Code)

	w := app.client(t, staff).do(http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var d services.Dashboard
	decode(t, w, &d)
	assert.Equal(t, int64(2), d.UserCount)
}

func TestAdminAccess_RevokedRightsApplyToIssuedTokens(t *testing.T) {
	app := newTestApp(t)
	staffUser := app.seedUser(t, "magasinier", true)
	staff := app.client(t, staffUser)

	require.Equal(t, http.StatusOK, staff.do(http.MethodGet, "/api/admin/users", nil).Code)

	require.NoError(t, app.db.Model(&models.User{}).Where("id = ?", staffUser.ID).
		Updates(map[string]any{"is_staff": false}).Error)
	assert.Equal(t, http.StatusForbidden, staff.do(http.MethodGet, "/api/admin/users", nil).Code)

	require.NoError(t, app.db.Model(&models.User{}).Where("id = ?", staffUser.ID).
		Updates(map[string]any{"is_staff": true, "is_active": false}).Error)
	assert.Equal(t, http.StatusUnauthorized, staff.do(http.MethodGet, "/api/admin/users", nil).Code)

	require.NoError(t, app.db.Delete(&models.User{}, staffUser.ID).Error)
	assert.Equal(t, http.StatusUnauthorized, staff.do(http.MethodGet, "/api/admin/dashboard", nil).Code)
}

func TestAdminProductValidation(t *testing.T) {
	app := newTestApp(t)
	staff := app.client(t, app.seedUser(t, "magasinier", true))

	w := staff.do(http.MethodPost, "/api/admin/categories", gin.H{"name": "Ciment", "code": "Ciment"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cat models.Category
	decode(t, w, &cat)
	assert.Equal(t, "ciment", cat.Slug)

	w = staff.do(http.MethodPost, "/api/admin/products", gin.H{
		"name": "CPJ45", "category_id": cat.ID, "price": "0", "weight": "-1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	assert.Equal(t, "Le prix doit être supérieur à zéro", verr.Fields["price"])
	assert.Equal(t, "Le poids doit être supérieur à zéro", verr.Fields["weight"])

	w = staff.do(http.MethodPost, "/api/admin/products", gin.H{
		"name": "CPJ45", "category_id": cat.ID, "price": "25000", "weight": "50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Product
	decode(t, w, &p)

	w = staff.do(http.MethodPost, fmt.Sprintf("/api/admin/stock/%d", p.ID), gin.H{"operation_type": "remove", "quantity": 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Stock insuffisant")

	w = staff.do(http.MethodPost, fmt.Sprintf("/api/admin/stock/%d", p.ID), gin.H{"operation_type": "add", "quantity": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.StockResult
	decode(t, w, &res)
	assert.Equal(t, 40, res.Stock)

	w = staff.do(http.MethodGet, "/api/admin/stock/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, staff.do(http.MethodGet, "/api/admin/stock/999/history", nil).Code)
}

func TestCartAndOrderFlow(t *testing.T) {
	app := newTestApp(t)
	cement := app.seedProduct(t, "Ciment CPJ45", "25000")
	mortar := app.seedProduct(t, "Mortier", "12000.50")
	buyer := app.seedUser(t, "acheteur", false)

	anon := app.client(t, nil)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", cement.ID), nil).Code)

	c := app.client(t, buyer)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", cement.ID), gin.H{"quantity": 2}).Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", mortar.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", mortar.ID), gin.H{"quantity": 150}).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/cart/add/9999", nil).Code)

	w := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var content struct {
		Count      int             `json:"count"`
		TotalPrice decimal.Decimal `json:"total_price"`
		Items      []cart.Item     `json:"items"`
	}
	decode(t, w, &content)
	assert.Equal(t, 3, content.Count)
	assert.True(t, content.TotalPrice.Equal(decimal.RequireFromString("62000.50")), content.TotalPrice.String())

	form := gin.H{
		"first_name": "Jean", "last_name": "Ndayishimiye", "email": "jean@example.com",
		"phone": "+257 79 12 34 56", "delivery_type": "livraison", "payment_method": "lumicash",
	}
	w = c.do(http.MethodPost, "/api/orders", form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Veuillez fournir une adresse de livraison")

	form["address"] = "Avenue de l'Université 12"
	form["city"] = "Bujumbura"
	w = c.do(http.MethodPost, "/api/orders", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("62000.50")))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	decode(t, c.do(http.MethodGet, "/api/cart", nil), &content)
	assert.Equal(t, 0, content.Count)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/orders", form).Code)

	w = c.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/invoice", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), fmt.Sprint(order.ID))

	w = c.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/invoice.pdf", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	stranger := app.client(t, app.seedUser(t, "curieux", false))
	assert.Equal(t, http.StatusForbidden, stranger.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/invoice", order.ID), nil).Code)

	staff := app.client(t, app.seedUser(t, "caissier", true))
	w = staff.do(http.MethodPut, fmt.Sprintf("/api/admin/orders/%d", order.ID), gin.H{
		"status": models.StatusPending, "delivery_type": "livraison", "payment_method": "lumicash", "paid": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, models.StatusPaid, order.Status)
}

func TestCart_DeletedProductLeavesTotals(t *testing.T) {
	app := newTestApp(t)
	kept := app.seedProduct(t, "Ciment CPJ45", "100")
	gone := app.seedProduct(t, "Ciment CPJ35", "50")
	c := app.client(t, app.seedUser(t, "acheteur", false))

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", kept.ID), nil).Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", gone.ID), nil).Code)
	require.NoError(t, app.catalog.DeleteProduct(context.Background(), gone.ID))

	w := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var content struct {
		Count      int             `json:"count"`
		TotalPrice decimal.Decimal `json:"total_price"`
		Items      []cart.Item     `json:"items"`
	}
	decode(t, w, &content)
	require.Len(t, content.Items, 1)
	assert.Equal(t, 1, content.Count)
	assert.True(t, content.TotalPrice.Equal(decimal.NewFromInt(100)), content.TotalPrice.String())

	w = c.do(http.MethodPost, "/api/orders", gin.H{
		"first_name": "Jean", "last_name": "Ndayishimiye", "email": "jean@example.com",
		"phone": "+257 79 12 34 56", "delivery_type": "retrait", "payment_method": "ecocash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.True(t, order.TotalAmount.Equal(content.TotalPrice), order.TotalAmount.String())
}

func TestAdminMarkPaid_RecordsAuditEntry(t *testing.T) {
	app := newTestApp(t)
	cement := app.seedProduct(t, "Ciment CPJ45", "25000")
	buyer := app.client(t, app.seedUser(t, "acheteur", false))
	staff := app.client(t, app.seedUser(t, "caissier", true))

	require.Equal(t, http.StatusOK, buyer.do(http.MethodPost, fmt.Sprintf("/api/cart/add/%d", cement.ID), nil).Code)
	w := buyer.do(http.MethodPost, "/api/orders", gin.H{
		"first_name": "Jean", "last_name": "Ndayishimiye", "email": "jean@example.com",
		"phone": "+257 79 12 34 56", "delivery_type": "retrait", "payment_method": "ihela",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)

	w = staff.do(http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/paid", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Eventually(t, func() bool {
		var res struct {
			Logs []models.AuditLog `json:"logs"`
		}
		w := staff.do(http.MethodGet, "/api/admin/audit?resource=order", nil)
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &res) != nil {
			return false
		}
		for _, l := range res.Logs {
			if l.Action == utils.ActionOrderPaid {
				return l.ResourceID == fmt.Sprint(order.ID) &&
					strings.Contains(l.NewValue, models.StatusPaid) &&
					strings.Contains(l.NewValue, `"paid":true`)
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", false)
	anon := app.client(t, nil)

	w := anon.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = anon.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice@example.com", "password": "motdepasse-solide"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	me := &client{app: app, token: resp.Token, cookies: map[string]*http.Cookie{}}
	assert.Equal(t, http.StatusOK, me.do(http.MethodGet, "/api/auth/me", nil).Code)
	assert.Equal(t, http.StatusOK, me.do(http.MethodPost, "/api/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, me.do(http.MethodGet, "/api/auth/me", nil).Code)
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)
	anon := app.client(t, nil)

	w := anon.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "motdepasse-solide", "is_staff": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		User models.User `json:"user"`
	}
	decode(t, w, &resp)
	assert.False(t, resp.User.IsStaff)

	w = anon.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "bob2", "email": "bob@example.com", "password": "motdepasse-solide",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cette adresse e-mail est déjà utilisée.")
}

func TestChatbotWebSocket(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chatbot/support"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{"message": "Bonjour"}))
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg chat.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Bonjour", msg.Message)
	assert.Equal(t, "Je suis un chatbot IA. Vous avez dit : Bonjour", msg.BotResponse)
	assert.Equal(t, models.AnonymousUsername, msg.User)

	convs, err := app.chat.Conversations(context.Background(), "support", 10)
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/chatbot/salon%20invalide", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
