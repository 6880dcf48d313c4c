package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/handlers/admin"
	"ciment_back_end/internal/handlers/invoice"
	"ciment_back_end/internal/handlers/product"
	"ciment_back_end/internal/handlers/user"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/utils"
)

// Deps regroupe les handlers et middlewares montés sur le routeur
type Deps struct {
	Auth     *middleware.Auth
	Limiter  *middleware.RateLimiter
	Sessions sessions.Store
	Audit    utils.AuditStore
	Users    middleware.UserLoader

	AuthHandler *handlers.AuthHandler
	Shop        *product.Handler
	Cart        *user.CartHandler
	Orders      *user.OrderHandler
	Invoices    *invoice.Handler
	Chat        *user.ChatHandler
	Admin       *admin.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.Session(d.Sessions), d.Auth.Optional())

	// Boutique
	api.GET("/home", d.Shop.Home)
	api.GET("/categories", d.Shop.Categories)
	api.GET("/categories/:slug/products", d.Shop.CategoryProducts)
	api.GET("/products", d.Shop.Products)
	api.GET("/products/search", d.Limiter.SearchRateLimit(), d.Shop.Search)
	api.GET("/products/:id/:slug", d.Shop.Detail)

	// Authentification
	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.Limiter.LoginRateLimit(), d.AuthHandler.Login)
	auth.GET("/me", d.Auth.Required(), d.AuthHandler.Me)
	auth.POST("/logout", d.Auth.Required(), d.AuthHandler.Logout)
	auth.GET("/:provider", d.AuthHandler.BeginOAuth)
	auth.GET("/:provider/callback", d.AuthHandler.OAuthCallback)

	// Panier (lié à la session, modifications réservées aux clients connectés)
	cart := api.Group("/cart")
	cart.GET("", d.Cart.Show)
	cart.POST("/add/:product_id", d.Auth.Required(), d.Limiter.CartRateLimit(), d.Cart.Add)
	cart.POST("/remove/:product_id", d.Auth.Required(), d.Cart.Remove)
	cart.DELETE("", d.Auth.Required(), d.Cart.Clear)

	// Commandes
	orders := api.Group("/orders", d.Auth.Required())
	orders.POST("", d.Orders.Create)
	orders.GET("", d.Orders.List)
	orders.GET("/:id", d.Orders.Detail)
	orders.GET("/:id/invoice", d.Invoices.HTML)
	orders.GET("/:id/invoice.pdf", d.Invoices.PDF)

	registerAdmin(api.Group("/admin", d.Auth.Required(), middleware.RequireStaff(d.Users)), d)

	// Chatbot
	r.GET("/ws/chatbot/:room", middleware.Session(d.Sessions), d.Auth.Optional(), d.Chat.Serve)
}

func registerAdmin(g *gin.RouterGroup, d Deps) {
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.AuditAction(d.Audit, action, resource)
	}

	g.GET("/dashboard", d.Admin.Dashboard)

	g.GET("/categories", d.Shop.AdminCategories)
	g.POST("/categories", audit(utils.ActionCategoryCreate, utils.ResourceCategory), d.Shop.CreateCategory)
	g.PUT("/categories/:id", audit(utils.ActionCategoryUpdate, utils.ResourceCategory), d.Shop.UpdateCategory)
	g.DELETE("/categories/:id", audit(utils.ActionCategoryDelete, utils.ResourceCategory), d.Shop.DeleteCategory)

	g.GET("/products", d.Shop.AdminProducts)
	g.GET("/products/:id", d.Shop.AdminProduct)
	g.POST("/products", audit(utils.ActionProductCreate, utils.ResourceProduct), d.Shop.CreateProduct)
	g.PUT("/products/:id", audit(utils.ActionProductUpdate, utils.ResourceProduct), d.Shop.UpdateProduct)
	g.DELETE("/products/:id", audit(utils.ActionProductDelete, utils.ResourceProduct), d.Shop.DeleteProduct)
	g.POST("/products/:id/image", audit(utils.ActionProductImage, utils.ResourceProduct), d.Shop.UploadImage)

	g.GET("/stock", d.Shop.StockLevels)
	g.GET("/stock/history", d.Shop.StockHistory)
	g.POST("/stock/:id", audit(utils.ActionStockUpdate, utils.ResourceStock), d.Shop.UpdateStock)
	g.GET("/stock/:id/history", d.Shop.StockHistory)

	g.GET("/orders", d.Admin.Orders)
	g.GET("/orders/:id", d.Admin.Order)
	g.PUT("/orders/:id", audit(utils.ActionOrderUpdate, utils.ResourceOrder), d.Admin.UpdateOrder)
	g.POST("/orders/:id/paid", audit(utils.ActionOrderPaid, utils.ResourceOrder), d.Admin.MarkPaid)

	g.GET("/users", d.Admin.Users)
	g.GET("/users/:id", d.Admin.User)
	g.POST("/users", audit(utils.ActionUserCreate, utils.ResourceUser), d.Admin.CreateUser)
	g.PUT("/users/:id", audit(utils.ActionUserUpdate, utils.ResourceUser), d.Admin.UpdateUser)
	g.DELETE("/users/:id", audit(utils.ActionUserDelete, utils.ResourceUser), d.Admin.DeleteUser)

	g.GET("/audit", d.Admin.GetAuditLogs)
	g.GET("/conversations", d.Admin.Conversations)
	g.POST("/conversations/:room/:id/resolve", audit(utils.ActionChatResolve, utils.ResourceConversation), d.Admin.ResolveConversation)
}
