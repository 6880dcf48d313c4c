package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciment_back_end/internal/cache"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
	"ciment_back_end/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer() *utils.TokenIssuer {
	return utils.NewTokenIssuer("secret-de-test", time.Hour)
}

func token(t *testing.T, tokens *utils.TokenIssuer, u models.User) string {
	t.Helper()
	s, err := tokens.Generate(u)
	require.NoError(t, err)
	return s
}

func do(r http.Handler, method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type userMap map[uint]*models.User

func (m userMap) User(_ context.Context, id uint) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return u, nil
}

func TestAuthRequiredAndStaff(t *testing.T) {
	tokens := newIssuer()
	auth := NewAuth(tokens, nil)

	client := models.User{ID: 3, Username: "client", IsActive: true}
	staff := models.User{ID: 4, Username: "magasinier", IsStaff: true, IsActive: true}
	root := models.User{ID: 5, Username: "root", IsSuperuser: true, IsActive: true}
	accounts := userMap{3: &client, 4: &staff, 5: &root}

	r := gin.New()
	r.GET("/moi", auth.Required(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id")})
	})
	r.GET("/admin", auth.Required(), RequireStaff(accounts), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := do(r, http.MethodGet, "/moi", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token manquant")

	w = do(r, http.MethodGet, "/moi", "n'importe-quoi", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token invalide")

	w = do(r, http.MethodGet, "/moi", token(t, tokens, client), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", token(t, tokens, client), nil).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", token(t, tokens, staff), nil).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", token(t, tokens, root), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "", nil).Code)
}

func TestRequireStaff_ReadsCurrentAccount(t *testing.T) {
	tokens := newIssuer()
	auth := NewAuth(tokens, nil)

	staff := models.User{ID: 4, Username: "magasinier", IsStaff: true, IsActive: true}
	accounts := userMap{4: &staff}

	r := gin.New()
	r.GET("/admin", auth.Required(), RequireStaff(accounts), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tok := token(t, tokens, staff)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", tok, nil).Code)

	staff.IsStaff = false
	w := do(r, http.MethodGet, "/admin", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Accès réservé au personnel")

	staff.IsStaff = true
	staff.IsActive = false
	w = do(r, http.MethodGet, "/admin", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Compte désactivé")

	delete(accounts, 4)
	w = do(r, http.MethodGet, "/admin", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Utilisateur introuvable")
}

func TestAuthOptional(t *testing.T) {
	tokens := newIssuer()
	auth := NewAuth(tokens, nil)

	r := gin.New()
	r.GET("/", auth.Optional(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id")})
	})

	assert.JSONEq(t, `{"user_id":0}`, do(r, http.MethodGet, "/", "", nil).Body.String())
	assert.JSONEq(t, `{"user_id":0}`, do(r, http.MethodGet, "/", "mauvais", nil).Body.String())
	assert.JSONEq(t, `{"user_id":9}`, do(r, http.MethodGet, "/", token(t, tokens, models.User{ID: 9}), nil).Body.String())
}

func TestAuthRevokedToken(t *testing.T) {
	tokens := newIssuer()
	store := cache.NewMemoryStore()
	auth := NewAuth(tokens, store)

	r := gin.New()
	r.GET("/moi", auth.Required(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tok := token(t, tokens, models.User{ID: 1})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/moi", tok, nil).Code)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	require.NoError(t, cache.RevokeToken(context.Background(), store, claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/moi", tok, nil).Code)
}

func TestSession_AssignsStableKey(t *testing.T) {
	r := gin.New()
	r.Use(Session(NewSessionStore("secret-de-session-32-octets-min", false)))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionKey(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	first := w.Body.String()
	require.NotEmpty(t, first)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first, w.Body.String())
}

func TestCartRateLimit(t *testing.T) {
	tokens := newIssuer()
	limiter := NewRateLimiter(cache.NewMemoryStore())

	r := gin.New()
	r.POST("/panier", NewAuth(tokens, nil).Required(), limiter.CartRateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tok := token(t, tokens, models.User{ID: 2})
	for i := 0; i < CartMaxAdds; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/panier", tok, nil).Code, "ajout %d", i+1)
	}
	w := do(r, http.MethodPost, "/panier", tok, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Trop d'ajouts au panier")

	other := token(t, tokens, models.User{ID: 3})
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/panier", other, nil).Code)
}

func TestLoginRateLimit(t *testing.T) {
	limiter := NewRateLimiter(cache.NewMemoryStore())

	r := gin.New()
	r.POST("/login", limiter.LoginRateLimit(), func(c *gin.Context) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&in)
		if in.Password != "bon" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})

	bad := []byte(`{"username":"Alice","password":"faux"}`)
	for i := 0; i < LoginMaxAttempts; i++ {
		require.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/login", "", bad).Code)
	}

	good := []byte(`{"username":"alice","password":"bon"}`)
	w := do(r, http.MethodPost, "/login", "", good)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Trop de tentatives")

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "", []byte(`{"username":"bob","password":"bon"}`)).Code)
}
