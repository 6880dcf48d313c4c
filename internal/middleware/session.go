package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"ciment_back_end/internal/logger"
)

const (
	SessionName       = "ciment_session"
	sessionKeyField   = "key"
	sessionContextKey = "session_key"
)

// NewSessionStore crée le magasin de cookies signés partagé par le panier et gothic
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
	}
	return store
}

// Session garantit que chaque visiteur possède un identifiant de session,
// qui sert de clé à son panier
func Session(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// cookie illisible (secret changé) : on repart d'une session neuve
			logger.FromGin(c).Debug("🍪 Cookie de session invalide", zap.Error(err))
		}

		key, _ := sess.Values[sessionKeyField].(string)
		if key == "" {
			key = uuid.NewString()
			sess.Values[sessionKeyField] = key
			if err := sess.Save(c.Request, c.Writer); err != nil {
				logger.FromGin(c).Error("❌ Enregistrement de la session impossible", zap.Error(err))
			}
		}

		c.Set(sessionContextKey, key)
		c.Next()
	}
}

// SessionKey retourne l'identifiant de session posé par Session
func SessionKey(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
