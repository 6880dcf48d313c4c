package user

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ciment_back_end/internal/chat"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/middleware"
)

const (
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
)

var roomPattern = regexp.MustCompile(`^[\w-]{1,100}$`)

// ChatHandler relie les connexions WebSocket au salon du chatbot
type ChatHandler struct {
	svc      *chat.Service
	upgrader websocket.Upgrader
}

func NewChatHandler(svc *chat.Service, allowedOrigins []string) *ChatHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &ChatHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

type incoming struct {
	Message string `json:"message"`
}

// GET /ws/chatbot/:room
func (h *ChatHandler) Serve(c *gin.Context) {
	room := c.Param("room")
	if !roomPattern.MatchString(room) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom de salon invalide"})
		return
	}

	var sender chat.Sender
	sender.SessionKey = middleware.SessionKey(c)
	if uid := c.GetUint("user_id"); uid != 0 {
		sender.UserID = &uid
		sender.Username = c.GetString("username")
	}
	log := logger.FromGin(c).With(zap.String("room", room))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	// la connexion survit à la requête HTTP, on ne garde pas son contexte
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, unsubscribe, err := h.svc.Layer().Subscribe(ctx, room)
	if err != nil {
		log.Error("❌ Abonnement au salon impossible", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "salon indisponible"),
			time.Now().Add(writeWait))
		return
	}
	defer unsubscribe()

	log.Info("💬 Connexion au chatbot", zap.String("user", sender.DisplayName()))

	done := make(chan struct{})
	go h.writeLoop(conn, messages, done, log)

	conn.SetReadLimit(8 * chat.MaxMessageLength)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in incoming
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("⚠️ Connexion chatbot interrompue", zap.Error(err))
			}
			break
		}
		if _, err := h.svc.Receive(ctx, room, sender, in.Message); err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
			log.Error("❌ Message de chat non traité", zap.Error(err))
		}
	}

	unsubscribe()
	<-done
}

// writeLoop est le seul à écrire sur la connexion
func (h *ChatHandler) writeLoop(conn *websocket.Conn, messages <-chan chat.Message, done chan<- struct{}, log *zap.Logger) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("❌ Erreur envoi WebSocket", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
