package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"ciment_back_end/internal/models"
)

// Longueur maximale d'un message utilisateur
const MaxMessageLength = 2000

var ErrEmptyMessage = errors.New("message vide")

// Bot calcule la réponse du chatbot à un message
type Bot interface {
	Process(ctx context.Context, message string) string
}

// EchoBot renvoie le message reçu en attendant un vrai moteur de réponse
type EchoBot struct{}

func (EchoBot) Process(_ context.Context, message string) string {
	return "Je suis un chatbot IA. Vous avez dit : " + message
}

// Sender identifie l'auteur d'un message
type Sender struct {
	UserID     *uint
	Username   string
	SessionKey string
}

func (s Sender) DisplayName() string {
	if s.UserID == nil || s.Username == "" {
		return models.AnonymousUsername
	}
	return s.Username
}

// Service enchaîne enregistrement, réponse du bot et diffusion dans le salon
type Service struct {
	store ConversationStore
	layer Layer
	bot   Bot
	log   *zap.Logger
}

func NewService(store ConversationStore, layer Layer, bot Bot, log *zap.Logger) *Service {
	if bot == nil {
		bot = EchoBot{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, layer: layer, bot: bot, log: log}
}

func (s *Service) Layer() Layer {
	return s.layer
}

// Receive traite un message entrant et le diffuse à tous les abonnés du salon
func (s *Service) Receive(ctx context.Context, room string, from Sender, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if r := []rune(text); len(r) > MaxMessageLength {
		text = string(r[:MaxMessageLength])
	}

	conv := &models.Conversation{
		RoomName:    room,
		UserID:      from.UserID,
		Username:    from.DisplayName(),
		SessionKey:  from.SessionKey,
		UserMessage: text,
		BotResponse: "",
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return Message{}, err
	}

	response := s.bot.Process(ctx, text)
	if err := s.store.SetBotResponse(ctx, room, conv.ID, response); err != nil {
		s.log.Warn("⚠️ Réponse du bot non enregistrée", zap.String("conversation_id", conv.ID.String()), zap.Error(err))
	}

	msg := Message{Message: text, BotResponse: response, User: from.DisplayName()}
	return msg, s.layer.Publish(ctx, room, msg)
}

// Conversations liste l'historique pour l'administration
func (s *Service) Conversations(ctx context.Context, room string, limit int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.List(ctx, room, limit)
}

func (s *Service) Resolve(ctx context.Context, room, id string) error {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return ErrConversationNotFound
	}
	return s.store.Resolve(ctx, room, uid)
}
