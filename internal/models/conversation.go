package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Intentions détectables dans une conversation
const (
	IntentGreeting     = "greeting"
	IntentProductInfo  = "product_info"
	IntentOrderStatus  = "order_status"
	IntentDeliveryInfo = "delivery_info"
	IntentPaymentInfo  = "payment_info"
	IntentComplaint    = "complaint"
	IntentThanks       = "thanks"
	IntentGoodbye      = "goodbye"
	IntentOther        = "other"
)

var IntentLabels = map[string]string{
	IntentGreeting:     "Salutation",
	IntentProductInfo:  "Information sur le produit",
	IntentOrderStatus:  "Statut de commande",
	IntentDeliveryInfo: "Information de livraison",
	IntentPaymentInfo:  "Information de paiement",
	IntentComplaint:    "Réclamation",
	IntentThanks:       "Remerciement",
	IntentGoodbye:      "Au revoir",
	IntentOther:        "Autre",
}

const AnonymousUsername = "Anonyme"

// Conversation est un échange utilisateur/chatbot (stocké dans ScyllaDB)
type Conversation struct {
	ID               gocql.UUID        `json:"id"`
	RoomName         string            `json:"room_name"`
	UserID           *uint             `json:"user_id,omitempty"`
	Username         string            `json:"username"`
	SessionKey       string            `json:"session_key,omitempty"`
	Intent           string            `json:"intent"`
	UserMessage      string            `json:"user_message"`
	BotResponse      string            `json:"bot_response"`
	IsResolved       bool              `json:"is_resolved"`
	RequiresFollowup bool              `json:"requires_followup"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
