package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts d'une commande
const (
	StatusPending   = "en_attente"
	StatusPaid      = "payee"
	StatusPreparing = "en_preparation"
	StatusShipped   = "expediee"
	StatusDelivered = "livree"
	StatusCancelled = "annulee"
	StatusRefunded  = "remboursee"
)

const (
	DeliveryPickup = "retrait"
	DeliveryHome   = "livraison"
)

const (
	PaymentLumicash = "lumicash"
	PaymentEcocash  = "ecocash"
	PaymentIhela    = "ihela"
)

const defaultStatusColor = "secondary"

var OrderStatuses = []string{
	StatusPending, StatusPaid, StatusPreparing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

var StatusLabels = map[string]string{
	StatusPending:   "En attente de paiement",
	StatusPaid:      "Payée",
	StatusPreparing: "En préparation",
	StatusShipped:   "Expédiée",
	StatusDelivered: "Livrée",
	StatusCancelled: "Annulée",
	StatusRefunded:  "Remboursée",
}

var statusColors = map[string]string{
	StatusPending:   "warning",
	StatusPaid:      "info",
	StatusPreparing: "primary",
	StatusShipped:   "info",
	StatusDelivered: "success",
	StatusCancelled: "danger",
	StatusRefunded:  "secondary",
}

var DeliveryLabels = map[string]string{
	DeliveryPickup: "Retrait en magasin",
	DeliveryHome:   "Livraison à domicile",
}

var PaymentLabels = map[string]string{
	PaymentLumicash: "Lumicash",
	PaymentEcocash:  "EcoCash",
	PaymentIhela:    "Ihela",
}

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FirstName     string          `gorm:"size:50;not null" json:"first_name"`
	LastName      string          `gorm:"size:50;not null" json:"last_name"`
	Email         string          `gorm:"size:254;not null" json:"email"`
	Phone         string          `gorm:"size:20;not null" json:"phone"`
	DeliveryType  string          `gorm:"size:20;not null" json:"delivery_type"`
	Address       *string         `gorm:"size:250" json:"address,omitempty"`
	PostalCode    *string         `gorm:"size:20" json:"postal_code,omitempty"`
	City          *string         `gorm:"size:100" json:"city,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	PaymentMethod string          `gorm:"size:20;not null" json:"payment_method"`
	Paid          bool            `gorm:"not null" json:"paid"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Items         []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalCost recalcule le total à partir des lignes de la commande
func (o Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

// StatusColor retourne la classe d'affichage associée au statut
func (o Order) StatusColor() string {
	if color, ok := statusColors[o.Status]; ok {
		return color
	}
	return defaultStatusColor
}

func (o Order) StatusLabel() string {
	return StatusLabels[o.Status]
}

func IsOrderStatus(s string) bool {
	_, ok := StatusLabels[s]
	return ok
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   *uint           `gorm:"index" json:"product_id"`
	Product     *Product        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ProductName string          `gorm:"size:200" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
