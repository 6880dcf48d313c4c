package models

import "time"

// StockEntry est un mouvement de stock signé (positif = entrée, négatif = sortie)
type StockEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	EntryDate time.Time `gorm:"not null;index" json:"entry_date"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action retourne "Ajout" ou "Retrait" selon le signe
func (s StockEntry) Action() string {
	if s.Quantity >= 0 {
		return "Ajout"
	}
	return "Retrait"
}

// Filtres de disponibilité pour l'écran de gestion des stocks
const (
	StockFilterInStock    = "in_stock"
	StockFilterOutOfStock = "out_of_stock"
)
