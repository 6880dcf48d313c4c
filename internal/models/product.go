package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Types de ciment proposés à la vente
const (
	CementCPJ45  = "CPJ45"
	CementCPJ35  = "CPJ35"
	CementCPJ325 = "CPJ32.5"
	CementCPJ425 = "CPJ42.5"
	CementCPJ525 = "CPJ52.5"
	CementCPA    = "CPA"
	CementHTS    = "HTS"
	CementLHP    = "LHP"
)

// CementTypes garde l'ordre d'affichage des types de ciment
var CementTypes = []string{
	CementCPJ45, CementCPJ35, CementCPJ325, CementCPJ425,
	CementCPJ525, CementCPA, CementHTS, CementLHP,
}

var CementTypeLabels = map[string]string{
	CementCPJ45:  "Ciment Portland 45",
	CementCPJ35:  "Ciment Portland 35",
	CementCPJ325: "Ciment Portland 32.5",
	CementCPJ425: "Ciment Portland 42.5",
	CementCPJ525: "Ciment Portland 52.5",
	CementCPA:    "Ciment Portland Artificiel",
	CementHTS:    "Haut Fourneau",
	CementLHP:    "Laitier Haut Fourneau Moulu",
}

func IsCementType(t string) bool {
	_, ok := CementTypeLabels[t]
	return ok
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null;uniqueIndex:idx_product_name_category;index" json:"name"`
	Slug        string          `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CategoryID  uint            `gorm:"not null;uniqueIndex:idx_product_name_category" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	CementType  string          `gorm:"size:10" json:"cement_type"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Weight      decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"weight"`
	Image       string          `gorm:"size:255" json:"image,omitempty"`
	Available   bool            `gorm:"not null" json:"available"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Product) CementTypeLabel() string {
	if label, ok := CementTypeLabels[p.CementType]; ok {
		return label
	}
	return p.CementType
}

// ProductWithStock accompagne un produit de son stock calculé
type ProductWithStock struct {
	Product
	Stock int `json:"stock"`
}
