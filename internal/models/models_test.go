package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_TotalCost(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Price: decimal.RequireFromString("25000.00"), Quantity: 4},
		{Price: decimal.RequireFromString("31500.50"), Quantity: 2},
	}}

	assert.True(t, decimal.RequireFromString("163001").Equal(order.TotalCost()))
	assert.True(t, Order{}.TotalCost().IsZero())
}

func TestOrder_StatusColor(t *testing.T) {
	cases := map[string]string{
		StatusPending:   "warning",
		StatusPaid:      "info",
		StatusPreparing: "primary",
		StatusShipped:   "info",
		StatusDelivered: "success",
		StatusCancelled: "danger",
		StatusRefunded:  "secondary",
		"inconnu":       "secondary",
	}
	for status, color := range cases {
		t.Run(status, func(t *testing.T) {
			assert.Equal(t, color, Order{Status: status}.StatusColor())
		})
	}
}

func TestCementTypes(t *testing.T) {
	assert.Len(t, CementTypes, 8)
	for _, ct := range CementTypes {
		assert.True(t, IsCementType(ct), ct)
	}
	assert.False(t, IsCementType("CPJ99"))
	assert.Equal(t, "Haut Fourneau", Product{CementType: CementHTS}.CementTypeLabel())
}

func TestUser_CanAdmin(t *testing.T) {
	assert.False(t, User{}.CanAdmin())
	assert.True(t, User{IsStaff: true}.CanAdmin())
	assert.True(t, User{IsSuperuser: true}.CanAdmin())
}

func TestStockEntry_Action(t *testing.T) {
	assert.Equal(t, "Ajout", StockEntry{Quantity: 10}.Action())
	assert.Equal(t, "Retrait", StockEntry{Quantity: -3}.Action())
}
