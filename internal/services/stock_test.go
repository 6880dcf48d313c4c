package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciment_back_end/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCurrentStock_ClampedAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, db, "Gris", "gris")
	p := seedProduct(t, db, cat, "Ciment", "ciment", "10")

	n, err := CurrentStock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, db.Create(&models.StockEntry{ProductID: p.ID, Quantity: -5, EntryDate: time.Now()}).Error)
	n, err = CurrentStock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordStockEntry_MergesSameDaySameNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, db, "Gris", "gris")
	p := seedProduct(t, db, cat, "Ciment", "ciment", "10")
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	first, err := RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 10, EntryDate: day, Notes: strPtr("livraison")})
	require.NoError(t, err)
	second, err := RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 5, EntryDate: day.Add(6 * time.Hour), Notes: strPtr("livraison")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 15, second.Quantity)

	// notes différentes, jour différent, ou sans notes : nouvelles entrées
	_, err = RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 1, EntryDate: day, Notes: strPtr("retour")})
	require.NoError(t, err)
	_, err = RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 1, EntryDate: day.AddDate(0, 0, 1), Notes: strPtr("livraison")})
	require.NoError(t, err)
	_, err = RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 1, EntryDate: day})
	require.NoError(t, err)
	_, err = RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 2, EntryDate: day})
	require.NoError(t, err)

	var count int64
	db.Model(&models.StockEntry{}).Count(&count)
	assert.Equal(t, int64(4), count)

	n, err := CurrentStock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestApplyStockOperation_AvailabilityFollowsStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, db, "Gris", "gris")
	p := seedProduct(t, db, cat, "Ciment", "ciment", "10")
	require.NoError(t, db.Model(&p).Update("available", false).Error)

	res, err := ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockAdd, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stock)
	assert.True(t, res.Product.Available)

	res, err = ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockRemove, Quantity: 3, Notes: "vente"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stock)
	assert.Equal(t, -3, res.Entry.Quantity)
	assert.Equal(t, "Retrait", res.Entry.Action())
	assert.False(t, res.Product.Available)

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.False(t, stored.Available)
}

func TestApplyStockOperation_CannotGoNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, db, "Gris", "gris")
	p := seedProduct(t, db, cat, "Ciment", "ciment", "10")

	_, err := ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockAdd, Quantity: 4})
	require.NoError(t, err)

	_, err = ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockRemove, Quantity: 5})
	assert.Equal(t, "Stock insuffisant. Quantité disponible : 4", fieldsOf(t, err)["quantity"])

	_, err = ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockAdd, Quantity: 0})
	assert.Equal(t, "La quantité doit être supérieure à zéro.", fieldsOf(t, err)["quantity"])

	future := time.Now().Add(48 * time.Hour)
	_, err = ApplyStockOperation(ctx, db, p.ID, StockForm{Operation: StockAdd, Quantity: 1, EntryDate: &future})
	assert.Contains(t, fieldsOf(t, err), "entry_date")

	_, err = ApplyStockOperation(ctx, db, 999, StockForm{Operation: StockAdd, Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := CurrentStock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestStockLevels_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gris := seedCategory(t, db, "Gris", "gris")
	blanc := seedCategory(t, db, "Blanc", "blanc")
	a := seedProduct(t, db, gris, "A", "a", "10")
	b := seedProduct(t, db, gris, "B", "b", "10")
	c := seedProduct(t, db, blanc, "C", "c", "10")

	_, err := ApplyStockOperation(ctx, db, a.ID, StockForm{Quantity: 7})
	require.NoError(t, err)
	_, err = ApplyStockOperation(ctx, db, c.ID, StockForm{Quantity: 2})
	require.NoError(t, err)
	_, err = ApplyStockOperation(ctx, db, c.ID, StockForm{Operation: StockRemove, Quantity: 2})
	require.NoError(t, err)

	all, err := StockLevels(ctx, db, StockFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].Name)
	assert.Equal(t, 7, all[0].Stock)
	require.NotNil(t, all[0].Category)
	assert.Equal(t, "Gris", all[0].Category.Name)

	in, err := StockLevels(ctx, db, StockFilter{Availability: models.StockFilterInStock})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, a.ID, in[0].ID)

	out, err := StockLevels(ctx, db, StockFilter{Availability: models.StockFilterOutOfStock})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	onlyGris, err := StockLevels(ctx, db, StockFilter{CategoryID: gris.ID, Availability: models.StockFilterOutOfStock})
	require.NoError(t, err)
	require.Len(t, onlyGris, 1)
	assert.Equal(t, b.ID, onlyGris[0].ID)
}

func TestStockHistory_Paginated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, db, "Gris", "gris")
	p := seedProduct(t, db, cat, "Ciment", "ciment", "10")

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := RecordStockEntry(ctx, db, models.StockEntry{ProductID: p.ID, Quantity: 1, EntryDate: start.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	page1, err := StockHistory(ctx, db, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page1.Items, HistoryPageSize)
	assert.Equal(t, int64(25), page1.Total)
	assert.Equal(t, 2, page1.Pages)
	assert.True(t, page1.HasNext())
	assert.True(t, page1.Items[0].EntryDate.After(page1.Items[1].EntryDate))
	require.NotNil(t, page1.Items[0].Product)

	page2, err := StockHistory(ctx, db, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 5)
	assert.False(t, page2.HasNext())

	_, err = StockHistory(ctx, db, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
