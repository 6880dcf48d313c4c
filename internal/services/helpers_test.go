package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ciment_back_end/internal/database"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, cat models.Category, name, slug, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:       name,
		Slug:       slug,
		CategoryID: cat.ID,
		CementType: models.CementCPJ45,
		Price:      decimal.RequireFromString(price),
		Weight:     decimal.NewFromInt(50),
		Available:  true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, username string, staff bool) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", IsStaff: staff, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, e utils.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *recordingMailer) Sent() []utils.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]utils.Email(nil), m.sent...)
}

var errSMTPDown = errors.New("smtp indisponible")

type fakeIndexer struct {
	indexed map[uint]models.Product
	hits    []uint
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[uint]models.Product{}}
}

func (f *fakeIndexer) Index(_ context.Context, p models.Product) error {
	f.indexed[p.ID] = p
	return nil
}

func (f *fakeIndexer) Delete(_ context.Context, id uint) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, _ string, _ int) ([]uint, error) {
	return f.hits, f.err
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
