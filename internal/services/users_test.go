package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciment_back_end/internal/models"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	s := NewUsers(db, nil)
	ctx := context.Background()

	u, err := s.Register(ctx, UserInput{Username: "alice", Email: "Alice@Example.com", Password: "motdepasse", IsStaff: true})
	require.NoError(t, err)
	assert.False(t, u.IsStaff)
	assert.True(t, u.IsActive)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "motdepasse", u.PasswordHash)

	got, err := s.Authenticate(ctx, "ALICE", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLogin)

	_, err = s.Authenticate(ctx, "alice@example.com", "mauvais")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "inconnu", "motdepasse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	inactive := false
	_, err = s.UpdateUser(ctx, u.ID, UserInput{Username: "alice", Email: "alice@example.com", IsActive: &inactive})
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "alice", "motdepasse")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestCreateUser_Validation(t *testing.T) {
	db := newTestDB(t)
	s := NewUsers(db, nil)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, UserInput{Username: "bob", Email: "bob@example.com", Password: "motdepasse"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, UserInput{Username: "BOB", Email: "bob@example.com", Password: "court", Phone: "12"})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "phone")

	_, err = s.CreateUser(ctx, UserInput{Username: "carl", Email: "carl@example.com"})
	assert.Equal(t, "Ce champ est obligatoire.", fieldsOf(t, err)["password"])
}

func TestUpdateUser_KeepsPasswordWhenEmpty(t *testing.T) {
	db := newTestDB(t)
	s := NewUsers(db, nil)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, UserInput{Username: "dina", Email: "dina@example.com", Password: "motdepasse"})
	require.NoError(t, err)

	updated, err := s.UpdateUser(ctx, u.ID, UserInput{Username: "dina", Email: "dina@example.com", FirstName: "Dina", IsStaff: true})
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.True(t, updated.CanAdmin())

	_, err = s.UpdateUser(ctx, 999, UserInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	db := newTestDB(t)
	s := NewUsers(db, nil)
	ctx := context.Background()
	existing := seedUser(t, db, "eric", false)

	linked, err := s.FindOrCreateOAuthUser(ctx, OAuthProfile{Provider: "google", ProviderID: "g-1", Email: "ERIC@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	again, err := s.FindOrCreateOAuthUser(ctx, OAuthProfile{Provider: "google", ProviderID: "g-1", Email: "autre@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)

	created, err := s.FindOrCreateOAuthUser(ctx, OAuthProfile{Provider: "facebook", ProviderID: "f-9", Email: "eric@autre.org"})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, "eric1", created.Username)
	assert.Equal(t, "facebook", created.Provider)

	_, err = s.FindOrCreateOAuthUser(ctx, OAuthProfile{Provider: "facebook", ProviderID: "f-10"})
	assert.Contains(t, fieldsOf(t, err), "email")
}

func TestDeleteUsers(t *testing.T) {
	db := newTestDB(t)
	s := NewUsers(db, nil)
	ctx := context.Background()

	seedUser(t, db, "client1", false)
	seedUser(t, db, "client2", false)
	seedUser(t, db, "staff", true)
	root := models.User{Username: "root", Email: "root@example.com", IsSuperuser: true, IsActive: true}
	require.NoError(t, db.Create(&root).Error)

	res, err := s.DeleteUsers(ctx, UserDeleteFilter{ExcludeSuperusers: true, ExcludeStaff: true}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	assert.Len(t, res.Sample, 2)
	assert.Zero(t, res.Deleted)

	res, err = s.DeleteUsers(ctx, UserDeleteFilter{ExcludeSuperusers: true}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Count)
	assert.Equal(t, int64(3), res.Deleted)

	var left []models.User
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "root", left[0].Username)

	res, err = s.DeleteUsers(ctx, UserDeleteFilter{ExcludeSuperusers: true}, false)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
}

func TestLoadDashboard(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.Add(ctx, f.cement, 2, false))
	order, err := f.orders.PlaceOrder(ctx, f.user, validForm(), f.cart)
	require.NoError(t, err)
	_, err = f.orders.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)

	d, err := LoadDashboard(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.ProductCount)
	assert.Equal(t, int64(1), d.OrderCount)
	assert.Equal(t, int64(1), d.UserCount)
	assert.Zero(t, d.PendingOrders)
	assert.True(t, dec("50000").Equal(d.Revenue))
}
