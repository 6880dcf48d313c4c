package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/database"
	"ciment_back_end/internal/models"
	"ciment_back_end/internal/services"
)

func seedUsers(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	users := services.NewUsers(db, nil)
	ctx := context.Background()
	for _, in := range []services.UserInput{
		{Username: "client1", Email: "c1@example.com", Password: "motdepasse1"},
		{Username: "client2", Email: "c2@example.com", Password: "motdepasse2"},
		{Username: "magasin", Email: "staff@example.com", Password: "motdepasse3", IsStaff: true},
		{Username: "admin", Email: "admin@example.com", Password: "motdepasse4", IsSuperuser: true, IsStaff: true},
	} {
		_, err := users.CreateUser(ctx, in)
		require.NoError(t, err)
	}
	return db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestDeleteUsers_DryRun(t *testing.T) {
	db := seedUsers(t)
	var out bytes.Buffer

	err := run(context.Background(), db, zap.NewNop(), "delete-users", []string{"--exclude-staff", "--dry-run"}, strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "2 utilisateur(s)")
	assert.Contains(t, out.String(), "client1")
	assert.NotContains(t, out.String(), "magasin")
	assert.Equal(t, int64(4), countUsers(t, db))
}

func TestDeleteUsers_RequiresConfirmation(t *testing.T) {
	db := seedUsers(t)
	var out bytes.Buffer

	err := run(context.Background(), db, zap.NewNop(), "delete-users", []string{"--exclude-superusers"}, strings.NewReader("non\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Opération annulée")
	assert.Equal(t, int64(4), countUsers(t, db))

	out.Reset()
	err = run(context.Background(), db, zap.NewNop(), "delete-users", []string{"--exclude-superusers"}, strings.NewReader("oui\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "3 utilisateur(s) supprimé(s)")
	assert.Equal(t, int64(1), countUsers(t, db))
}

func TestDeleteUsers_Force(t *testing.T) {
	db := seedUsers(t)
	var out bytes.Buffer

	err := run(context.Background(), db, zap.NewNop(), "delete-users", []string{"--exclude-staff", "--force"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countUsers(t, db))
}

func TestFixSlugsAndMigrate(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), db, zap.NewNop(), "migrate", nil, nil, &out))
	assert.Contains(t, out.String(), "Migrations appliquées")

	out.Reset()
	require.NoError(t, run(context.Background(), db, zap.NewNop(), "fix-slugs", nil, nil, &out))
	assert.Contains(t, out.String(), "0 slug(s)")
}

func TestUnknownCommand(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	var out bytes.Buffer
	err = run(context.Background(), db, zap.NewNop(), "inconnue", nil, nil, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "usage")
}
