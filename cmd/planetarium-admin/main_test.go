package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("BCRYPT_COST", "4")
	return path
}

func TestCreateAdminAndPromote(t *testing.T) {
	path := sqliteEnv(t)
	var out bytes.Buffer

	require.NoError(t, run([]string{"migrate"}, &out))
	assert.Contains(t, out.String(), "schema version 1")

	require.NoError(t, run([]string{"create-admin", "--email", "Root@Example.com", "--password", "supersecret"}, &out))
	assert.Contains(t, out.String(), "created admin root@example.com")

	err := run([]string{"create-admin", "--email", "root@example.com", "--password", "supersecret"}, &out)
	assert.ErrorContains(t, err, "already exists")

	db, err := database.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepo(db)
	_, err = users.Create(context.Background(), "plain@example.com", "supersecret", model.RoleUser, 4)
	require.NoError(t, err)

	require.NoError(t, run([]string{"promote", "--email", "plain@example.com"}, &out))
	u, err := users.GetByEmail(context.Background(), "plain@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	tokens := repository.NewTokenRepo(db)
	require.NoError(t, tokens.StoreRefresh(context.Background(), u.ID, "old", time.Now().Add(-time.Hour)))
	require.NoError(t, tokens.StoreRefresh(context.Background(), u.ID, "live", time.Now().Add(time.Hour)))
	out.Reset()
	require.NoError(t, run([]string{"purge-tokens"}, &out))
	assert.Equal(t, "purged 1 refresh tokens\n", out.String())
}

func TestRunRejectsBadInput(t *testing.T) {
	sqliteEnv(t)
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"bogus"}, &out))
	assert.ErrorContains(t, run([]string{"create-admin", "--password", "supersecret"}, &out), "--email")
	assert.ErrorContains(t, run([]string{"create-admin", "--email", "a@b.c", "--password", "short"}, &out), "--password")
}
