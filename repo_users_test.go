package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/navarrio/authkit"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, auth.ApplyMigrations(context.Background(), db))

	return db
}

func seedUser(t *testing.T, repo auth.Users, username, email string) *auth.User {
	t.Helper()

	user, err := repo.Register(context.Background(), &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: auth.RandomPasswordHash(),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func TestUsersRegisterAssignsID(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	user := seedUser(t, repo, "alpha", "alpha@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(context.Background(), "alpha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "alpha", found.Username)
}

func TestUsersGetByIdentifier(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	user := seedUser(t, repo, "beta", "beta@example.com")

	t.Run("by id", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("by email", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, "beta@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, "beta")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := repo.GetByIdentifier(ctx, "missing@example.com")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})
}

// misses carry the not-found category the rest of the package branches on,
// a lookup miss must never read as an infrastructure fault
func TestUsersLookupMissIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	_, err := repo.GetByEmail(ctx, "ghost@example.com")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))

	_, err = repo.GetByUsername(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))

	_, err = repo.GetByIdentifier(ctx, "ghost@example.com")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))

	_, err = repo.GetByEmail(ctx, "")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersGetByIdentifierEmailPrecedence(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	// one account's username equals another account's email address
	byEmail := seedUser(t, repo, "gamma", "shared@example.com")
	byUsername := seedUser(t, repo, "shared@example.com", "delta@example.com")

	found, err := repo.GetByIdentifier(ctx, "shared@example.com")
	require.NoError(t, err)

	assert.Equal(t, byEmail.ID, found.ID)
	assert.NotEqual(t, byUsername.ID, found.ID)
}

func TestUsersUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	seedUser(t, repo, "epsilon", "epsilon@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Register(ctx, &auth.User{
			Username:     "zeta",
			Email:        "epsilon@example.com",
			PasswordHash: auth.RandomPasswordHash(),
		})
		require.Error(t, err)
		assert.True(t, auth.IsUniqueViolation(err))
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Register(ctx, &auth.User{
			Username:     "epsilon",
			Email:        "eta@example.com",
			PasswordHash: auth.RandomPasswordHash(),
		})
		require.Error(t, err)
		assert.True(t, auth.IsUniqueViolation(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, auth.IsUniqueViolation(nil))
	assert.False(t, auth.IsUniqueViolation(fmt.Errorf("some other error")))
	assert.True(t, auth.IsUniqueViolation(fmt.Errorf("UNIQUE constraint failed: users.email")))
	assert.True(t, auth.IsUniqueViolation(fmt.Errorf(`duplicate key value violates unique constraint "idx_users_email"`)))
}
