package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/navarrio/authkit"
)

type fakeUserStore struct {
	users map[string]*auth.User
	err   error
}

func (s *fakeUserStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[identifier]; ok {
		return user, nil
	}
	return nil, goerrors.New("record not found", goerrors.CategoryNotFound)
}

func newFakeStore(t *testing.T, password string) (*fakeUserStore, *auth.User) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &auth.User{
		ID:           uuid.New(),
		Username:     "tester",
		Email:        "tester@example.com",
		FirstName:    "Test",
		LastName:     "Er",
		PasswordHash: hash,
	}

	store := &fakeUserStore{
		users: map[string]*auth.User{
			user.Email:    user,
			user.Username: user,
		},
	}

	return store, user
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	store, user := newFakeStore(t, "correct-horse")
	provider := auth.NewUserProvider(store)

	t.Run("valid credentials by email", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, user.Email, "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, user.Username, identity.Username())
		assert.Equal(t, user.Email, identity.Email())
		assert.Equal(t, user.FirstName, identity.FirstName())
		assert.Equal(t, user.LastName, identity.LastName())
	})

	t.Run("valid credentials by username", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, user.Username, "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("wrong password", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, user.Email, "wrong-password")
		assert.Nil(t, identity)
		assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "nobody@example.com", "correct-horse")
		assert.Nil(t, identity)
		assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
	})

	// unknown identifier and wrong password must be indistinguishable
	t.Run("uniform failure", func(t *testing.T) {
		_, errUnknown := provider.VerifyIdentity(ctx, "nobody@example.com", "correct-horse")
		_, errWrongPwd := provider.VerifyIdentity(ctx, user.Email, "wrong-password")
		assert.Equal(t, errUnknown, errWrongPwd)
	})

	t.Run("store failure keeps internal category", func(t *testing.T) {
		broken := &fakeUserStore{err: goerrors.New("connection refused", goerrors.CategoryInternal)}
		provider := auth.NewUserProvider(broken)

		identity, err := provider.VerifyIdentity(ctx, user.Email, "correct-horse")
		assert.Nil(t, identity)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	store, user := newFakeStore(t, "correct-horse")
	provider := auth.NewUserProvider(store)

	t.Run("found", func(t *testing.T) {
		identity, err := provider.FindIdentityByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("not found", func(t *testing.T) {
		identity, err := provider.FindIdentityByIdentifier(ctx, "missing@example.com")
		assert.Nil(t, identity)
		assert.Equal(t, auth.ErrIdentityNotFound, err)
	})
}
