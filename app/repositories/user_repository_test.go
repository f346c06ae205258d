package repositories

import (
	"context"
	"testing"
	"time"

	"blognest/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(email string) *models.User {
	u := &models.User{Name: "Test User", Email: email, Password: "hash"}
	u.BeforeCreate(time.Now())
	return u
}

func TestUserRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := NewBadgerUserRepository(store)
	ctx := context.Background()

	t.Run("create and get user", func(t *testing.T) {
		user := newTestUser("ada@example.com")
		require.NoError(t, repo.Create(ctx, user))

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", byID.Email)

		byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newTestUser("grace@example.com")))
		assert.ErrorIs(t, repo.Create(ctx, newTestUser("Grace@Example.com")), ErrDuplicateKey)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("email change moves index", func(t *testing.T) {
		user := newTestUser("old@example.com")
		require.NoError(t, repo.Create(ctx, user))

		_, err := repo.Mutate(ctx, user.ID, func(u *models.User) (bool, error) {
			u.Email = "New@example.com"
			return true, nil
		})
		require.NoError(t, err)

		_, err = repo.GetByEmail(ctx, "old@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		moved, err := repo.GetByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, moved.ID)

		require.NoError(t, repo.Create(ctx, newTestUser("old@example.com")))
	})

	t.Run("email change to a taken address", func(t *testing.T) {
		a := newTestUser("a@example.com")
		b := newTestUser("b@example.com")
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		_, err := repo.Mutate(ctx, b.ID, func(u *models.User) (bool, error) {
			u.Email = "a@example.com"
			return true, nil
		})
		assert.ErrorIs(t, err, ErrDuplicateKey)

		stored, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "b@example.com", stored.Email)
	})
}
