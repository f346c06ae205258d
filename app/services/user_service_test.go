package services

import (
	"fmt"
	"strings"
	"testing"

	"blognest/app/models"
	"blognest/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.users.CreateUser(ctx, "Ada Lovelace", "Ada@Example.com", "analytical")
	require.NoError(t, err)

	t.Run("create forces defaults", func(t *testing.T) {
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.False(t, user.IsVerified)
	})

	t.Run("password is hashed", func(t *testing.T) {
		stored, err := repositories.NewBadgerUserRepository(env.store).GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "analytical", stored.Password)
		assert.Contains(t, stored.Password, "$2a$12$")
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.CreateUser(ctx, "Other", "ada@example.com", "password")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("invalid registration", func(t *testing.T) {
		_, err := env.users.CreateUser(ctx, "Short", "short@example.com", "12345")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.users.CreateUser(ctx, "Bad", "not-an-email", "password")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.users.CreateUser(ctx, "  ", "blank@example.com", "password")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("password length limits", func(t *testing.T) {
		tests := []struct {
			name     string
			password string
			wantErr  bool
		}{
			{"too short", "12345", true},
			{"shortest", "123456", false},
			{"bcrypt limit", strings.Repeat("a", MaxPasswordBytes), false},
			{"over bcrypt limit", strings.Repeat("a", MaxPasswordBytes+8), true},
			{"multibyte over limit", strings.Repeat("é", 40), true},
		}

		for i, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				email := fmt.Sprintf("length%d@example.com", i)
				_, err := env.users.CreateUser(ctx, "Length", email, tt.password)
				if !tt.wantErr {
					assert.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, ErrValidation)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, "password")
			})
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		authed, err := env.users.AuthenticateUser(ctx, "ADA@example.com", "analytical")
		require.NoError(t, err)
		assert.Equal(t, user.ID, authed.ID)
	})

	t.Run("wrong password and unknown email fail the same way", func(t *testing.T) {
		_, wrong := env.users.AuthenticateUser(ctx, "ada@example.com", "wrong")
		_, unknown := env.users.AuthenticateUser(ctx, "nobody@example.com", "analytical")
		assert.ErrorIs(t, wrong, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
		assert.Equal(t, wrong.Error(), unknown.Error())
	})

	t.Run("update profile", func(t *testing.T) {
		bio := "First programmer"
		name := "Augusta Ada King"
		updated, err := env.users.UpdateUser(ctx, user.ID, UserUpdate{Name: &name, Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, bio, updated.Bio)
		assert.Equal(t, models.RoleUser, updated.Role)

		invalid := "nope"
		_, err = env.users.UpdateUser(ctx, user.ID, UserUpdate{Email: &invalid})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.users.UpdateUser(ctx, repositories.NewID().String(), UserUpdate{Bio: &bio})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("change password", func(t *testing.T) {
		err := env.users.ChangePassword(ctx, user.ID, "wrong", "newsecret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		err = env.users.ChangePassword(ctx, user.ID, "analytical", "123")
		assert.ErrorIs(t, err, ErrValidation)

		err = env.users.ChangePassword(ctx, user.ID, "analytical", strings.Repeat("x", 80))
		require.ErrorIs(t, err, ErrValidation)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "newPassword")

		require.NoError(t, env.users.ChangePassword(ctx, user.ID, "analytical", "newsecret"))

		_, err = env.users.AuthenticateUser(ctx, "ada@example.com", "analytical")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = env.users.AuthenticateUser(ctx, "ada@example.com", "newsecret")
		assert.NoError(t, err)
	})

	t.Run("get user", func(t *testing.T) {
		found, err := env.users.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, found.Email)

		_, err = env.users.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserServiceCostFloor(t *testing.T) {
	s := NewUserService(nil, 4)
	assert.Equal(t, MinPasswordCost, s.cost)
}
