package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"blognest/app/models"
	"blognest/app/repositories"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordCost is the lowest bcrypt work factor accepted.
	MinPasswordCost = 12
	// MinPasswordLength applies to new and changed passwords.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest input bcrypt hashes.
	MaxPasswordBytes = 72
)

// UserService handles account registration, authentication and profiles
type UserService struct {
	users repositories.UserRepository
	cost  int
	now   func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService. Costs below MinPasswordCost are
// raised to it.
func NewUserService(users repositories.UserRepository, cost int) *UserService {
	if cost < MinPasswordCost {
		cost = MinPasswordCost
	}
	return &UserService{
		users: users,
		cost:  cost,
		now:   time.Now,
	}
}

// UserUpdate holds the profile fields a user may change. Nil fields are left
// untouched.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Username *string `json:"username"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

func checkPassword(field, password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return invalidField(field, "must be at least 6 characters")
	case len(password) > MaxPasswordBytes:
		return invalidField(field, "must be at most 72 bytes")
	}
	return nil
}

// CreateUser registers a new account with the default role.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (*models.PublicUser, error) {
	user := &models.User{
		Name:  strings.TrimSpace(name),
		Email: email,
	}
	user.BeforeCreate(s.now())
	if err := user.ValidateProfile(); err != nil {
		return nil, validationError(err)
	}
	if err := checkPassword("password", password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeErr(err, "user")
	}
	return user.Public(), nil
}

// AuthenticateUser verifies an email and password pair. Unknown emails and
// wrong passwords fail identically, and both pay for a hash comparison.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.PublicUser, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user.Public(), nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("blognest-placeholder"), s.cost)
	})
	return s.dummyHash
}

// GetUserByID returns the public profile of a user.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user.Public(), nil
}

// UpdateUser applies a profile update. Password, role and timestamps cannot
// be changed here.
func (s *UserService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*models.PublicUser, error) {
	user, err := s.users.Mutate(ctx, id, func(u *models.User) (bool, error) {
		if update.Name != nil {
			u.Name = strings.TrimSpace(*update.Name)
		}
		if update.Email != nil {
			u.Email = models.NormalizeEmail(*update.Email)
		}
		if update.Bio != nil {
			u.Bio = *update.Bio
		}
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Location != nil {
			u.Location = *update.Location
		}
		if update.Avatar != nil {
			u.Avatar = *update.Avatar
		}
		if err := u.ValidateProfile(); err != nil {
			return false, validationError(err)
		}
		u.UpdatedAt = s.now()
		return true, nil
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user.Public(), nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if err := checkPassword("newPassword", next); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}

	_, err = s.users.Mutate(ctx, id, func(u *models.User) (bool, error) {
		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)); err != nil {
			return false, ErrInvalidCredentials
		}
		u.Password = string(hash)
		u.UpdatedAt = s.now()
		return true, nil
	})
	return storeErr(err, "user")
}
