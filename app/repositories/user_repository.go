package repositories

import (
	"context"

	"blognest/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB. Email
// uniqueness is enforced by an index key holding the owning user's id.
type BadgerUserRepository struct {
	store *Store
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(store *Store) *BadgerUserRepository {
	return &BadgerUserRepository{store: store}
}

func emailIndexKey(email string) []byte {
	return []byte(UserEmailIndexPrefix + models.NormalizeEmail(email))
}

// Create stores a new user. It fails with ErrDuplicateKey when the email is
// already registered.
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	id := NewID()
	if user.ID != "" {
		id = NormalizeID(user.ID)
	}

	return r.store.update(ctx, func(txn *badger.Txn) error {
		indexKey := emailIndexKey(user.Email)
		taken, err := exists(txn, indexKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateKey
		}
		key := id.key(UserKeyPrefix)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicateKey
		}

		user.ID = id.String()
		if err := setEntity(txn, key, user); err != nil {
			return err
		}
		return txn.Set(indexKey, id.encode())
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getEntity(txn, NormalizeID(id).key(UserKeyPrefix), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *BadgerUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(emailIndexKey(email))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		encoded, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, ok := decodeID(encoded)
		if !ok {
			return ErrNotFound
		}
		return getEntity(txn, id.key(UserKeyPrefix), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Mutate applies fn to the stored user inside a single transaction. An email
// change moves the uniqueness index and fails with ErrDuplicateKey if the
// new address belongs to someone else.
func (r *BadgerUserRepository) Mutate(ctx context.Context, id string, fn UserMutation) (*models.User, error) {
	userID := NormalizeID(id)
	key := userID.key(UserKeyPrefix)
	var result *models.User
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		var user models.User
		if err := getEntity(txn, key, &user); err != nil {
			return err
		}
		oldEmail := models.NormalizeEmail(user.Email)
		changed, err := fn(&user)
		if err != nil {
			return &callbackError{err}
		}
		result = &user
		if !changed {
			return nil
		}

		user.Email = models.NormalizeEmail(user.Email)
		if user.Email != oldEmail {
			newIndex := emailIndexKey(user.Email)
			taken, err := exists(txn, newIndex)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateKey
			}
			if err := txn.Delete(emailIndexKey(oldEmail)); err != nil {
				return err
			}
			if err := txn.Set(newIndex, userID.encode()); err != nil {
				return err
			}
		}
		return setEntity(txn, key, &user)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
