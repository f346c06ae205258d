package repositories

import (
	"context"

	"blognest/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	store *Store
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(store *Store) *BadgerPostRepository {
	return &BadgerPostRepository{store: store}
}

// Create stores a new post. A post without an id is assigned a fresh native
// one; a preset id is normalized and must not already exist.
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	id := NewID()
	if post.ID != "" {
		id = NormalizeID(post.ID)
	}

	return r.store.update(ctx, func(txn *badger.Txn) error {
		key := id.key(PostKeyPrefix)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicateKey
		}
		post.ID = id.String()
		return setEntity(txn, key, post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getEntity(txn, NormalizeID(id).key(PostKeyPrefix), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Mutate applies fn to the stored post inside a single transaction and
// returns the resulting post.
func (r *BadgerPostRepository) Mutate(ctx context.Context, id string, fn PostMutation) (*models.Post, error) {
	key := NormalizeID(id).key(PostKeyPrefix)
	var result *models.Post
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		var post models.Post
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}
		changed, err := fn(&post)
		if err != nil {
			return &callbackError{err}
		}
		result = &post
		if !changed {
			return nil
		}
		return setEntity(txn, key, &post)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a post by ID
func (r *BadgerPostRepository) Delete(ctx context.Context, id string) error {
	key := NormalizeID(id).key(PostKeyPrefix)
	return r.store.update(ctx, func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return txn.Delete(key)
	})
}

// Find returns the page of posts selected by q together with the number of
// posts matching before paging.
func (r *BadgerPostRepository) Find(ctx context.Context, q PostQuery) ([]*models.Post, int, error) {
	posts, err := r.match(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	SortPosts(posts, q.Sort)
	return Page(posts, q.Skip, q.Limit), len(posts), nil
}

// CountValues groups the posts selected by q by category or tag.
func (r *BadgerPostRepository) CountValues(ctx context.Context, q PostQuery, field string) ([]models.CountedValue, error) {
	posts, err := r.match(ctx, q)
	if err != nil {
		return nil, err
	}
	return CountValues(posts, field), nil
}

func (r *BadgerPostRepository) match(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return err
			}
			if q.Matches(&post) {
				posts = append(posts, &post)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
