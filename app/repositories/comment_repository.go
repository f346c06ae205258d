package repositories

import (
	"context"

	"blognest/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments are indexed by post and by parent so threads can be listed with
// prefix scans.
type BadgerCommentRepository struct {
	store *Store
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(store *Store) *BadgerCommentRepository {
	return &BadgerCommentRepository{store: store}
}

func postIndexKey(postID, commentID ID) []byte {
	return concat([]byte(CommentPostIndexPrefix), postID.encode(), commentID.encode())
}

func parentIndexKey(parentID, commentID ID) []byte {
	return concat([]byte(CommentParentIndexPrefix), parentID.encode(), commentID.encode())
}

// Create stores a new comment and, for replies, appends it to the parent's
// reply log.
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	id := NewID()
	if comment.ID != "" {
		id = NormalizeID(comment.ID)
	}
	postID := NormalizeID(comment.PostID)

	return r.store.update(ctx, func(txn *badger.Txn) error {
		key := id.key(CommentKeyPrefix)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicateKey
		}
		comment.ID = id.String()

		if comment.ParentID != "" {
			parentID := NormalizeID(comment.ParentID)
			parentKey := parentID.key(CommentKeyPrefix)
			var parent models.Comment
			if err := getEntity(txn, parentKey, &parent); err != nil {
				return err
			}
			parent.AddReply(comment.ID)
			if err := setEntity(txn, parentKey, &parent); err != nil {
				return err
			}
			if err := txn.Set(parentIndexKey(parentID, id), nil); err != nil {
				return err
			}
		}

		if err := setEntity(txn, key, comment); err != nil {
			return err
		}
		return txn.Set(postIndexKey(postID, id), nil)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getEntity(txn, NormalizeID(id).key(CommentKeyPrefix), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Mutate applies fn to the stored comment inside a single transaction.
func (r *BadgerCommentRepository) Mutate(ctx context.Context, id string, fn CommentMutation) (*models.Comment, error) {
	key := NormalizeID(id).key(CommentKeyPrefix)
	var result *models.Comment
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		var comment models.Comment
		if err := getEntity(txn, key, &comment); err != nil {
			return err
		}
		changed, err := fn(&comment)
		if err != nil {
			return &callbackError{err}
		}
		result = &comment
		if !changed {
			return nil
		}
		return setEntity(txn, key, &comment)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes a comment unless retain keeps it.
func (r *BadgerCommentRepository) Remove(ctx context.Context, id string, retain func(*models.Comment) bool) (*models.Comment, bool, error) {
	commentID := NormalizeID(id)
	key := commentID.key(CommentKeyPrefix)
	var (
		result  *models.Comment
		removed bool
	)
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		var comment models.Comment
		if err := getEntity(txn, key, &comment); err != nil {
			return err
		}
		result = &comment
		if retain(&comment) {
			removed = false
			return setEntity(txn, key, &comment)
		}
		removed = true
		return deleteComment(txn, commentID, &comment)
	})
	if err != nil {
		return nil, false, err
	}
	return result, removed, nil
}

func deleteComment(txn *badger.Txn, id ID, comment *models.Comment) error {
	if err := txn.Delete(id.key(CommentKeyPrefix)); err != nil {
		return err
	}
	if err := txn.Delete(postIndexKey(NormalizeID(comment.PostID), id)); err != nil {
		return err
	}
	if comment.ParentID != "" {
		if err := txn.Delete(parentIndexKey(NormalizeID(comment.ParentID), id)); err != nil {
			return err
		}
	}
	return nil
}

// ListByPost returns every comment of a post, replies included, oldest first.
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return r.listIndexed(ctx, concat([]byte(CommentPostIndexPrefix), NormalizeID(postID).encode()))
}

// ListByParent returns the direct replies of a comment, oldest first.
func (r *BadgerCommentRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	return r.listIndexed(ctx, concat([]byte(CommentParentIndexPrefix), NormalizeID(parentID).encode()))
}

func (r *BadgerCommentRepository) listIndexed(ctx context.Context, prefix []byte) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return scanKeys(txn, prefix, func(key []byte) error {
			var comment models.Comment
			err := getEntity(txn, concat([]byte(CommentKeyPrefix), key[len(prefix):]), &comment)
			if err == ErrNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			comments = append(comments, &comment)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	SortComments(comments, false)
	return comments, nil
}

// CountByPost returns the number of comments on a post, replies included.
func (r *BadgerCommentRepository) CountByPost(ctx context.Context, postID string) (int, error) {
	prefix := concat([]byte(CommentPostIndexPrefix), NormalizeID(postID).encode())
	count := 0
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return scanKeys(txn, prefix, func([]byte) error {
			count++
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByPost removes every comment of a post and returns how many were
// removed.
func (r *BadgerCommentRepository) DeleteByPost(ctx context.Context, postID string) (int, error) {
	prefix := concat([]byte(CommentPostIndexPrefix), NormalizeID(postID).encode())
	var removed int
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		removed = 0
		var keys [][]byte
		if err := scanKeys(txn, prefix, func(key []byte) error {
			keys = append(keys, key)
			return nil
		}); err != nil {
			return err
		}
		for _, key := range keys {
			id, ok := decodeID(key[len(prefix):])
			if !ok {
				continue
			}
			var comment models.Comment
			err := getEntity(txn, id.key(CommentKeyPrefix), &comment)
			if err == ErrNotFound {
				if err := txn.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			if err := deleteComment(txn, id, &comment); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
