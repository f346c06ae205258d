package repositories

import (
	"context"

	"blognest/app/models"
)

var (
	_ UserRepository    = (*BadgerUserRepository)(nil)
	_ PostRepository    = (*BadgerPostRepository)(nil)
	_ CommentRepository = (*BadgerCommentRepository)(nil)
)

// PostMutation edits a post in place and reports whether it changed. An
// unchanged post is not written back.
type PostMutation func(post *models.Post) (bool, error)

// CommentMutation edits a comment in place and reports whether it changed.
type CommentMutation func(comment *models.Comment) (bool, error)

// UserMutation edits a user in place and reports whether it changed.
type UserMutation func(user *models.User) (bool, error)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Mutate(ctx context.Context, id string, fn UserMutation) (*models.User, error)
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Mutate(ctx context.Context, id string, fn PostMutation) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q PostQuery) ([]*models.Post, int, error)
	CountValues(ctx context.Context, q PostQuery, field string) ([]models.CountedValue, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create stores a comment. A reply is appended to its parent's reply
	// log in the same write; a missing parent yields ErrNotFound.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Mutate(ctx context.Context, id string, fn CommentMutation) (*models.Comment, error)
	// Remove deletes a comment unless retain edits it and returns true, in
	// which case the edited comment is saved instead. It reports whether
	// the record was removed.
	Remove(ctx context.Context, id string, retain func(comment *models.Comment) bool) (*models.Comment, bool, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID string) (int, error)
	DeleteByPost(ctx context.Context, postID string) (int, error)
}
