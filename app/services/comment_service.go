package services

import (
	"context"
	"strings"
	"time"

	"blognest/app/models"
	"blognest/app/repositories"
)

// CommentService handles business logic for comment threads. Callers are
// expected to have checked that the acting user may edit or delete.
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	now         func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		now:         time.Now,
	}
}

// CommentInput is the data needed to create a comment or reply.
type CommentInput struct {
	PostID       string `json:"-"`
	AuthorID     string `json:"-"`
	Author       string `json:"-"`
	AuthorAvatar string `json:"-"`
	Content      string `json:"content"`
	ParentID     string `json:"parentId"`
}

// CommentView is a comment as seen by a particular viewer. Replies holds the
// direct replies of a top-level comment in a thread listing and is empty
// everywhere else; it replaces the stored id log in responses.
type CommentView struct {
	*models.Comment
	LikeCount int            `json:"likeCount"`
	IsLiked   bool           `json:"isLiked"`
	Replies   []*CommentView `json:"replies"`
}

func newCommentView(c *models.Comment, viewerID string) *CommentView {
	return &CommentView{
		Comment:   c,
		LikeCount: len(c.Likes),
		IsLiked:   c.HasLiked(viewerID),
		Replies:   []*CommentView{},
	}
}

// CreateComment adds a comment to a post. A reply must name a parent on the
// same post.
func (s *CommentService) CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, storeErr(err, "post")
	}

	comment := &models.Comment{
		PostID:       repositories.NormalizeID(in.PostID).String(),
		AuthorID:     in.AuthorID,
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Content:      strings.TrimSpace(in.Content),
	}
	if in.ParentID != "" {
		parent, err := s.commentRepo.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, storeErr(err, "parent comment")
		}
		if !repositories.Equal(parent.PostID, in.PostID) {
			return nil, invalidField("parentId", "belongs to a different post")
		}
		comment.ParentID = parent.ID
	}
	comment.BeforeCreate(s.now())

	if err := comment.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storeErr(err, "parent comment")
	}
	return comment, nil
}

// UpdateComment replaces the content of a comment.
func (s *CommentService) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	comment, err := s.commentRepo.Mutate(ctx, id, func(c *models.Comment) (bool, error) {
		c.Content = content
		c.UpdatedAt = s.now()
		if err := c.Validate(); err != nil {
			return false, validationError(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	return comment, nil
}

// DeleteComment removes a comment that has no replies. A comment with
// replies is kept with its content replaced by DeletedCommentContent. It
// reports whether the record was removed.
func (s *CommentService) DeleteComment(ctx context.Context, id string) (bool, error) {
	_, removed, err := s.commentRepo.Remove(ctx, id, func(c *models.Comment) bool {
		if len(c.Replies) == 0 {
			return false
		}
		c.Tombstone(s.now())
		return true
	})
	if err != nil {
		return false, storeErr(err, "comment")
	}
	return removed, nil
}

// GetCommentsByPostID returns the top-level comments of a post, newest
// first, each with its direct replies oldest first.
func (s *CommentService) GetCommentsByPostID(ctx context.Context, postID, viewerID string) ([]*CommentView, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "comments")
	}

	top := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.IsTopLevel() {
			top = append(top, c)
		}
	}
	repositories.SortComments(top, true)

	views := make([]*CommentView, 0, len(top))
	for _, c := range top {
		view := newCommentView(c, viewerID)
		view.Replies, err = s.GetReplies(ctx, c.ID, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetReplies returns the direct replies of a comment, oldest first.
func (s *CommentService) GetReplies(ctx context.Context, parentID, viewerID string) ([]*CommentView, error) {
	replies, err := s.commentRepo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, storeErr(err, "comments")
	}
	views := make([]*CommentView, len(replies))
	for i, c := range replies {
		views[i] = newCommentView(c, viewerID)
	}
	return views, nil
}

// LikeComment likes or unlikes a comment for userID.
func (s *CommentService) LikeComment(ctx context.Context, id, userID string) (*CommentView, error) {
	if userID == "" {
		return nil, invalidField("userId", "is required")
	}
	comment, err := s.commentRepo.Mutate(ctx, id, func(c *models.Comment) (bool, error) {
		c.ToggleLike(userID)
		return true, nil
	})
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	return newCommentView(comment, userID), nil
}

// GetCommentByID retrieves a comment by ID
func (s *CommentService) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	return comment, nil
}

// GetCommentCount returns the number of comments on a post, replies included.
func (s *CommentService) GetCommentCount(ctx context.Context, postID string) (int, error) {
	count, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return 0, storeErr(err, "comments")
	}
	return count, nil
}
