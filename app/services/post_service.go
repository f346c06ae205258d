package services

import (
	"context"
	"strings"
	"time"

	"blognest/app/models"
	"blognest/app/repositories"

	"github.com/rs/zerolog"
)

const (
	DefaultPage         = 1
	DefaultPageSize     = 10
	MaxPageSize         = 100
	DefaultPopularLimit = 5
	MaxPopularLimit     = 20
	DefaultRelatedLimit = 3
)

// PostIndex is an external full-text index over posts. Index updates are
// best effort; a failed search makes the service fall back to matching in
// the store.
type PostIndex interface {
	IndexPost(post *models.Post)
	RemovePost(id string)
	SearchPosts(ctx context.Context, text string) ([]string, error)
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	index       PostIndex
	log         zerolog.Logger
	now         func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		log:         zerolog.Nop(),
		now:         time.Now,
	}
}

// WithIndex attaches a search index.
func (s *PostService) WithIndex(index PostIndex) *PostService {
	s.index = index
	return s
}

// WithLogger sets the logger used for best-effort side effects.
func (s *PostService) WithLogger(log zerolog.Logger) *PostService {
	s.log = log
	return s
}

// PostInput is the data needed to create a post.
type PostInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Status         string   `json:"status"`
	Image          string   `json:"image"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
	AuthorID       string   `json:"-"`
	Author         string   `json:"-"`
}

// PostUpdate holds the fields of a post that may change. Nil fields are left
// untouched.
type PostUpdate struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	Content        *string   `json:"content"`
	Category       *string   `json:"category"`
	Tags           *[]string `json:"tags"`
	Status         *string   `json:"status"`
	Image          *string   `json:"image"`
	SEOTitle       *string   `json:"seoTitle"`
	SEODescription *string   `json:"seoDescription"`
}

// PostFilters narrows a post listing. Empty fields do not filter.
type PostFilters struct {
	Category string
	Tags     []string
	Status   string
	AuthorID string
	Search   string
}

// Pagination selects a page and ordering. Zero values pick the defaults.
type Pagination struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// PageInfo describes where a page sits in a listing.
type PageInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// PostList is one page of posts.
type PostList struct {
	Posts      []*models.Post `json:"posts"`
	Pagination PageInfo       `json:"pagination"`
}

// LikeResult is the like state of a post after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Stars int  `json:"stars"`
}

// BookmarkResult is the bookmark state of a post after a toggle.
type BookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

// ViewResult reports the outcome of a view.
type ViewResult struct {
	Counted bool `json:"counted"`
	Views   int  `json:"views"`
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// CreatePost creates a new blog post with validation
func (s *PostService) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	post := &models.Post{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Content:        in.Content,
		Category:       strings.TrimSpace(in.Category),
		Tags:           cleanTags(in.Tags),
		Status:         in.Status,
		Image:          in.Image,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		AuthorID:       in.AuthorID,
		Author:         in.Author,
	}
	post.BeforeCreate(s.now())

	if err := post.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, storeErr(err, "post")
	}

	if s.index != nil {
		s.index.IndexPost(post)
	}
	return post, nil
}

// UpdatePost applies a partial update. Read time and category color are
// recomputed when their sources change.
func (s *PostService) UpdatePost(ctx context.Context, id string, update PostUpdate) (*models.Post, error) {
	post, err := s.postRepo.Mutate(ctx, id, func(p *models.Post) (bool, error) {
		if update.Title != nil {
			p.Title = strings.TrimSpace(*update.Title)
		}
		if update.Description != nil {
			p.Description = strings.TrimSpace(*update.Description)
		}
		if update.Content != nil && *update.Content != p.Content {
			p.Content = *update.Content
			p.ReadTime = models.CalculateReadTime(p.Content)
		}
		if update.Category != nil {
			p.Category = strings.TrimSpace(*update.Category)
			p.CategoryColor = models.CategoryColor(p.Category)
		}
		if update.Tags != nil {
			p.Tags = cleanTags(*update.Tags)
		}
		if update.Status != nil {
			p.Status = *update.Status
		}
		if update.Image != nil {
			p.Image = *update.Image
		}
		if update.SEOTitle != nil {
			p.SEOTitle = *update.SEOTitle
		}
		if update.SEODescription != nil {
			p.SEODescription = *update.SEODescription
		}
		p.UpdatedAt = s.now()

		if err := p.Validate(); err != nil {
			return false, validationError(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, storeErr(err, "post")
	}

	if s.index != nil {
		s.index.IndexPost(post)
	}
	return post, nil
}

// DeletePost removes a post and its comments. Comments go first so a
// failure leaves the post in place and the delete can be retried.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if _, err := s.postRepo.GetByID(ctx, id); err != nil {
		return storeErr(err, "post")
	}
	if _, err := s.commentRepo.DeleteByPost(ctx, id); err != nil {
		return storeErr(err, "comments")
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return storeErr(err, "post")
	}

	if s.index != nil {
		s.index.RemovePost(repositories.NormalizeID(id).String())
	}
	return nil
}

// GetPostByID retrieves a post by ID
func (s *PostService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "post")
	}
	return post, nil
}

// GetPosts lists posts matching filters, one page at a time.
func (s *PostService) GetPosts(ctx context.Context, filters PostFilters, page Pagination) (*PostList, error) {
	if page.Page == 0 {
		page.Page = DefaultPage
	}
	if page.Limit == 0 {
		page.Limit = DefaultPageSize
	}
	if page.SortBy == "" {
		page.SortBy = repositories.SortByCreatedAt
	}
	if page.SortOrder == "" {
		page.SortOrder = "desc"
	}

	switch {
	case page.Page < 1:
		return nil, invalidField("page", "must be at least 1")
	case page.Limit < 1 || page.Limit > MaxPageSize:
		return nil, invalidField("limit", "must be between 1 and 100")
	case !repositories.IsSortField(page.SortBy):
		return nil, invalidField("sortBy", "must be one of: createdAt updatedAt views stars readTime")
	case page.SortOrder != "asc" && page.SortOrder != "desc":
		return nil, invalidField("sortOrder", "must be one of: asc desc")
	}

	q := repositories.PostQuery{
		Category: filters.Category,
		Tags:     cleanTags(filters.Tags),
		Status:   filters.Status,
		AuthorID: filters.AuthorID,
		Search:   strings.TrimSpace(filters.Search),
		Sort:     []repositories.SortField{{Field: page.SortBy, Desc: page.SortOrder == "desc"}},
		Skip:     (page.Page - 1) * page.Limit,
		Limit:    page.Limit,
	}
	if q.Search != "" && s.index != nil {
		ids, err := s.index.SearchPosts(ctx, q.Search)
		if err == nil {
			q.IDs = ids
			if q.IDs == nil {
				q.IDs = []string{}
			}
			q.Search = ""
		} else {
			s.log.Warn().Err(err).Msg("search index unavailable, matching in store")
		}
	}

	posts, total, err := s.postRepo.Find(ctx, q)
	if err != nil {
		return nil, storeErr(err, "posts")
	}

	totalPages := (total + page.Limit - 1) / page.Limit
	return &PostList{
		Posts: posts,
		Pagination: PageInfo{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page.Page < totalPages,
			HasPrev:    page.Page > 1,
		},
	}, nil
}

// GetCategories returns categories of published posts, most used first.
func (s *PostService) GetCategories(ctx context.Context) ([]models.CountedValue, error) {
	values, err := s.postRepo.CountValues(ctx, repositories.PostQuery{Status: models.StatusPublished}, repositories.GroupByCategory)
	if err != nil {
		return nil, storeErr(err, "posts")
	}
	return values, nil
}

// GetTags returns tags of published posts, most used first.
func (s *PostService) GetTags(ctx context.Context) ([]models.CountedValue, error) {
	values, err := s.postRepo.CountValues(ctx, repositories.PostQuery{Status: models.StatusPublished}, repositories.GroupByTags)
	if err != nil {
		return nil, storeErr(err, "posts")
	}
	return values, nil
}

// GetPopularPosts returns the most viewed published posts, stars breaking ties.
func (s *PostService) GetPopularPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit == 0 {
		limit = DefaultPopularLimit
	}
	if limit < 1 || limit > MaxPopularLimit {
		return nil, invalidField("limit", "must be between 1 and 20")
	}

	posts, _, err := s.postRepo.Find(ctx, repositories.PostQuery{
		Status: models.StatusPublished,
		Sort: []repositories.SortField{
			{Field: repositories.SortByViews, Desc: true},
			{Field: repositories.SortByStars, Desc: true},
		},
		Limit: limit,
	})
	if err != nil {
		return nil, storeErr(err, "posts")
	}
	return posts, nil
}

// IncrementViewCount counts a view of a post. An identified viewer is
// counted once; anonymous views always count.
func (s *PostService) IncrementViewCount(ctx context.Context, id, viewerID string) (*ViewResult, error) {
	var counted bool
	post, err := s.postRepo.Mutate(ctx, id, func(p *models.Post) (bool, error) {
		counted = p.RecordView(viewerID, s.now())
		return counted, nil
	})
	if err != nil {
		return nil, storeErr(err, "post")
	}
	return &ViewResult{Counted: counted, Views: post.Views}, nil
}

// ToggleLike likes or unlikes a post for userID.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	if userID == "" {
		return nil, invalidField("userId", "is required")
	}
	var liked bool
	post, err := s.postRepo.Mutate(ctx, postID, func(p *models.Post) (bool, error) {
		liked = p.ToggleLike(userID)
		return true, nil
	})
	if err != nil {
		return nil, storeErr(err, "post")
	}
	return &LikeResult{Liked: liked, Stars: post.Stars}, nil
}

// ToggleBookmark bookmarks or unbookmarks a post for userID.
func (s *PostService) ToggleBookmark(ctx context.Context, postID, userID string) (*BookmarkResult, error) {
	if userID == "" {
		return nil, invalidField("userId", "is required")
	}
	var marked bool
	_, err := s.postRepo.Mutate(ctx, postID, func(p *models.Post) (bool, error) {
		marked = p.ToggleBookmark(userID)
		return true, nil
	})
	if err != nil {
		return nil, storeErr(err, "post")
	}
	return &BookmarkResult{Bookmarked: marked}, nil
}

// GetRelatedPosts returns published posts sharing the category or a tag
// with the given post, most viewed and then newest first.
func (s *PostService) GetRelatedPosts(ctx context.Context, postID string, limit int) ([]*models.Post, error) {
	if limit == 0 {
		limit = DefaultRelatedLimit
	}
	if limit < 1 || limit > MaxPopularLimit {
		return nil, invalidField("limit", "must be between 1 and 20")
	}

	source, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "post")
	}

	posts, _, err := s.postRepo.Find(ctx, repositories.PostQuery{
		Status:    models.StatusPublished,
		ExcludeID: source.ID,
		RelatedTo: source,
		Sort: []repositories.SortField{
			{Field: repositories.SortByViews, Desc: true},
			{Field: repositories.SortByCreatedAt, Desc: true},
		},
		Limit: limit,
	})
	if err != nil {
		return nil, storeErr(err, "posts")
	}
	return posts, nil
}
