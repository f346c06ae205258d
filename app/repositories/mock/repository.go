package mock

import (
	"context"
	"encoding/json"
	"sync"

	"blognest/app/models"
	"blognest/app/repositories"
)

var (
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
	_ repositories.UserRepository    = (*UserRepository)(nil)
)

// Repositories stored in memory. Records are copied on the way in and out so
// callers never share state with the store. Setting Err makes every call
// fail with it.

type PostRepository struct {
	posts map[string]*models.Post
	mutex sync.RWMutex
	Err   error
}

type CommentRepository struct {
	comments map[string]*models.Comment
	mutex    sync.RWMutex
	Err      error
}

type UserRepository struct {
	users map[string]*models.User
	mutex sync.RWMutex
	Err   error
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*models.Post)}
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[string]*models.Comment)}
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*models.User)}
}

func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

func key(id string) string {
	return repositories.NormalizeID(id).String()
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[string]*models.Post)
}

// PostRepository implementation
func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	id := repositories.NewID().String()
	if post.ID != "" {
		id = key(post.ID)
	}
	if _, exists := m.posts[id]; exists {
		return repositories.ErrDuplicateKey
	}
	post.ID = id
	m.posts[id] = clone(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return clone(post), nil
}

func (m *PostRepository) Mutate(ctx context.Context, id string, fn repositories.PostMutation) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	stored, exists := m.posts[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	post := clone(stored)
	changed, err := fn(post)
	if err != nil {
		return nil, err
	}
	if changed {
		m.posts[key(id)] = clone(post)
	}
	return post, nil
}

func (m *PostRepository) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.posts[key(id)]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, key(id))
	return nil
}

func (m *PostRepository) Find(ctx context.Context, q repositories.PostQuery) ([]*models.Post, int, error) {
	posts, err := m.match(q)
	if err != nil {
		return nil, 0, err
	}
	repositories.SortPosts(posts, q.Sort)
	return repositories.Page(posts, q.Skip, q.Limit), len(posts), nil
}

func (m *PostRepository) CountValues(ctx context.Context, q repositories.PostQuery, field string) ([]models.CountedValue, error) {
	posts, err := m.match(q)
	if err != nil {
		return nil, err
	}
	return repositories.CountValues(posts, field), nil
}

func (m *PostRepository) match(q repositories.PostQuery) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	posts := []*models.Post{}
	for _, post := range m.posts {
		if q.Matches(post) {
			posts = append(posts, clone(post))
		}
	}
	return posts, nil
}

// CommentRepository implementation
func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	id := repositories.NewID().String()
	if comment.ID != "" {
		id = key(comment.ID)
	}
	if _, exists := m.comments[id]; exists {
		return repositories.ErrDuplicateKey
	}
	if comment.ParentID != "" {
		parent, exists := m.comments[key(comment.ParentID)]
		if !exists {
			return repositories.ErrNotFound
		}
		parent.AddReply(id)
	}
	comment.ID = id
	m.comments[id] = clone(comment)
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	comment, exists := m.comments[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return clone(comment), nil
}

func (m *CommentRepository) Mutate(ctx context.Context, id string, fn repositories.CommentMutation) (*models.Comment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	stored, exists := m.comments[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	comment := clone(stored)
	changed, err := fn(comment)
	if err != nil {
		return nil, err
	}
	if changed {
		m.comments[key(id)] = clone(comment)
	}
	return comment, nil
}

func (m *CommentRepository) Remove(ctx context.Context, id string, retain func(*models.Comment) bool) (*models.Comment, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}

	stored, exists := m.comments[key(id)]
	if !exists {
		return nil, false, repositories.ErrNotFound
	}
	comment := clone(stored)
	if retain(comment) {
		m.comments[key(id)] = clone(comment)
		return comment, false, nil
	}
	delete(m.comments, key(id))
	return comment, true, nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return m.list(func(c *models.Comment) bool { return repositories.Equal(c.PostID, postID) })
}

func (m *CommentRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	return m.list(func(c *models.Comment) bool { return c.ParentID != "" && repositories.Equal(c.ParentID, parentID) })
}

func (m *CommentRepository) list(match func(*models.Comment) bool) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	comments := []*models.Comment{}
	for _, comment := range m.comments {
		if match(comment) {
			comments = append(comments, clone(comment))
		}
	}
	repositories.SortComments(comments, false)
	return comments, nil
}

func (m *CommentRepository) CountByPost(ctx context.Context, postID string) (int, error) {
	comments, err := m.ListByPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	return len(comments), nil
}

func (m *CommentRepository) DeleteByPost(ctx context.Context, postID string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}

	removed := 0
	for id, comment := range m.comments {
		if repositories.Equal(comment.PostID, postID) {
			delete(m.comments, id)
			removed++
		}
	}
	return removed, nil
}

// UserRepository implementation
func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	for _, existing := range m.users {
		if existing.Email == models.NormalizeEmail(user.Email) {
			return repositories.ErrDuplicateKey
		}
	}
	id := repositories.NewID().String()
	if user.ID != "" {
		id = key(user.ID)
	}
	if _, exists := m.users[id]; exists {
		return repositories.ErrDuplicateKey
	}
	user.ID = id
	stored := clone(user)
	stored.Email = models.NormalizeEmail(stored.Email)
	m.users[id] = stored
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	user, exists := m.users[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return clone(user), nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	for _, user := range m.users {
		if user.Email == models.NormalizeEmail(email) {
			return clone(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Mutate(ctx context.Context, id string, fn repositories.UserMutation) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	stored, exists := m.users[key(id)]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	user := clone(stored)
	changed, err := fn(user)
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, nil
	}
	user.Email = models.NormalizeEmail(user.Email)
	for otherID, other := range m.users {
		if otherID != key(id) && other.Email == user.Email {
			return nil, repositories.ErrDuplicateKey
		}
	}
	m.users[key(id)] = clone(user)
	return user, nil
}
