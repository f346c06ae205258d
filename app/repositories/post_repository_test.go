package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blognest/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPost(title string, views int) *models.Post {
	p := &models.Post{
		Title:       title,
		Description: "description",
		Content:     "some content",
		Category:    "Technology",
		AuthorID:    "author-1",
		Author:      "Author",
		Status:      models.StatusPublished,
	}
	p.BeforeCreate(time.Now())
	p.Views = views
	return p
}

func TestPostRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := NewBadgerPostRepository(store)
	ctx := context.Background()

	t.Run("create and get post", func(t *testing.T) {
		post := newTestPost("Test Post", 0)
		require.NoError(t, repo.Create(ctx, post))
		assert.True(t, NormalizeID(post.ID).IsNative())

		retrieved, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Title, retrieved.Title)
		assert.Equal(t, post.ID, retrieved.ID)
	})

	t.Run("legacy string id", func(t *testing.T) {
		post := newTestPost("Imported", 0)
		post.ID = "imported-post"
		require.NoError(t, repo.Create(ctx, post))

		retrieved, err := repo.GetByID(ctx, "imported-post")
		require.NoError(t, err)
		assert.Equal(t, "Imported", retrieved.Title)

		dup := newTestPost("Again", 0)
		dup.ID = "imported-post"
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateKey)
	})

	t.Run("get missing post", func(t *testing.T) {
		_, err := repo.GetByID(ctx, NewID().String())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mutate post", func(t *testing.T) {
		post := newTestPost("Original Title", 0)
		require.NoError(t, repo.Create(ctx, post))

		updated, err := repo.Mutate(ctx, post.ID, func(p *models.Post) (bool, error) {
			p.Title = "Updated Title"
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", updated.Title)

		stored, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", stored.Title)
	})

	t.Run("unchanged mutation is not written", func(t *testing.T) {
		post := newTestPost("Keep", 0)
		require.NoError(t, repo.Create(ctx, post))

		_, err := repo.Mutate(ctx, post.ID, func(p *models.Post) (bool, error) {
			p.Title = "Discarded"
			return false, nil
		})
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep", stored.Title)
	})

	t.Run("mutation error is returned as is", func(t *testing.T) {
		post := newTestPost("Keep", 0)
		require.NoError(t, repo.Create(ctx, post))

		rejected := errors.New("rejected")
		_, err := repo.Mutate(ctx, post.ID, func(p *models.Post) (bool, error) {
			return false, rejected
		})
		assert.Equal(t, rejected, err)

		_, err = repo.Mutate(ctx, NewID().String(), func(p *models.Post) (bool, error) {
			return true, nil
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete post", func(t *testing.T) {
		post := newTestPost("To Delete", 0)
		require.NoError(t, repo.Create(ctx, post))

		require.NoError(t, repo.Delete(ctx, post.ID))
		_, err := repo.GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, post.ID), ErrNotFound)
	})
}

func TestPostRepositoryConcurrentToggles(t *testing.T) {
	store := setupTestStore(t)
	repo := NewBadgerPostRepository(store)
	ctx := context.Background()

	post := newTestPost("Busy", 0)
	require.NoError(t, repo.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, post.ID, func(p *models.Post) (bool, error) {
				return p.RecordView("viewer", time.Now()), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Views)
}

func TestPostRepositoryFind(t *testing.T) {
	store := setupTestStore(t)
	repo := NewBadgerPostRepository(store)
	ctx := context.Background()

	for _, views := range []int{10, 5, 20, 1, 7} {
		require.NoError(t, repo.Create(ctx, newTestPost("Post", views)))
	}
	draft := newTestPost("Draft", 100)
	draft.Status = models.StatusDraft
	require.NoError(t, repo.Create(ctx, draft))

	posts, total, err := repo.Find(ctx, PostQuery{
		Status: models.StatusPublished,
		Sort:   []SortField{{Field: SortByViews, Desc: true}},
		Skip:   0,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, posts, 2)
	assert.Equal(t, 20, posts[0].Views)
	assert.Equal(t, 10, posts[1].Views)

	posts, total, err = repo.Find(ctx, PostQuery{
		Status: models.StatusPublished,
		Sort:   []SortField{{Field: SortByViews, Desc: true}},
		Skip:   4,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].Views)

	posts, total, err = repo.Find(ctx, PostQuery{})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, posts, 6)
}

func TestPostRepositoryCountValues(t *testing.T) {
	store := setupTestStore(t)
	repo := NewBadgerPostRepository(store)
	ctx := context.Background()

	seed := []struct {
		category string
		tags     []string
		status   string
	}{
		{"Technology", []string{"go", "web"}, models.StatusPublished},
		{"Technology", []string{"go"}, models.StatusPublished},
		{"Travel", []string{"web"}, models.StatusPublished},
		{"Food", []string{"go"}, models.StatusDraft},
	}
	for _, s := range seed {
		p := newTestPost("Post", 0)
		p.Category = s.category
		p.Tags = s.tags
		p.Status = s.status
		require.NoError(t, repo.Create(ctx, p))
	}

	categories, err := repo.CountValues(ctx, PostQuery{Status: models.StatusPublished}, GroupByCategory)
	require.NoError(t, err)
	assert.Equal(t, []models.CountedValue{{Name: "Technology", Count: 2}, {Name: "Travel", Count: 1}}, categories)

	tags, err := repo.CountValues(ctx, PostQuery{Status: models.StatusPublished}, GroupByTags)
	require.NoError(t, err)
	assert.Equal(t, []models.CountedValue{{Name: "go", Count: 2}, {Name: "web", Count: 2}}, tags)
}
