package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPost() *Post {
	p := &Post{
		Title:       "Valid Title",
		Description: "A short description",
		Content:     "This is valid content",
		Category:    "Technology",
		AuthorID:    "author-1",
		Author:      "Author",
	}
	p.BeforeCreate(time.Now())
	return p
}

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Post)
		wantErr bool
	}{
		{
			name:    "valid post",
			mutate:  func(p *Post) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(p *Post) { p.Title = "" },
			wantErr: true,
		},
		{
			name:    "missing description",
			mutate:  func(p *Post) { p.Description = "" },
			wantErr: true,
		},
		{
			name:    "missing content",
			mutate:  func(p *Post) { p.Content = "" },
			wantErr: true,
		},
		{
			name:    "missing category",
			mutate:  func(p *Post) { p.Category = "" },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(p *Post) { p.Status = "hidden" },
			wantErr: true,
		},
		{
			name:    "stars out of sync with likes",
			mutate:  func(p *Post) { p.Stars = 3 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPost()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &Post{
		Title:    "Title",
		Content:  strings.Repeat("word ", 401),
		Category: "Science",
		Views:    99,
		Stars:    4,
		Likes:    []string{"a"},
	}
	p.BeforeCreate(now)

	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, 0, p.Views)
	assert.Equal(t, 0, p.Stars)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Bookmarks)
	assert.NotNil(t, p.Tags)
	assert.Equal(t, "bg-cyan-600", p.CategoryColor)
	assert.Equal(t, 3, p.ReadTime)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)

	published := &Post{Status: StatusPublished}
	published.BeforeCreate(now)
	assert.Equal(t, StatusPublished, published.Status)
}

func TestCalculateReadTime(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{strings.Repeat("w ", 200), 1},
		{strings.Repeat("w ", 201), 2},
		{"  spaced\n\tout   words ", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateReadTime(tt.content))
	}
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, "bg-blue-600", CategoryColor("Technology"))
	assert.Equal(t, "bg-purple-600", CategoryColor("AI"))
	assert.Equal(t, "bg-violet-600", CategoryColor("Research"))
	assert.Equal(t, DefaultCategoryColor, CategoryColor("Knitting"))
	assert.Equal(t, DefaultCategoryColor, CategoryColor("technology"))
}

func TestPostToggleLike(t *testing.T) {
	p := validPost()

	assert.True(t, p.ToggleLike("u1"))
	assert.True(t, p.ToggleLike("u2"))
	assert.Equal(t, 2, p.Stars)
	assert.True(t, p.HasLiked("u1"))

	assert.False(t, p.ToggleLike("u1"))
	assert.Equal(t, 1, p.Stars)
	assert.Equal(t, []string{"u2"}, p.Likes)
	assert.False(t, p.HasLiked("u1"))
	assert.False(t, p.HasLiked(""))
	assert.Equal(t, len(p.Likes), p.Stars)
}

func TestPostToggleBookmark(t *testing.T) {
	p := validPost()

	assert.True(t, p.ToggleBookmark("u1"))
	assert.True(t, p.HasBookmarked("u1"))
	assert.False(t, p.ToggleBookmark("u1"))
	assert.Empty(t, p.Bookmarks)
	assert.Equal(t, 0, p.Stars)
}

func TestPostRecordView(t *testing.T) {
	p := validPost()
	first := time.Now()

	assert.True(t, p.RecordView("u1", first))
	assert.False(t, p.RecordView("u1", first.Add(time.Hour)))
	assert.Equal(t, 1, p.Views)
	assert.Equal(t, first, p.ViewedBy["u1"])

	for i := 0; i < 3; i++ {
		assert.True(t, p.RecordView("", time.Now()))
	}
	assert.Equal(t, 4, p.Views)
	assert.Len(t, p.ViewedBy, 1)
}

func TestPostPublic(t *testing.T) {
	p := validPost()
	p.RecordView("u1", time.Now())

	pub := p.Public()
	assert.Nil(t, pub.ViewedBy)
	assert.Equal(t, p.Views, pub.Views)
	assert.Len(t, p.ViewedBy, 1)

	data, err := json.Marshal(PublicPosts([]*Post{p}))
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "viewedBy")
	assert.NotContains(t, string(data), "u1")
}

func TestPostHasTag(t *testing.T) {
	p := validPost()
	p.Tags = []string{"go", "web"}

	assert.True(t, p.HasTag("web"))
	assert.True(t, p.HasTag("rust", "go"))
	assert.False(t, p.HasTag("rust"))
	assert.False(t, p.HasTag())
}
