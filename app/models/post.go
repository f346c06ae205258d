package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// WordsPerMinute is the reading speed used for read-time estimates.
const WordsPerMinute = 200

// DefaultCategoryColor is used for categories missing from the color table.
const DefaultCategoryColor = "bg-gray-600"

var categoryColors = map[string]string{
	"Technology":              "bg-blue-600",
	"Artificial Intelligence": "bg-purple-600",
	"AI":                      "bg-purple-600",
	"Machine Learning":        "bg-indigo-600",
	"Data Science":            "bg-teal-600",
	"Programming":             "bg-blue-600",
	"Web Development":         "bg-green-600",
	"Mobile Development":      "bg-orange-600",
	"Travel":                  "bg-green-600",
	"Lifestyle":               "bg-purple-600",
	"Food":                    "bg-orange-600",
	"Health":                  "bg-red-600",
	"Business":                "bg-indigo-600",
	"Education":               "bg-teal-600",
	"Entertainment":           "bg-pink-600",
	"Science":                 "bg-cyan-600",
	"Research":                "bg-violet-600",
}

// CategoryColor returns the display color for a category.
func CategoryColor(category string) string {
	if color, ok := categoryColors[category]; ok {
		return color
	}
	return DefaultCategoryColor
}

// CalculateReadTime estimates reading time in whole minutes.
func CalculateReadTime(content string) int {
	words := len(strings.Fields(content))
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.Stars != len(p.Likes) {
		return errors.New("stars must equal the number of likes")
	}

	return nil
}

// BeforeCreate fills derived fields and defaults for a new post.
func (p *Post) BeforeCreate(now time.Time) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Views = 0
	p.Stars = 0
	p.Likes = []string{}
	p.Bookmarks = []string{}
	p.ViewedBy = map[string]time.Time{}
	p.CategoryColor = CategoryColor(p.Category)
	p.ReadTime = CalculateReadTime(p.Content)
	p.CreatedAt = now
	p.UpdatedAt = now
}

// ToggleLike adds or removes userID from the likes set and reports whether
// the post is liked afterwards. Stars always tracks the size of the set.
func (p *Post) ToggleLike(userID string) bool {
	var liked bool
	p.Likes, liked = toggleMember(p.Likes, userID)
	p.Stars = len(p.Likes)
	return liked
}

// ToggleBookmark adds or removes userID from the bookmarks set.
func (p *Post) ToggleBookmark(userID string) bool {
	var marked bool
	p.Bookmarks, marked = toggleMember(p.Bookmarks, userID)
	return marked
}

// RecordView counts a view. Identified viewers are counted once, on their
// first view; anonymous views (empty viewerID) are always counted.
func (p *Post) RecordView(viewerID string, at time.Time) bool {
	if viewerID != "" {
		if _, seen := p.ViewedBy[viewerID]; seen {
			return false
		}
		if p.ViewedBy == nil {
			p.ViewedBy = map[string]time.Time{}
		}
		p.ViewedBy[viewerID] = at
	}
	p.Views++
	return true
}

// Public returns a copy of the post safe to serve. The viewer log stays in
// the store.
func (p *Post) Public() *Post {
	out := *p
	out.ViewedBy = nil
	return &out
}

// PublicPosts applies Public to every post.
func PublicPosts(posts []*Post) []*Post {
	out := make([]*Post, len(posts))
	for i, p := range posts {
		out[i] = p.Public()
	}
	return out
}

// HasLiked reports whether userID is in the likes set.
func (p *Post) HasLiked(userID string) bool {
	return userID != "" && contains(p.Likes, userID)
}

// HasBookmarked reports whether userID is in the bookmarks set.
func (p *Post) HasBookmarked(userID string) bool {
	return userID != "" && contains(p.Bookmarks, userID)
}

// HasTag reports whether the post carries any of the given tags.
func (p *Post) HasTag(tags ...string) bool {
	for _, tag := range tags {
		if contains(p.Tags, tag) {
			return true
		}
	}
	return false
}

func toggleMember(set []string, id string) ([]string, bool) {
	for i, member := range set {
		if member == id {
			return append(set[:i:i], set[i+1:]...), false
		}
	}
	return append(set, id), true
}

func contains(set []string, id string) bool {
	for _, member := range set {
		if member == id {
			return true
		}
	}
	return false
}
