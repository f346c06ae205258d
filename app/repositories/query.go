package repositories

import (
	"sort"
	"strings"
	"time"

	"blognest/app/models"
)

// Sortable post fields
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByViews     = "views"
	SortByStars     = "stars"
	SortByReadTime  = "readTime"
)

// Groupable post fields
const (
	GroupByCategory = "category"
	GroupByTags     = "tags"
)

// IsSortField reports whether field can be used to order posts.
func IsSortField(field string) bool {
	switch field {
	case SortByCreatedAt, SortByUpdatedAt, SortByViews, SortByStars, SortByReadTime:
		return true
	}
	return false
}

// SortField is one ordering key.
type SortField struct {
	Field string
	Desc  bool
}

// PostQuery selects, orders and pages posts. Zero-valued filters match
// everything.
type PostQuery struct {
	Category string
	Tags     []string
	Status   string
	AuthorID string
	// Search matches posts whose title, description or content contains
	// any of its whitespace-separated terms, case-insensitively.
	Search string
	// IDs restricts results to the given identifiers when non-nil.
	IDs       []string
	ExcludeID string
	// RelatedTo matches posts sharing its category or any of its tags.
	RelatedTo *models.Post

	Sort  []SortField
	Skip  int
	Limit int
}

// Matches reports whether p satisfies every filter of the query.
func (q PostQuery) Matches(p *models.Post) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if len(q.Tags) > 0 && !p.HasTag(q.Tags...) {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.AuthorID != "" && p.AuthorID != q.AuthorID {
		return false
	}
	if q.ExcludeID != "" && Equal(p.ID, q.ExcludeID) {
		return false
	}
	if q.IDs != nil && !containsID(q.IDs, p.ID) {
		return false
	}
	if q.RelatedTo != nil && p.Category != q.RelatedTo.Category && !p.HasTag(q.RelatedTo.Tags...) {
		return false
	}
	if q.Search != "" && !matchesText(q.Search, p.Title, p.Description, p.Content) {
		return false
	}
	return true
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if Equal(candidate, id) {
			return true
		}
	}
	return false
}

func matchesText(search string, fields ...string) bool {
	terms := strings.Fields(strings.ToLower(search))
	if len(terms) == 0 {
		return true
	}
	for _, field := range fields {
		field = strings.ToLower(field)
		for _, term := range terms {
			if strings.Contains(field, term) {
				return true
			}
		}
	}
	return false
}

// SortPosts orders posts by the given keys. Posts equal on every key are
// ordered by id in the direction of the first key.
func SortPosts(posts []*models.Post, fields []SortField) {
	if len(fields) == 0 {
		fields = []SortField{{Field: SortByCreatedAt, Desc: true}}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		for _, f := range fields {
			c := comparePostField(a, b, f.Field)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		if fields[0].Desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

func comparePostField(a, b *models.Post, field string) int {
	switch field {
	case SortByUpdatedAt:
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	case SortByViews:
		return compareInt(a.Views, b.Views)
	case SortByStars:
		return compareInt(a.Stars, b.Stars)
	case SortByReadTime:
		return compareInt(a.ReadTime, b.ReadTime)
	default:
		return compareTime(a.CreatedAt, b.CreatedAt)
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

// Page applies skip and limit. A limit of zero means no limit.
func Page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// CountValues groups posts by category or by individual tag, most frequent
// first, ties broken by name.
func CountValues(posts []*models.Post, field string) []models.CountedValue {
	counts := make(map[string]int)
	for _, p := range posts {
		switch field {
		case GroupByCategory:
			counts[p.Category]++
		case GroupByTags:
			for _, tag := range p.Tags {
				counts[tag]++
			}
		}
	}

	values := make([]models.CountedValue, 0, len(counts))
	for name, count := range counts {
		values = append(values, models.CountedValue{Name: name, Count: count})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Name < values[j].Name
	})
	return values
}

// SortComments orders comments by creation time, oldest first unless
// newestFirst is set. Ties are broken by id.
func SortComments(comments []*models.Comment, newestFirst bool) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		c := compareTime(a.CreatedAt, b.CreatedAt)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if newestFirst {
			return c > 0
		}
		return c < 0
	})
}
