// Package search keeps a Meilisearch index of posts for full-text queries.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"blognest/app/models"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog"
)

const (
	idxPosts = "blognest_posts"
	// maxHits matches the default maxTotalHits of a Meilisearch index.
	maxHits        = 1000
	healthInterval = 10 * time.Second
)

// ErrUnhealthy is returned by searches while Meilisearch is unreachable.
var ErrUnhealthy = errors.New("meilisearch unhealthy")

// PostRecord is the data we index for a post.
type PostRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	Status      string   `json:"status"`
}

// NewPostRecord projects a post onto its indexed fields.
func NewPostRecord(p *models.Post) PostRecord {
	return PostRecord{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		Category:    p.Category,
		Tags:        p.Tags,
		Author:      p.Author,
		Status:      p.Status,
	}
}

// Meili indexes posts in Meilisearch. Writes are skipped while the server is
// unhealthy; the health loop reconfigures the index when it comes back.
type Meili struct {
	client  meili.ServiceManager
	log     zerolog.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the posts index. It
// never fails: an unreachable server only marks the index unhealthy.
func NewMeili(url, apiKey string, log zerolog.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    log.With().Str("component", "search").Logger(),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.log.Warn().Err(err).Str("url", url).Msg("meilisearch unavailable")
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxPosts,
		PrimaryKey: "id",
	}); err != nil {
		m.log.Debug().Err(err).Msg("create posts index (may already exist)")
	}

	index := m.client.Index(idxPosts)
	searchable := []string{"title", "description", "content", "tags", "category", "author"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn().Err(err).Msg("update searchable attributes")
	}
	filterable := []interface{}{"status", "category", "tags"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn().Err(err).Msg("update filterable attributes")
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			switch {
			case err == nil && !wasHealthy:
				m.log.Info().Msg("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			case err != nil && wasHealthy:
				m.log.Warn().Err(err).Msg("meilisearch became unavailable")
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexPost adds or replaces a post in the index. Meilisearch applies the
// write asynchronously; failures are logged and left for Reindex.
func (m *Meili) IndexPost(post *models.Post) {
	if !m.healthy.Load() {
		return
	}
	if _, err := m.client.Index(idxPosts).AddDocuments([]PostRecord{NewPostRecord(post)}, nil); err != nil {
		m.log.Warn().Err(err).Str("post", post.ID).Msg("index post")
	}
}

// RemovePost drops a post from the index.
func (m *Meili) RemovePost(id string) {
	if !m.healthy.Load() {
		return
	}
	if _, err := m.client.Index(idxPosts).DeleteDocument(id, nil); err != nil {
		m.log.Warn().Err(err).Str("post", id).Msg("remove post from index")
	}
}

// Reindex bulk-loads posts, typically all of them after an outage.
func (m *Meili) Reindex(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if !m.healthy.Load() {
		return ErrUnhealthy
	}
	records := make([]PostRecord, len(posts))
	for i, p := range posts {
		records[i] = NewPostRecord(p)
	}
	_, err := m.client.Index(idxPosts).AddDocuments(records, nil)
	return err
}

// SearchPosts returns the ids of posts matching text, best match first.
func (m *Meili) SearchPosts(ctx context.Context, text string) ([]string, error) {
	if !m.healthy.Load() {
		return nil, ErrUnhealthy
	}

	resp, err := m.client.Index(idxPosts).SearchWithContext(ctx, text, &meili.SearchRequest{
		Limit:                maxHits,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, err
	}

	ids := make([]string, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id := decodeString(hit, "id"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
