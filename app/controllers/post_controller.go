package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"blognest/app/middleware"
	"blognest/app/models"
	"blognest/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
	log         zerolog.Logger
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, log zerolog.Logger) *PostController {
	return &PostController{postService: postService, log: log}
}

// postResponse is a single post with the caller's engagement flags.
type postResponse struct {
	*models.Post
	IsLiked      bool `json:"isLiked"`
	IsBookmarked bool `json:"isBookmarked"`
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// authorFilter reads the author id filter. authorId is preferred; author is
// still accepted.
func authorFilter(q url.Values) string {
	if v := q.Get("authorId"); v != "" {
		return v
	}
	return q.Get("author")
}

// Index handles listing posts
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}

	// Explicit zeros are rejected; only absent parameters take defaults.
	if q.Has("page") && page < 1 {
		sendServiceError(w, r, pc.log, &services.ValidationError{Fields: map[string]string{"page": "must be at least 1"}})
		return
	}
	if q.Has("limit") && limit < 1 {
		sendServiceError(w, r, pc.log, &services.ValidationError{Fields: map[string]string{"limit": "must be between 1 and 100"}})
		return
	}

	filters := services.PostFilters{
		Category: q.Get("category"),
		Tags:     splitList(q["tags"]),
		Status:   q.Get("status"),
		AuthorID: authorFilter(q),
		Search:   q.Get("search"),
	}
	list, err := pc.postService.GetPosts(r.Context(), filters, services.Pagination{
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: strings.ToLower(q.Get("sortOrder")),
	})
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	list.Posts = models.PublicPosts(list.Posts)
	sendJSON(w, http.StatusOK, list)
}

// Create handles creating a new post for the caller
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	id, _ := middleware.IdentityFrom(r.Context())
	in.AuthorID = id.UserID
	in.Author = id.DisplayName

	post, err := pc.postService.CreatePost(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, post.Public())
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.GetPostByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	userID := viewer(r)
	sendJSON(w, http.StatusOK, postResponse{
		Post:         post.Public(),
		IsLiked:      post.HasLiked(userID),
		IsBookmarked: post.HasBookmarked(userID),
	})
}

// authorize loads the post named in the path and checks that the caller may
// change it.
func (pc *PostController) authorize(r *http.Request) (*models.Post, error) {
	post, err := pc.postService.GetPostByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	id, _ := middleware.IdentityFrom(r.Context())
	if !canModify(id, post.AuthorID) {
		return nil, errForbidden
	}
	return post, nil
}

// Update handles a partial update of a post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	post, err := pc.authorize(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}

	var update services.PostUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}

	updated, err := pc.postService.UpdatePost(r.Context(), post.ID, update)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, updated.Public())
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := pc.authorize(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}

	if err := pc.postService.DeletePost(r.Context(), post.ID); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Popular lists the most viewed published posts.
func (pc *PostController) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	posts, err := pc.postService.GetPopularPosts(r.Context(), limit)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"posts": models.PublicPosts(posts)})
}

// Categories lists categories in use with their post counts.
func (pc *PostController) Categories(w http.ResponseWriter, r *http.Request) {
	values, err := pc.postService.GetCategories(r.Context())
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"categories": values})
}

// Tags lists tags in use with their post counts.
func (pc *PostController) Tags(w http.ResponseWriter, r *http.Request) {
	values, err := pc.postService.GetTags(r.Context())
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"tags": values})
}

// Related lists posts related to the one in the path.
func (pc *PostController) Related(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	posts, err := pc.postService.GetRelatedPosts(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"posts": models.PublicPosts(posts)})
}

// View records a view by the caller, who may be anonymous.
func (pc *PostController) View(w http.ResponseWriter, r *http.Request) {
	result, err := pc.postService.IncrementViewCount(r.Context(), mux.Vars(r)["id"], viewer(r))
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// Like toggles the caller's like.
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	result, err := pc.postService.ToggleLike(r.Context(), mux.Vars(r)["id"], viewer(r))
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// Bookmark toggles the caller's bookmark.
func (pc *PostController) Bookmark(w http.ResponseWriter, r *http.Request) {
	result, err := pc.postService.ToggleBookmark(r.Context(), mux.Vars(r)["id"], viewer(r))
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}
