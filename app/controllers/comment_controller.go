package controllers

import (
	"net/http"

	"blognest/app/middleware"
	"blognest/app/models"
	"blognest/app/repositories"
	"blognest/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
	log            zerolog.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, log zerolog.Logger) *CommentController {
	return &CommentController{commentService: commentService, log: log}
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

// Index lists the comment threads of a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	comments, err := cc.commentService.GetCommentsByPostID(r.Context(), mux.Vars(r)["id"], viewer(r))
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// Count returns how many comments a post has.
func (cc *CommentController) Count(w http.ResponseWriter, r *http.Request) {
	count, err := cc.commentService.GetCommentCount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Create handles creating a new comment or reply by the caller
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	id, _ := middleware.IdentityFrom(r.Context())

	comment, err := cc.commentService.CreateComment(r.Context(), services.CommentInput{
		PostID:       mux.Vars(r)["id"],
		AuthorID:     id.UserID,
		Author:       id.DisplayName,
		AuthorAvatar: id.Avatar,
		Content:      req.Content,
		ParentID:     req.ParentID,
	})
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, comment)
}

// load fetches the comment named in the path, which must belong to the
// post in the path.
func (cc *CommentController) load(r *http.Request) (*models.Comment, error) {
	vars := mux.Vars(r)
	comment, err := cc.commentService.GetCommentByID(r.Context(), vars["commentId"])
	if err != nil {
		return nil, err
	}
	if postID, ok := vars["id"]; ok && !repositories.Equal(comment.PostID, postID) {
		return nil, services.ErrNotFound
	}
	return comment, nil
}

// authorize loads the comment and checks that the caller may change it.
func (cc *CommentController) authorize(r *http.Request) (*models.Comment, error) {
	comment, err := cc.load(r)
	if err != nil {
		return nil, err
	}
	id, _ := middleware.IdentityFrom(r.Context())
	if !canModify(id, comment.AuthorID) {
		return nil, errForbidden
	}
	return comment, nil
}

// Update handles editing a comment
func (cc *CommentController) Update(w http.ResponseWriter, r *http.Request) {
	comment, err := cc.authorize(r)
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}

	updated, err := cc.commentService.UpdateComment(r.Context(), comment.ID, req.Content)
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}

// Delete handles deleting a comment. A comment with replies is kept as a
// placeholder.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	comment, err := cc.authorize(r)
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}

	removed, err := cc.commentService.DeleteComment(r.Context(), comment.ID)
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true, "removed": removed})
}

// Like toggles the caller's like on a comment.
func (cc *CommentController) Like(w http.ResponseWriter, r *http.Request) {
	comment, err := cc.load(r)
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}

	view, err := cc.commentService.LikeComment(r.Context(), comment.ID, viewer(r))
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}

// Replies lists the direct replies of a comment, oldest first.
func (cc *CommentController) Replies(w http.ResponseWriter, r *http.Request) {
	replies, err := cc.commentService.GetReplies(r.Context(), mux.Vars(r)["commentId"], viewer(r))
	if err != nil {
		sendServiceError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}
