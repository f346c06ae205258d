package models

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports failing fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// User roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Post lifecycle states
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// User is a registered account. Password holds the bcrypt hash and is never
// part of PublicUser.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required,max=100"`
	Email      string    `json:"email" validate:"required,email"`
	Password   string    `json:"password" validate:"required"`
	Bio        string    `json:"bio,omitempty" validate:"max=500"`
	Username   string    `json:"username,omitempty" validate:"max=50"`
	Location   string    `json:"location,omitempty" validate:"max=100"`
	Avatar     string    `json:"avatar,omitempty"`
	Role       string    `json:"role" validate:"oneof=user moderator admin"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Username   string    `json:"username,omitempty"`
	Location   string    `json:"location,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Post is a blog article together with its engagement counters.
type Post struct {
	ID             string               `json:"id"`
	Title          string               `json:"title" validate:"required,max=200"`
	Description    string               `json:"description" validate:"required,max=500"`
	Content        string               `json:"content" validate:"required"`
	Category       string               `json:"category" validate:"required,max=100"`
	CategoryColor  string               `json:"categoryColor"`
	AuthorID       string               `json:"authorId" validate:"required"`
	Author         string               `json:"author"`
	Tags           []string             `json:"tags"`
	Status         string               `json:"status" validate:"oneof=draft published archived"`
	Views          int                  `json:"views" validate:"gte=0"`
	Stars          int                  `json:"stars" validate:"gte=0"`
	Likes          []string             `json:"likes"`
	Bookmarks      []string             `json:"bookmarks"`
	ViewedBy       map[string]time.Time `json:"viewedBy,omitempty"`
	ReadTime       int                  `json:"readTime"`
	Image          string               `json:"image,omitempty"`
	SEOTitle       string               `json:"seoTitle,omitempty" validate:"max=200"`
	SEODescription string               `json:"seoDescription,omitempty" validate:"max=500"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// Comment is a comment on a post. A comment with a ParentID is a reply.
type Comment struct {
	ID           string    `json:"id"`
	Content      string    `json:"content" validate:"required,max=5000"`
	PostID       string    `json:"postId" validate:"required"`
	AuthorID     string    `json:"authorId" validate:"required"`
	Author       string    `json:"author" validate:"required,max=100"`
	AuthorAvatar string    `json:"authorAvatar,omitempty"`
	ParentID     string    `json:"parentId,omitempty"`
	Replies      []string  `json:"replies"`
	Likes        []string  `json:"likes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CountedValue is a distinct category or tag with its number of occurrences.
type CountedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
