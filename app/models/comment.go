package models

import "time"

// DeletedCommentContent replaces the content of a deleted comment that still
// has replies.
const DeletedCommentContent = "[Comment deleted]"

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validate.Struct(c)
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate(now time.Time) {
	c.Replies = []string{}
	c.Likes = []string{}
	c.CreatedAt = now
	c.UpdatedAt = now
}

// IsTopLevel reports whether the comment is attached directly to its post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == ""
}

// ToggleLike adds or removes userID from the likes set.
func (c *Comment) ToggleLike(userID string) bool {
	var liked bool
	c.Likes, liked = toggleMember(c.Likes, userID)
	return liked
}

// HasLiked reports whether userID has liked the comment.
func (c *Comment) HasLiked(userID string) bool {
	return userID != "" && contains(c.Likes, userID)
}

// AddReply appends a child id to the reply log.
func (c *Comment) AddReply(childID string) {
	c.Replies = append(c.Replies, childID)
}

// Tombstone blanks the content while keeping the thread shape.
func (c *Comment) Tombstone(now time.Time) {
	c.Content = DeletedCommentContent
	c.UpdatedAt = now
}
