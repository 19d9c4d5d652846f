package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/response"
)

// PostHandler serves the family feed.
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// Create adds a post to the feed.
func (h *PostHandler) Create(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[createPostRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), fc.FamilyID, fc.User.ID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post)
}

// List returns the family feed, newest first.
func (h *PostHandler) List(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.posts.List(c.Request.Context(), fc.FamilyID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, posts)
}

type addCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// AddComment appends a comment to a post.
func (h *PostHandler) AddComment(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[addCommentRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), fc.FamilyID, c.Param("postId"), fc.User.ID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// ListComments returns a post's comments in insertion order.
func (h *PostHandler) ListComments(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	comments, err := h.posts.ListComments(c.Request.Context(), fc.FamilyID, c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, comments)
}

// Like records the caller's like on a post.
func (h *PostHandler) Like(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	if err := h.posts.Like(c.Request.Context(), fc.FamilyID, c.Param("postId"), fc.User.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// Unlike removes the caller's like from a post.
func (h *PostHandler) Unlike(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	if err := h.posts.Unlike(c.Request.Context(), fc.FamilyID, c.Param("postId"), fc.User.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
