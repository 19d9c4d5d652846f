package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/models"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
)

var (
	// ErrPostNotFound indicates the post does not exist in the caller's family.
	ErrPostNotFound = apperrors.New("POST_NOT_FOUND", "Post not found", http.StatusNotFound)
	// ErrPostAlreadyLiked signals a duplicate like by the same user.
	ErrPostAlreadyLiked = apperrors.New("POST_ALREADY_LIKED", "Post already liked", http.StatusBadRequest)
)

// PostService manages the family feed: posts, comments, and likes.
type PostService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, audit *AuditService) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}
	return &PostService{db: db, audit: audit, now: time.Now}, nil
}

// Create adds a post to the family feed with empty comment and like arrays.
func (s *PostService) Create(ctx context.Context, familyID, authorID, content string) (*models.Post, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("post content is required")
	}

	post := models.Post{
		FamilyID: familyID,
		AuthorID: authorID,
		Content:  content,
		Comments: datatypes.JSON([]byte("[]")),
		Likes:    datatypes.JSON([]byte("[]")),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("post service: create post: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &authorID,
		Action:   "post.create",
		Resource: post.ID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID},
	})

	return &post, nil
}

// List returns the family feed, newest first, with author profiles attached.
func (s *PostService) List(ctx context.Context, familyID string, limit int) ([]models.Post, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("family_id = ?", familyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("post service: list posts: %w", err)
	}
	return posts, nil
}

// AddComment appends a comment to the post's JSON comment array.
func (s *PostService) AddComment(ctx context.Context, familyID, postID, authorID, content string) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("comment content is required")
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := loadFamilyPost(tx, familyID, postID)
		if err != nil {
			return err
		}

		comments, err := decodeComments(post.Comments)
		if err != nil {
			return err
		}
		comments = append(comments, comment)

		encoded, err := json.Marshal(comments)
		if err != nil {
			return fmt.Errorf("post service: encode comments: %w", err)
		}
		if err := tx.Model(post).Update("comments", datatypes.JSON(encoded)).Error; err != nil {
			return fmt.Errorf("post service: save comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

// ListComments returns the post's comments in insertion order.
func (s *PostService) ListComments(ctx context.Context, familyID, postID string) ([]models.Comment, error) {
	ctx = ensureContext(ctx)

	post, err := loadFamilyPost(s.db.WithContext(ctx), familyID, postID)
	if err != nil {
		return nil, err
	}
	return decodeComments(post.Comments)
}

// Like records a like by the user. Duplicate likes are rejected.
func (s *PostService) Like(ctx context.Context, familyID, postID, userID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := loadFamilyPost(tx, familyID, postID)
		if err != nil {
			return err
		}

		likes, err := decodeLikes(post.Likes)
		if err != nil {
			return err
		}
		if containsString(likes, userID) {
			return ErrPostAlreadyLiked
		}
		likes = append(likes, userID)

		return saveLikes(tx, post, likes)
	})
}

// Unlike removes the user's like when present. Absent likes are a no-op.
func (s *PostService) Unlike(ctx context.Context, familyID, postID, userID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := loadFamilyPost(tx, familyID, postID)
		if err != nil {
			return err
		}

		likes, err := decodeLikes(post.Likes)
		if err != nil {
			return err
		}

		filtered := likes[:0]
		for _, id := range likes {
			if id != userID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == len(likes) {
			return nil
		}

		return saveLikes(tx, post, filtered)
	})
}

// Likes returns the user ids that liked the post.
func (s *PostService) Likes(ctx context.Context, familyID, postID string) ([]string, error) {
	ctx = ensureContext(ctx)

	post, err := loadFamilyPost(s.db.WithContext(ctx), familyID, postID)
	if err != nil {
		return nil, err
	}
	return decodeLikes(post.Likes)
}

func loadFamilyPost(tx *gorm.DB, familyID, postID string) (*models.Post, error) {
	var post models.Post
	err := tx.Where("id = ? AND family_id = ?", postID, familyID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("post service: load post: %w", err)
	}
	return &post, nil
}

func decodeComments(raw datatypes.JSON) ([]models.Comment, error) {
	if len(raw) == 0 {
		return []models.Comment{}, nil
	}
	var comments []models.Comment
	if err := json.Unmarshal(raw, &comments); err != nil {
		return nil, fmt.Errorf("post service: decode comments: %w", err)
	}
	return comments, nil
}

func decodeLikes(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var likes []string
	if err := json.Unmarshal(raw, &likes); err != nil {
		return nil, fmt.Errorf("post service: decode likes: %w", err)
	}
	return likes, nil
}

func saveLikes(tx *gorm.DB, post *models.Post, likes []string) error {
	encoded, err := json.Marshal(likes)
	if err != nil {
		return fmt.Errorf("post service: encode likes: %w", err)
	}
	if err := tx.Model(post).Update("likes", datatypes.JSON(encoded)).Error; err != nil {
		return fmt.Errorf("post service: save likes: %w", err)
	}
	return nil
}
