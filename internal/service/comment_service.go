package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Tatiana-20/tati-blog/internal/middleware"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/notifications"
	"github.com/Tatiana-20/tati-blog/internal/repository"
)

const maxCommentLen = 10000

// CommentService implements threaded comments with room-scoped realtime
// updates.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	notifier *notifications.Notifier
	hub      *notifications.PostHub
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

// NewCommentService returns a new CommentService.
func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	notifier *notifications.Notifier,
	hub *notifications.PostHub,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		notifier: notifier,
		hub:      hub,
		isAdmin:  isAdmin,
	}
}

// CreateCommentInput carries the comment creation payload.
type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	Content  string
	ParentID *uint
}

// UpdateCommentInput carries the comment update payload.
type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

// CreateComment adds a comment (or a reply when ParentID is set) and notifies
// the post's room.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	s.announceUpdate(ctx, notifications.PostUpdate{
		Type:    notifications.UpdateCommentAdded,
		PostID:  in.PostID,
		Comment: created,
	})

	return created, nil
}

func (s *CommentService) announceUpdate(ctx context.Context, update notifications.PostUpdate) {
	frame, err := notifications.PostUpdateFrame(update)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode post update",
			slog.String("error", err.Error()))
		return
	}
	if s.notifier.Enabled() {
		if err := s.notifier.PublishPostUpdate(ctx, update.PostID, frame); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish post update",
				slog.Any("post_id", update.PostID), slog.String("error", err.Error()))
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastToRoom(update.PostID, frame)
	}
}

// ListComments returns the threaded comments of a post.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, limit, offset)
}

func (s *CommentService) authorize(ctx context.Context, userID, ownerID uint, action string) error {
	if userID == ownerID {
		return nil
	}
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError("You can only " + action + " your own comments")
}

// UpdateComment edits a comment's content.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, comment.UserID, "update"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Content = in.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment and its replies.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, comment.UserID, "delete"); err != nil {
		return err
	}
	return s.comments.Delete(ctx, commentID)
}
