package service

import (
	"context"
	"log/slog"

	"github.com/Tatiana-20/tati-blog/internal/middleware"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/notifications"
	"github.com/Tatiana-20/tati-blog/internal/repository"
)

// ReactionService implements one-reaction-per-user-per-post semantics.
type ReactionService struct {
	reactions repository.ReactionRepository
	posts     repository.PostRepository
	notifier  *notifications.Notifier
	hub       *notifications.PostHub
	isAdmin   func(ctx context.Context, userID uint) (bool, error)
}

// NewReactionService returns a new ReactionService.
func NewReactionService(
	reactions repository.ReactionRepository,
	posts repository.PostRepository,
	notifier *notifications.Notifier,
	hub *notifications.PostHub,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		posts:     posts,
		notifier:  notifier,
		hub:       hub,
		isAdmin:   isAdmin,
	}
}

// ReactInput carries the reaction payload.
type ReactInput struct {
	UserID uint
	PostID uint
	Type   models.ReactionType
}

// React records the caller's reaction on a post, replacing any previous one,
// and notifies the post's room.
func (s *ReactionService) React(ctx context.Context, in ReactInput) (*models.Reaction, error) {
	if !models.ValidReactionType(in.Type) {
		return nil, models.NewValidationError("Invalid reaction type")
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		UserID: in.UserID,
		PostID: in.PostID,
		Type:   in.Type,
	}
	if err := s.reactions.Upsert(ctx, reaction); err != nil {
		return nil, err
	}

	s.announceUpdate(ctx, notifications.PostUpdate{
		Type:     notifications.UpdateReactionAdded,
		PostID:   in.PostID,
		Reaction: reaction,
	})

	return reaction, nil
}

func (s *ReactionService) announceUpdate(ctx context.Context, update notifications.PostUpdate) {
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

// ListReactions returns a page of reactions on a post.
func (s *ReactionService) ListReactions(ctx context.Context, postID uint, limit, offset int) ([]*models.Reaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.reactions.ListByPost(ctx, postID, limit, offset)
}

// RemoveReaction deletes a reaction; only its owner or an admin may do so.
func (s *ReactionService) RemoveReaction(ctx context.Context, userID, reactionID uint) error {
	reaction, err := s.reactions.GetByID(ctx, reactionID)
	if err != nil {
		return err
	}
	if reaction.UserID != userID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, userID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("You can only remove your own reactions")
		}
	}
	return s.reactions.Delete(ctx, reactionID)
}
