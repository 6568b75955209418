package repository

import (
	"context"
	"errors"

	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines persistence operations for reactions.
type ReactionRepository interface {
	Upsert(ctx context.Context, reaction *models.Reaction) error
	GetByID(ctx context.Context, id uint) (*models.Reaction, error)
	GetByUserAndPost(ctx context.Context, userID, postID uint) (*models.Reaction, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Reaction, error)
	Delete(ctx context.Context, id uint) error
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Upsert inserts the reaction or, when the user already reacted to the post,
// updates the existing row's type in place. The ON CONFLICT clause makes the
// operation atomic under concurrent requests.
func (r *reactionRepository) Upsert(ctx context.Context, reaction *models.Reaction) error {
	defer observability.TrackQuery("upsert", "reactions")()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(reaction).Error; err != nil {
		return models.NewInternalError(err)
	}
	// The returned ID is not populated on the update path; reload by key.
	if reaction.ID == 0 {
		existing, err := r.GetByUserAndPost(ctx, reaction.UserID, reaction.PostID)
		if err != nil {
			return err
		}
		if existing != nil {
			reaction.ID = existing.ID
			reaction.CreatedAt = existing.CreatedAt
		}
	}
	invalidatePostCache(ctx, r.db, reaction.PostID)
	return nil
}

func (r *reactionRepository) GetByID(ctx context.Context, id uint) (*models.Reaction, error) {
	defer observability.TrackQuery("get", "reactions")()
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Reaction", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

// GetByUserAndPost returns (nil, nil) when the user has not reacted to the post.
func (r *reactionRepository) GetByUserAndPost(ctx context.Context, userID, postID uint) (*models.Reaction, error) {
	defer observability.TrackQuery("get", "reactions")()
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Reaction, error) {
	defer observability.TrackQuery("list", "reactions")()
	var reactions []*models.Reaction
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reactions, nil
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "reactions")()
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Reaction", id)
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Reaction{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	invalidatePostCache(ctx, r.db, reaction.PostID)
	return nil
}
