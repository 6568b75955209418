package repository

import (
	"context"
	"errors"

	"github.com/Tatiana-20/tati-blog/internal/cache"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	SlugsLike(ctx context.Context, base string, excludeID uint) ([]string, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withCounts adds subqueries so comment and reaction counts come back in the
// same query.
func (r *postRepository) withCounts(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id) AS reactions_count")
}

// invalidatePostCache drops both cache entries for a post. Writes that only
// know the post id resolve the slug first, otherwise the slug-keyed entry
// would keep stale comment and reaction counts until its TTL expires.
func invalidatePostCache(ctx context.Context, db *gorm.DB, postID uint) {
	if cache.GetClient() == nil {
		return
	}
	var slugs []string
	db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).Limit(1).Pluck("slug", &slugs)
	slug := ""
	if len(slugs) > 0 {
		slug = slugs[0]
	}
	cache.InvalidatePost(ctx, postID, slug)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.withCounts(r.db.WithContext(ctx)).
			Preload("Author").
			First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()
	var post models.Post
	err := cache.Aside(ctx, cache.PostSlugKey(slug), &post, cache.PostTTL, func() error {
		if err := r.withCounts(r.db.WithContext(ctx)).
			Preload("Author").
			Where("slug = ?", slug).
			First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundMessage("Post not found")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []*models.Post
	if err := r.withCounts(r.db.WithContext(ctx)).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// SlugsLike returns every slug equal to base or starting with "base-",
// optionally excluding one post. Used for numeric-suffix disambiguation.
func (r *postRepository) SlugsLike(ctx context.Context, base string, excludeID uint) ([]string, error) {
	defer observability.TrackQuery("list", "posts")()
	var slugs []string
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck("slug", &slugs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return slugs, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Slug already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID, post.Slug)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return models.NewInternalError(err)
	}
	// Comments and reactions are removed explicitly so the delete leaves no
	// orphans on databases without FK cascades.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id, post.Slug)
	return nil
}
