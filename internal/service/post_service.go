package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Tatiana-20/tati-blog/internal/middleware"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/notifications"
	"github.com/Tatiana-20/tati-blog/internal/repository"
)

const (
	maxTitleLen = 255

	// slugRetryAttempts bounds the retry loop when a concurrent insert grabs
	// the computed slug between the lookup and the write.
	slugRetryAttempts = 3
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into its URL slug: lowercased, non-alphanumeric runs
// collapsed to single hyphens.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// PostService implements post CRUD with slug management and realtime
// notifications.
type PostService struct {
	posts    repository.PostRepository
	notifier *notifications.Notifier
	hub      *notifications.PostHub
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

// NewPostService returns a new PostService. The notifier and hub may be nil;
// notifications are best-effort.
func NewPostService(
	posts repository.PostRepository,
	notifier *notifications.Notifier,
	hub *notifications.PostHub,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{posts: posts, notifier: notifier, hub: hub, isAdmin: isAdmin}
}

// CreatePostInput carries the post creation payload.
type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
	Status   models.PostStatus
}

// UpdatePostInput carries the post update payload. Nil fields stay unchanged.
type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   *string
	Content *string
	Status  *models.PostStatus
}

// uniqueSlug computes the disambiguated slug for the title: the base slug if
// free, otherwise base-1, base-2, ... The post's own row is excluded so a
// title-preserving update keeps its slug.
func (s *PostService) uniqueSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", models.NewValidationError("Title must contain at least one alphanumeric character")
	}

	taken, err := s.posts.SlugsLike(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	inUse := make(map[string]struct{}, len(taken))
	for _, slug := range taken {
		inUse[slug] = struct{}{}
	}

	if _, exists := inUse[base]; !exists {
		return base, nil
	}
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if _, exists := inUse[candidate]; !exists {
			return candidate, nil
		}
	}
}

func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeConflict
}

func (s *PostService) validate(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 255 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

// CreatePost creates a post and, when it is published, announces it globally.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := s.validate(in.Title, in.Content); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	switch status {
	case models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived:
	default:
		return nil, models.NewValidationError("Invalid post status")
	}

	var post *models.Post
	for attempt := 0; attempt < slugRetryAttempts; attempt++ {
		slug, err := s.uniqueSlug(ctx, in.Title, 0)
		if err != nil {
			return nil, err
		}
		post = &models.Post{
			Title:    in.Title,
			Content:  in.Content,
			Slug:     slug,
			Status:   status,
			AuthorID: in.AuthorID,
		}
		err = s.posts.Create(ctx, post)
		if err == nil {
			break
		}
		// A concurrent writer took the slug; recompute and try again.
		if isConflict(err) && attempt < slugRetryAttempts-1 {
			continue
		}
		return nil, err
	}

	if status == models.PostStatusPublished {
		s.announceNewPost(ctx)
	}

	return s.posts.GetByID(ctx, post.ID)
}

// announceNewPost fans out the global notification. With Redis available the
// publish loops back through the hub's subscriber (reaching every process);
// otherwise delivery is local only.
func (s *PostService) announceNewPost(ctx context.Context) {
	if s.notifier.Enabled() {
		if err := s.notifier.PublishNewPost(ctx); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish new post notification",
				slog.String("error", err.Error()))
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastAll(notifications.NewPostFrame())
	}
}

// GetPost returns a single post by id.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// GetPostBySlug returns a single post by slug.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.posts.GetBySlug(ctx, slug)
}

// ListPosts returns a page of posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, limit, offset)
}

func (s *PostService) authorize(ctx context.Context, userID, ownerID uint, action string) error {
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
	return models.NewForbiddenError("You can only " + action + " your own posts")
}

// UpdatePost applies a partial update. A title change recomputes the slug,
// excluding the post's own row from the collision check.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, post.AuthorID, "update"); err != nil {
		return nil, err
	}

	if in.Title != nil && *in.Title != post.Title {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewValidationError("Title is required")
		}
		if len(*in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 255 characters)")
		}
		slug, err := s.uniqueSlug(ctx, *in.Title, post.ID)
		if err != nil {
			return nil, err
		}
		post.Title = *in.Title
		post.Slug = slug
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, models.NewValidationError("Content is required")
		}
		post.Content = *in.Content
	}

	wasPublished := post.Status == models.PostStatusPublished
	if in.Status != nil {
		switch *in.Status {
		case models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived:
			post.Status = *in.Status
		default:
			return nil, models.NewValidationError("Invalid post status")
		}
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	if !wasPublished && post.Status == models.PostStatusPublished {
		s.announceNewPost(ctx)
	}

	return s.posts.GetByID(ctx, post.ID)
}

// DeletePost removes a post permanently; comments and reactions go with it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, post.AuthorID, "delete"); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}
