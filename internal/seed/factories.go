// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/service"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "Password123!"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
	hash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) (*Factory, error) {
	gofakeit.Seed(time.Now().UnixNano())

	// the default password is hashed once, cheaply; seeded data is not for
	// production use
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		hash: string(hash),
	}, nil
}

// CreateUser persists an active user with a fake identity.
func (f *Factory) CreateUser(role models.Role) (*models.User, error) {
	user := &models.User{
		Name:       gofakeit.FirstName(),
		Lastname:   gofakeit.LastName(),
		Email:      fmt.Sprintf("%s-%s", uuid.NewString()[:8], gofakeit.Email()),
		Password:   f.hash,
		UserSecret: uuid.NewString(),
		Role:       role,
		IsActive:   true,
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a published post with a realistic created_at spread
// over the last 90 days.
func (f *Factory) CreatePost(author *models.User) (*models.Post, error) {
	title := gofakeit.Sentence(f.rand.Intn(5) + 3)
	post := &models.Post{
		Title:    title,
		Content:  gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Slug:     service.Slugify(title) + "-" + uuid.NewString()[:8],
		Status:   models.PostStatusPublished,
		AuthorID: author.ID,
	}
	daysBack := f.rand.Intn(90)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(f.rand.Intn(24))*time.Hour)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment, optionally replying to parent.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(f.rand.Intn(12) + 3),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

var reactionTypes = []models.ReactionType{
	models.ReactionLike,
	models.ReactionLove,
	models.ReactionHaha,
	models.ReactionSad,
	models.ReactionAngry,
}

// CreateReaction persists a reaction with a random type. Duplicate
// (user, post) pairs are skipped silently.
func (f *Factory) CreateReaction(user *models.User, post *models.Post) error {
	reaction := &models.Reaction{
		UserID: user.ID,
		PostID: post.ID,
		Type:   reactionTypes[f.rand.Intn(len(reactionTypes))],
	}
	err := f.db.Create(reaction).Error
	if err != nil && f.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).
		First(&models.Reaction{}).Error == nil {
		return nil
	}
	return err
}
