package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Tatiana-20/tati-blog/internal/auth"
	"github.com/Tatiana-20/tati-blog/internal/config"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(&config.Config{
		JWTSecret:           "test-access-secret",
		JWTRefreshSecret:    "test-refresh-secret",
		AccessExpiryMinutes: 15,
		RefreshExpiryDays:   7,
	})
}

// seedUser creates an active user with a real (cheap) bcrypt hash so login
// flows can be exercised without paying the production cost factor.
func seedUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Name:       "Test",
		Lastname:   "User",
		Email:      email,
		Password:   string(hash),
		UserSecret: uuid.NewString(),
		Role:       role,
		IsActive:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedPost(t *testing.T, db *gorm.DB, authorID uint, title, slug string, status models.PostStatus) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:    title,
		Content:  "content",
		Slug:     slug,
		Status:   status,
		AuthorID: authorID,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// captureMailer records outgoing mail instead of sending it.
type captureMailer struct {
	mu             sync.Mutex
	activationURLs []string
	resetURLs      []string
}

func (m *captureMailer) SendActivation(to, name, activationURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activationURLs = append(m.activationURLs, activationURL)
	return nil
}

func (m *captureMailer) SendPasswordReset(to, name, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func (m *captureMailer) lastActivationURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.activationURLs) == 0 {
		return ""
	}
	return m.activationURLs[len(m.activationURLs)-1]
}

func (m *captureMailer) lastResetURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resetURLs) == 0 {
		return ""
	}
	return m.resetURLs[len(m.resetURLs)-1]
}

func newTestAuthService(t *testing.T, db *gorm.DB) (*AuthService, *captureMailer) {
	t.Helper()
	mailer := &captureMailer{}
	svc := NewAuthService(
		repository.NewUserRepository(db),
		newTestTokenService(),
		mailer,
		"http://localhost:3001",
	)
	return svc, mailer
}

func newTestPostService(db *gorm.DB) *PostService {
	users := NewUserService(repository.NewUserRepository(db))
	return NewPostService(repository.NewPostRepository(db), nil, nil, users.IsAdmin)
}

func newTestCommentService(db *gorm.DB) *CommentService {
	users := NewUserService(repository.NewUserRepository(db))
	return NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
		nil, nil,
		users.IsAdmin,
	)
}

func newTestReactionService(db *gorm.DB) *ReactionService {
	users := NewUserService(repository.NewUserRepository(db))
	return NewReactionService(
		repository.NewReactionRepository(db),
		repository.NewPostRepository(db),
		nil, nil,
		users.IsAdmin,
	)
}
