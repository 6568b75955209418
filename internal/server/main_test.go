package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Tatiana-20/tati-blog/internal/auth"
	"github.com/Tatiana-20/tati-blog/internal/config"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/notifications"
	"github.com/Tatiana-20/tati-blog/internal/repository"
	"github.com/Tatiana-20/tati-blog/internal/service"
)

type nopMailer struct{}

func (nopMailer) SendActivation(to, name, activationURL string) error { return nil }
func (nopMailer) SendPasswordReset(to, name, resetURL string) error   { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		JWTSecret:           "test-access-secret",
		JWTRefreshSecret:    "test-refresh-secret",
		AccessExpiryMinutes: 15,
		RefreshExpiryDays:   7,
		FrontendURL:         "http://localhost:3001",
	}
}

// newTestServer wires a Server against an in-memory database, without the
// metrics middleware so repeated test setups do not re-register collectors.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
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

	cfg := testConfig()
	s := &Server{
		config:       cfg,
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		postRepo:     repository.NewPostRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		reactionRepo: repository.NewReactionRepository(db),
		hub:          notifications.NewPostHub(),
	}
	tokens := auth.NewTokenService(cfg)
	s.userService = service.NewUserService(s.userRepo)
	s.authService = service.NewAuthService(s.userRepo, tokens, nopMailer{}, cfg.FrontendURL)
	s.postService = service.NewPostService(s.postRepo, nil, s.hub, s.userService.IsAdmin)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, nil, s.hub, s.userService.IsAdmin)
	s.reactionService = service.NewReactionService(s.reactionRepo, s.postRepo, nil, s.hub, s.userService.IsAdmin)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app, db
}

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

// accessToken mints a valid access token for the user.
func accessToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.NewTokenService(testConfig()).GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
