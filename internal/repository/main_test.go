package repository

import (
	"testing"

	"github.com/Tatiana-20/tati-blog/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
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

func createTestUser(t *testing.T, db *gorm.DB, email, secret string) *models.User {
	t.Helper()
	user := &models.User{
		Name:       "Test",
		Lastname:   "User",
		Email:      email,
		Password:   "hashed",
		UserSecret: secret,
		IsActive:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, authorID uint, title, slug string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:    title,
		Content:  "content",
		Slug:     slug,
		Status:   models.PostStatusPublished,
		AuthorID: authorID,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}
