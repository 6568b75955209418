package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Tatiana-20/tati-blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Name: "A", Lastname: "B", Email: "dup@example.com", Password: "x", UserSecret: "s1"}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.User{Name: "C", Lastname: "D", Email: "dup@example.com", Password: "x", UserSecret: "s2"}
	err := repo.Create(ctx, second)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestUserRepositoryGetByEmailMissing(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepositoryGetByActivationToken(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	token := "activation-token-1"
	user := &models.User{Name: "A", Lastname: "B", Email: "a@example.com", Password: "x", UserSecret: "s1", ActivationToken: &token}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.GetByActivationToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetByActivationToken(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositorySoftDelete(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "del@example.com", "s-del")
	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	// Row survives as a soft-deleted record.
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRepositoryDeleteMissing(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	err := repo.Delete(context.Background(), 9999)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestUserRepositoryUserSecretInUse(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "sec@example.com", "taken-secret")

	used, err := repo.UserSecretInUse(ctx, "taken-secret")
	require.NoError(t, err)
	assert.True(t, used)

	free, err := repo.UserSecretInUse(ctx, "free-secret")
	require.NoError(t, err)
	assert.False(t, free)
}
