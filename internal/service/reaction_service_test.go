package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

func TestReactUpsertsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReactionService(db)
	author := seedUser(t, db, "author@example.com", "Sup3rSecret!", models.RoleUser)
	post := seedPost(t, db, author.ID, "Post", "post", models.PostStatusPublished)
	ctx := context.Background()

	first, err := svc.React(ctx, ReactInput{UserID: author.ID, PostID: post.ID, Type: models.ReactionLike})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.React(ctx, ReactInput{UserID: author.ID, PostID: post.ID, Type: models.ReactionLove})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReactionLove, second.Type)

	var count int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReactInvalidType(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReactionService(db)
	author := seedUser(t, db, "author@example.com", "Sup3rSecret!", models.RoleUser)
	post := seedPost(t, db, author.ID, "Post", "post", models.PostStatusPublished)

	_, err := svc.React(context.Background(), ReactInput{
		UserID: author.ID, PostID: post.ID, Type: "MEH",
	})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestReactMissingPost(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReactionService(db)
	user := seedUser(t, db, "user@example.com", "Sup3rSecret!", models.RoleUser)

	_, err := svc.React(context.Background(), ReactInput{
		UserID: user.ID, PostID: 42, Type: models.ReactionLike,
	})
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestRemoveReactionOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReactionService(db)
	author := seedUser(t, db, "author@example.com", "Sup3rSecret!", models.RoleUser)
	stranger := seedUser(t, db, "stranger@example.com", "Sup3rSecret!", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", "Sup3rSecret!", models.RoleAdmin)
	post := seedPost(t, db, author.ID, "Post", "post", models.PostStatusPublished)
	ctx := context.Background()

	reaction, err := svc.React(ctx, ReactInput{UserID: author.ID, PostID: post.ID, Type: models.ReactionLike})
	require.NoError(t, err)

	err = svc.RemoveReaction(ctx, stranger.ID, reaction.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	require.NoError(t, svc.RemoveReaction(ctx, admin.ID, reaction.ID))

	reactions, err := svc.ListReactions(ctx, post.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestListReactionsBoundsLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReactionService(db)
	author := seedUser(t, db, "author@example.com", "Sup3rSecret!", models.RoleUser)
	post := seedPost(t, db, author.ID, "Post", "post", models.PostStatusPublished)
	ctx := context.Background()

	types := []models.ReactionType{models.ReactionLike, models.ReactionLove, models.ReactionLike}
	for i, typ := range types {
		reactor := seedUser(t, db, fmt.Sprintf("reactor%d@example.com", i), "Sup3rSecret!", models.RoleUser)
		_, err := svc.React(ctx, ReactInput{UserID: reactor.ID, PostID: post.ID, Type: typ})
		require.NoError(t, err)
	}

	all, err := svc.ListReactions(ctx, post.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.ListReactions(ctx, post.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.ListReactions(ctx, post.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	_, err = svc.ListReactions(ctx, 42, 0, 0)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
