package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

func TestReactionUpsertOverHTTP(t *testing.T) {
	_, app, db := newTestServer(t)
	author := seedUser(t, db, "author@example.com", "Sup3rSecret!", models.RoleUser)
	token := accessToken(t, author)

	resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]string{
		"title": "Reactable", "content": "body",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post models.Post
	decodeJSON(t, resp, &post)

	resp = doJSON(t, app, http.MethodPost, "/api/reactions", token, map[string]any{
		"post_id": post.ID, "type": "LIKE",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first models.Reaction
	decodeJSON(t, resp, &first)

	resp = doJSON(t, app, http.MethodPost, "/api/reactions", token, map[string]any{
		"post_id": post.ID, "type": "LOVE",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second models.Reaction
	decodeJSON(t, resp, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReactionLove, second.Type)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/1/reactions", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reactions []models.Reaction
	decodeJSON(t, resp, &reactions)
	require.Len(t, reactions, 1)

	resp = doJSON(t, app, http.MethodPost, "/api/reactions", token, map[string]any{
		"post_id": post.ID, "type": "MEH",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
