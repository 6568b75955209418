package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

func TestListUsersAdminGated(t *testing.T) {
	_, app, db := newTestServer(t)
	user := seedUser(t, db, "user@example.com", "Sup3rSecret!", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", "Sup3rSecret!", models.RoleAdmin)

	resp := doJSON(t, app, http.MethodGet, "/api/users", accessToken(t, user), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/users", accessToken(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	decodeJSON(t, resp, &users)
	assert.Len(t, users, 2)
}

func TestUserResponseHidesSecrets(t *testing.T) {
	_, app, db := newTestServer(t)
	user := seedUser(t, db, "user@example.com", "Sup3rSecret!", models.RoleUser)

	resp := doJSON(t, app, http.MethodGet, "/api/users/1", accessToken(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, user.Email, body["email"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "user_secret")
	assert.NotContains(t, body, "UserSecret")
}

func TestUpdateUserProfileOverHTTP(t *testing.T) {
	_, app, db := newTestServer(t)
	user := seedUser(t, db, "user@example.com", "Sup3rSecret!", models.RoleUser)
	other := seedUser(t, db, "other@example.com", "Sup3rSecret!", models.RoleUser)

	resp := doJSON(t, app, http.MethodPatch, "/api/users/1", accessToken(t, user), map[string]string{
		"name": "Updated",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.User
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "Updated", updated.Name)

	resp = doJSON(t, app, http.MethodPatch, "/api/users/1", accessToken(t, other), map[string]string{
		"name": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDeleteUserAdminGated(t *testing.T) {
	_, app, db := newTestServer(t)
	user := seedUser(t, db, "user@example.com", "Sup3rSecret!", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", "Sup3rSecret!", models.RoleAdmin)

	resp := doJSON(t, app, http.MethodDelete, "/api/users/1", accessToken(t, user), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/users/1", accessToken(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// soft deleted: the row survives but the API no longer serves it
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	resp = doJSON(t, app, http.MethodGet, "/api/users/1", accessToken(t, admin), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/ws", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	_ = resp.Body.Close()
}
