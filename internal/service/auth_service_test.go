package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestRegisterAndActivate(t *testing.T) {
	db := setupTestDB(t)
	svc, mailer := newTestAuthService(t, db)
	ctx := context.Background()

	msg, err := svc.Register(ctx, RegisterInput{
		Name:     "Tatiana",
		Lastname: "Mora",
		Email:    "tatiana@example.com",
		Password: "Sup3rSecret!",
	})
	require.NoError(t, err)
	assert.Contains(t, msg, "Usuario registrado")

	var user models.User
	require.NoError(t, db.Where("email = ?", "tatiana@example.com").First(&user).Error)
	assert.False(t, user.IsActive)
	require.NotNil(t, user.ActivationToken)
	assert.NotEmpty(t, user.UserSecret)
	assert.NotEqual(t, "Sup3rSecret!", user.Password)

	activationURL := mailer.lastActivationURL()
	require.NotEmpty(t, activationURL)
	token := strings.TrimPrefix(activationURL, "http://localhost:3001/auth/activate/")
	assert.Equal(t, *user.ActivationToken, token)

	msg, err = svc.Activate(ctx, token)
	require.NoError(t, err)
	assert.Contains(t, msg, "activada")

	require.NoError(t, db.Where("email = ?", "tatiana@example.com").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.ActivationToken)

	// the token was consumed, so replaying it matches nothing
	_, err = svc.Activate(ctx, token)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)
	seedUser(t, db, "taken@example.com", "Sup3rSecret!", models.RoleUser)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Other",
		Lastname: "Person",
		Email:    "taken@example.com",
		Password: "Sup3rSecret!",
	})
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)
	seedUser(t, db, "known@example.com", "Sup3rSecret!", models.RoleUser)
	ctx := context.Background()

	_, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever")
	_, errWrongPass := svc.Login(ctx, "known@example.com", "wrong-password")

	assertAppErrorCode(t, errUnknown, models.CodeUnauthorized)
	assertAppErrorCode(t, errWrongPass, models.CodeUnauthorized)
	// unknown email and wrong password are indistinguishable
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestLoginIssuesUsableTokens(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)
	user := seedUser(t, db, "login@example.com", "Sup3rSecret!", models.RoleUser)
	ctx := context.Background()

	result, err := svc.Login(ctx, "login@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", result.Email)
	assert.Equal(t, user.FullName(), result.User)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	validated, err := svc.ValidateAccessToken(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	newAccess, err := svc.RefreshToken(ctx, result.RefreshToken)
	require.NoError(t, err)
	validated, err = svc.ValidateAccessToken(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)

	_, err := svc.RefreshToken(context.Background(), "not-a-token")
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func TestPasswordResetRotatesUserSecret(t *testing.T) {
	db := setupTestDB(t)
	svc, mailer := newTestAuthService(t, db)
	user := seedUser(t, db, "reset@example.com", "OldPassw0rd!", models.RoleUser)
	ctx := context.Background()

	login, err := svc.Login(ctx, "reset@example.com", "OldPassw0rd!")
	require.NoError(t, err)

	_, err = svc.PasswordRecovery(ctx, "reset@example.com")
	require.NoError(t, err)
	resetURL := mailer.lastResetURL()
	require.NotEmpty(t, resetURL)
	token := strings.TrimPrefix(resetURL, "http://localhost:3001/auth/password-recovery/")

	msg, err := svc.ResetPassword(ctx, token, "NewPassw0rd!", "NewPassw0rd!")
	require.NoError(t, err)
	assert.Contains(t, msg, "restablecida")

	var after models.User
	require.NoError(t, db.First(&after, user.ID).Error)
	assert.NotEqual(t, user.UserSecret, after.UserSecret)
	assert.Nil(t, after.PasswordResetToken)

	// every access token minted before the reset is dead
	_, err = svc.ValidateAccessToken(ctx, login.AccessToken)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	// but the refresh token survives and mints a working access token
	newAccess, err := svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	validated, err := svc.ValidateAccessToken(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	_, err = svc.Login(ctx, "reset@example.com", "OldPassw0rd!")
	assertAppErrorCode(t, err, models.CodeUnauthorized)
	_, err = svc.Login(ctx, "reset@example.com", "NewPassw0rd!")
	require.NoError(t, err)
}

func TestResetPasswordMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)

	_, err := svc.ResetPassword(context.Background(), "any", "NewPassw0rd!", "Different1!")
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)
	user := seedUser(t, db, "expired@example.com", "OldPassw0rd!", models.RoleUser)

	token := "expired-token"
	expired := time.Now().Add(-time.Minute)
	user.PasswordResetToken = &token
	user.PasswordResetTokenExpiresAt = &expired
	require.NoError(t, db.Save(user).Error)

	_, err := svc.ResetPassword(context.Background(), token, "NewPassw0rd!", "NewPassw0rd!")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPasswordRecoveryUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)

	_, err := svc.PasswordRecovery(context.Background(), "ghost@example.com")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestValidateAccessTokenTamperedSubject(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAuthService(t, db)
	seedUser(t, db, "a@example.com", "Sup3rSecret!", models.RoleUser)
	victim := seedUser(t, db, "b@example.com", "Sup3rSecret!", models.RoleUser)
	ctx := context.Background()

	login, err := svc.Login(ctx, "a@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	// a token signed with one user's key never validates against another's
	tokens := newTestTokenService()
	forged, err := tokens.GenerateAccessToken(&models.User{
		ID:         victim.ID,
		Email:      victim.Email,
		Role:       victim.Role,
		UserSecret: "guessed-secret",
	})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(ctx, forged)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))

	validated, err := svc.ValidateAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", validated.Email)
}
