// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Tatiana-20/tati-blog/internal/auth"
	"github.com/Tatiana-20/tati-blog/internal/mail"
	"github.com/Tatiana-20/tati-blog/internal/middleware"
	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/repository"
	"github.com/Tatiana-20/tati-blog/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost matches the cost the accounts were originally hashed with.
	bcryptCost = 15

	// tokenGenAttempts bounds the defensive uniqueness check when minting
	// opaque tokens. UUIDs are collision-resistant; the loop exists so a
	// freak collision surfaces as a clean error instead of a DB failure.
	tokenGenAttempts = 3

	resetTokenTTL = time.Hour
)

// AuthService implements registration, account activation, password recovery
// and the token flows.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	mailer      mail.Mailer
	frontendURL string
}

// NewAuthService returns a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	mailer mail.Mailer,
	frontendURL string,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Name     string
	Lastname string
	Email    string
	Password string
}

// LoginResult is the payload returned on successful login.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	User         string `json:"user"`
}

func (s *AuthService) newUniqueToken(ctx context.Context, inUse func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < tokenGenAttempts; i++ {
		token := uuid.NewString()
		used, err := inUse(ctx, token)
		if err != nil {
			return "", err
		}
		if !used {
			return token, nil
		}
	}
	return "", models.NewInternalError(errors.New("could not mint a unique token"))
}

func (s *AuthService) activationTokenInUse(ctx context.Context, token string) (bool, error) {
	user, err := s.users.GetByActivationToken(ctx, token)
	return user != nil, err
}

func (s *AuthService) resetTokenInUse(ctx context.Context, token string) (bool, error) {
	user, err := s.users.GetByPasswordResetToken(ctx, token)
	return user != nil, err
}

// Register creates an inactive account and emails the activation link. The
// caller only gets a human-readable message; tokens travel by mail.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := validation.ValidateName("name", in.Name); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("lastname", in.Lastname); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return "", err
	} else if existing != nil {
		return "", models.NewConflictError("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	activationToken, err := s.newUniqueToken(ctx, s.activationTokenInUse)
	if err != nil {
		return "", err
	}
	userSecret, err := s.newUniqueToken(ctx, s.users.UserSecretInUse)
	if err != nil {
		return "", err
	}

	user := &models.User{
		Name:            in.Name,
		Lastname:        in.Lastname,
		Email:           in.Email,
		Password:        string(hashed),
		UserSecret:      userSecret,
		Role:            models.RoleUser,
		IsActive:        false,
		ActivationToken: &activationToken,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	activationURL := s.frontendURL + "/auth/activate/" + activationToken
	if err := s.mailer.SendActivation(user.Email, user.Name, activationURL); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send activation email",
			slog.String("email", user.Email), slog.String("error", err.Error()))
	}

	return "Usuario registrado con éxito, por favor revisa tu correo para activar tu cuenta", nil
}

// Activate consumes an activation token. A token that was already consumed no
// longer matches any row and fails with NotFound.
func (s *AuthService) Activate(ctx context.Context, token string) (string, error) {
	user, err := s.users.GetByActivationToken(ctx, token)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewNotFoundMessage("Activation token not found")
	}
	if user.IsActive {
		return "", models.NewValidationError("Account is already active")
	}

	user.IsActive = true
	user.ActivationToken = nil
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}

	return "Cuenta activada con éxito", nil
}

// PasswordRecovery mints a reset token with a one hour expiry and mails the
// recovery link. The token is never returned to the caller.
func (s *AuthService) PasswordRecovery(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewNotFoundMessage("User not found")
	}

	resetToken, err := s.newUniqueToken(ctx, s.resetTokenInUse)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(resetTokenTTL)
	user.PasswordResetToken = &resetToken
	user.PasswordResetTokenExpiresAt = &expiresAt
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}

	resetURL := s.frontendURL + "/auth/password-recovery/" + resetToken
	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send password reset email",
			slog.String("email", user.Email), slog.String("error", err.Error()))
	}

	return "Por favor revisa tu correo para restablecer tu contraseña", nil
}

// ResetPassword consumes a reset token: it re-hashes the password, rotates the
// user secret so every outstanding access token dies, and clears the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, repeatPassword string) (string, error) {
	if password != repeatPassword {
		return "", models.NewValidationError("Passwords do not match")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByPasswordResetToken(ctx, token)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewNotFoundMessage("Reset token not found")
	}
	if user.PasswordResetTokenExpiresAt == nil || time.Now().After(*user.PasswordResetTokenExpiresAt) {
		return "", models.NewNotFoundMessage("Reset token expired")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	newSecret, err := s.newUniqueToken(ctx, s.users.UserSecretInUse)
	if err != nil {
		return "", err
	}

	user.Password = string(hashed)
	user.UserSecret = newSecret
	user.PasswordResetToken = nil
	user.PasswordResetTokenExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}

	return "Contraseña restablecida con éxito", nil
}

// Login verifies the credentials and issues the token pair. Unknown email and
// wrong password share one message so accounts cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Email:        user.Email,
		User:         user.FullName(),
	}, nil
}

// RefreshToken verifies a refresh token against the global refresh secret and
// mints a fresh access token with the user's current per-user key.
//
// Refresh tokens deliberately survive user-secret rotation; only the access
// path is cut off by a password reset.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid refresh token")
	}
	userID, err := auth.SubjectID(claims)
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid refresh token")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return accessToken, nil
}

// ValidateAccessToken resolves an access token to its owner. The unverified
// decode runs first because the signing key depends on which user the token
// claims to belong to; nothing is trusted until the signature check passes.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.DecodeSubject(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid token: could not decode user id")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid token: user not found")
	}
	if user.UserSecret == "" {
		return nil, models.NewUnauthorizedError("Invalid token: user has no signing secret")
	}

	if _, err := s.tokens.VerifyAccessToken(token, user); err != nil {
		return nil, models.NewUnauthorizedError("Invalid token: " + err.Error())
	}

	return user, nil
}
