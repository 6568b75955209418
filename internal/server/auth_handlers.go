package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/service"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Lastname string `json:"lastname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

// Activate handles GET /api/auth/activate/:token
func (s *Server) Activate(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Activation token is required"))
	}

	msg, err := s.authService.Activate(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}

// PasswordRecovery handles POST /api/auth/password-recovery
func (s *Server) PasswordRecovery(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.authService.PasswordRecovery(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}

// ResetPassword handles POST /api/auth/password-recovery/:token
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	token := c.Params("token")
	var req struct {
		Password       string `json:"password"`
		RepeatPassword string `json:"repeat_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.authService.ResetPassword(c.UserContext(), token, req.Password, req.RepeatPassword)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// RefreshToken handles GET /api/auth/refresh-token/:token
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required"))
	}

	accessToken, err := s.authService.RefreshToken(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"access_token": accessToken})
}
