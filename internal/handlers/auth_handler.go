package handlers

import (
	"errors"
	"log"

	"portfolio-backend/internal/events"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/service"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var loginAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_login_attempts_total",
		Help: "Total number of admin login attempts",
	},
	[]string{"status"},
)

type AuthHandler struct {
	authService    *service.AuthService
	jwtService     *service.JWTService
	eventPublisher events.Publisher
}

func NewAuthHandler(authService *service.AuthService, jwtService *service.JWTService, eventPublisher events.Publisher) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		jwtService:     jwtService,
		eventPublisher: eventPublisher,
	}
}

func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/login", h.Login)

	authenticated := middleware.Authenticated(h.jwtService)
	authGroup.Get("/verify", h.Verify, authenticated)
	authGroup.Put("/change-password", h.ChangePassword, authenticated)
	authGroup.Put("/change-email", h.ChangeEmail, authenticated)
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&loginRequest); err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if loginRequest.Email == "" || loginRequest.Password == "" {
		loginAttempts.WithLabelValues("failure").Inc()
		return utils.BadRequestResponse(c, "Email and password are required")
	}

	token, err := h.authService.Login(c.Context(), loginRequest.Email, loginRequest.Password)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()

		if errors.Is(err, service.ErrAccountLocked) {
			return utils.ForbiddenResponse(c, "Account temporarily locked, try again later")
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.UnauthorizedResponse(c, "Invalid email or password")
		}
		log.Printf("Login failed: %v", err)
		return utils.InternalErrorResponse(c, "Login failed", err)
	}

	loginAttempts.WithLabelValues("success").Inc()

	if h.eventPublisher != nil {
		err := h.eventPublisher.Publish(&events.Event{
			EventType: events.AdminLogin,
			Payload:   map[string]any{"email": loginRequest.Email},
		})
		if err != nil {
			log.Printf("Warning: failed to publish login event: %v", err)
		}
	}

	return utils.SuccessResponse(c, "Login successful", fiber.Map{
		"token": token,
	})
}

func (h *AuthHandler) Verify(c fiber.Ctx) error {
	claims := middleware.ClaimsFromContext(c)
	return utils.SuccessResponse(c, "Token is valid", fiber.Map{
		"email": claims.Email,
		"role":  claims.Role,
	})
}

func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	var request struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if request.CurrentPassword == "" || request.NewPassword == "" {
		return utils.BadRequestResponse(c, "Current and new passwords are required")
	}

	claims := middleware.ClaimsFromContext(c)
	err := h.authService.ChangePassword(c.Context(), claims.Email, request.CurrentPassword, request.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.UnauthorizedResponse(c, "Invalid email or password")
		}
		log.Printf("Change password failed: %v", err)
		return utils.InternalErrorResponse(c, "Failed to change password", err)
	}

	return utils.SuccessResponse(c, "Password changed successfully", nil)
}

func (h *AuthHandler) ChangeEmail(c fiber.Ctx) error {
	var request struct {
		Password string `json:"password"`
		NewEmail string `json:"newEmail"`
	}

	if err := c.Bind().Body(&request); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if request.Password == "" || request.NewEmail == "" {
		return utils.BadRequestResponse(c, "Password and new email are required")
	}

	claims := middleware.ClaimsFromContext(c)
	token, err := h.authService.ChangeEmail(c.Context(), claims.Email, request.Password, request.NewEmail)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.UnauthorizedResponse(c, "Invalid email or password")
		}
		log.Printf("Change email failed: %v", err)
		return utils.InternalErrorResponse(c, "Failed to change email", err)
	}

	return utils.SuccessResponse(c, "Email changed successfully", fiber.Map{
		"token": token,
	})
}
