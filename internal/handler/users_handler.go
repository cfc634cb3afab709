package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
	"github.com/hackforge/platform/internal/service"
)

// UsersHandler exposes the admin-only user management endpoints.
type UsersHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(authService service.AuthService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		authService: authService,
		logger:      logger,
	}
}

// UpdateRole changes another user's role. The gatekeeper already requires
// ADMIN for this namespace; the service re-checks and rejects
// self-escalation.
func (h *UsersHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	claims := ClaimsFromContext(c)
	targetID := c.Param("id")

	err = h.authService.UpdateUserRole(c.Request.Context(), claims, targetID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "You cannot change this user's role.",
			})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "Not found",
				Message: "User not found.",
			})
		default:
			h.logger.Error("role update failed",
				zap.String("target_id", targetID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "Failed to update role.",
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Role updated. The change applies at the user's next sign-in.",
	})
}
