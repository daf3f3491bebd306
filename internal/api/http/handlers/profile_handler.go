package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/directory"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ProfileHandler manages the caller's own directory profile.
type ProfileHandler struct {
	directory *directory.Service
}

// NewProfileHandler constructs handler.
func NewProfileHandler(dir *directory.Service) *ProfileHandler {
	return &ProfileHandler{directory: dir}
}

// GetProfile GET /profile. Creates the profile lazily on first access.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profile, err := h.directory.GetProfile(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// SaveProfile PUT /profile.
func (h *ProfileHandler) SaveProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SaveProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	err := h.directory.SaveProfile(c.UserContext(), identity, directory.ProfileInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Location:   req.Location,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "profile saved"})
}
