// Package directory manages user profile documents: lazy creation on first
// access, merge-write edits, role management and deletion.
package directory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/projection"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Service coordinates profile reads and writes.
type Service struct {
	gw     gateway.Gateway
	logger *zap.Logger
}

// NewService constructs the service.
func NewService(gw gateway.Gateway, logger *zap.Logger) *Service {
	return &Service{gw: gw, logger: logger}
}

// ProfileInput carries editable profile fields.
type ProfileInput struct {
	Name       string
	Phone      string
	Location   string
	Department string
}

// GetProfile returns the identity's profile, creating a minimal one on first
// access via a keyed merge-write.
func (s *Service) GetProfile(ctx context.Context, ident domain.Identity) (domain.UserProfile, error) {
	doc, err := s.gw.GetDocument(ctx, gateway.CollectionUsers, ident.UID)
	if err == gateway.ErrNotFound {
		profile := domain.UserProfile{
			UID:   ident.UID,
			Name:  ident.DisplayName,
			Email: ident.Email,
		}
		patch := map[string]any{
			"name":  profile.Name,
			"email": profile.Email,
		}
		if err := s.gw.WriteDocument(ctx, gateway.CollectionUsers, ident.UID, patch); err != nil {
			return domain.UserProfile{}, apperrors.NewWriteError("profile create", err)
		}
		s.logger.Info("profile created", zap.String("uid", ident.UID))
		return profile, nil
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.DecodeProfile(doc)
}

// SaveProfile merge-writes profile edits. The email is pinned to the
// identity; clients cannot change it.
func (s *Service) SaveProfile(ctx context.Context, ident domain.Identity, input ProfileInput) error {
	if _, err := s.GetProfile(ctx, ident); err != nil {
		return err
	}
	patch := map[string]any{
		"name":       strings.TrimSpace(input.Name),
		"phone":      strings.TrimSpace(input.Phone),
		"location":   strings.TrimSpace(input.Location),
		"department": strings.TrimSpace(input.Department),
		"email":      ident.Email,
	}
	if err := s.gw.WriteDocument(ctx, gateway.CollectionUsers, ident.UID, patch); err != nil {
		return apperrors.NewWriteError("profile save", err)
	}
	return nil
}

// SetRole merge-writes the role field on a profile. Like the other profile
// writes this is a keyed upsert, so granting a role to a uid without a
// profile document yet still takes effect.
func (s *Service) SetRole(ctx context.Context, uid string, role domain.Role) error {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	patch := map[string]any{"role": role}
	if err := s.gw.WriteDocument(ctx, gateway.CollectionUsers, uid, patch); err != nil {
		return apperrors.NewWriteError("role update", err)
	}
	s.logger.Info("role updated", zap.String("uid", uid), zap.String("role", string(role)))
	return nil
}

// DeleteUser removes a profile document.
func (s *Service) DeleteUser(ctx context.Context, uid string) error {
	if err := s.gw.DeleteDocument(ctx, gateway.CollectionUsers, uid); err != nil {
		if err == gateway.ErrNotFound {
			return apperrors.NewNotFound("user", map[string]any{"uid": uid})
		}
		return apperrors.NewWriteError("user delete", err)
	}
	s.logger.Info("user deleted", zap.String("uid", uid))
	return nil
}

// ListUsers fetches the full directory, admin view.
func (s *Service) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	return projection.Fetch(ctx, s.gw, gateway.Query{Collection: gateway.CollectionUsers}, domain.DecodeProfile)
}
