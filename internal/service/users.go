package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// UserService manages user records. Credentials only change through
// AuthService.
type UserService struct {
	*Resource[domain.User, *domain.User]
	principals port.Cache[domain.Principal]
}

// NewUserService creates a user service. principals, if non-nil, is
// invalidated whenever a user changes.
func NewUserService(repo port.Repository[domain.User], principals port.Cache[domain.Principal], logger *zap.Logger) *UserService {
	s := &UserService{
		Resource:   NewResource[domain.User](policy.User, repo, logger),
		principals: principals,
	}
	s.WithUpdateGuard(s.guardUpdate)
	return s
}

// guardUpdate keeps role, activation and email under admin control, and
// keeps emails unique when an admin changes one.
func (s *UserService) guardUpdate(ctx context.Context, p domain.Principal, prev, next *domain.User) error {
	next.Email = normalizeEmail(next.Email)
	if p.Role != domain.RoleAdmin &&
		(next.Role != prev.Role || next.IsActive != prev.IsActive || next.Email != prev.Email) {
		return &domain.ErrForbidden{Role: p.Role, Resource: string(policy.User), Action: string(policy.Update)}
	}
	if next.Email == prev.Email {
		return nil
	}

	taken, err := s.repo.List(ctx, domain.GlobalScope(), domain.Query{
		Match: domain.Match{"email": next.Email},
		Limit: 1,
	})
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if len(taken) > 0 && taken[0].ID != prev.ID {
		return &domain.ErrConflict{Message: "User already exists"}
	}
	return nil
}

func (s *UserService) Update(ctx context.Context, p domain.Principal, id string, patch json.RawMessage) (*domain.User, error) {
	u, err := s.Resource.Update(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(id)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if err := s.Resource.Delete(ctx, p, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *UserService) invalidate(id string) {
	if s.principals != nil {
		s.principals.Delete(id)
	}
}
