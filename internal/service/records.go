package service

import (
	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// Entities served by plain ownership-scoped CRUD.
type (
	LeadService     = Resource[domain.Lead, *domain.Lead]
	PropertyService = Resource[domain.Property, *domain.Property]
	DocumentService = Resource[domain.Document, *domain.Document]
)

func NewLeadService(repo port.Repository[domain.Lead], logger *zap.Logger) *LeadService {
	return NewResource[domain.Lead](policy.Lead, repo, logger)
}

func NewPropertyService(repo port.Repository[domain.Property], logger *zap.Logger) *PropertyService {
	return NewResource[domain.Property](policy.Property, repo, logger)
}

func NewDocumentService(repo port.Repository[domain.Document], logger *zap.Logger) *DocumentService {
	return NewResource[domain.Document](policy.Document, repo, logger)
}
