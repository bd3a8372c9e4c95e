package service

import (
	"context"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// PaymentService manages landlord payments and tells tenants about new ones.
type PaymentService struct {
	*Resource[domain.Payment, *domain.Payment]
	notifier Notifier
}

func NewPaymentService(repo port.Repository[domain.Payment], notifier Notifier, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		Resource: NewResource[domain.Payment](policy.Payment, repo, logger),
		notifier: notifier,
	}
}

func (s *PaymentService) Create(ctx context.Context, p domain.Principal, pay *domain.Payment) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Create")
	defer span.End()

	payment, err := s.Resource.Create(ctx, p, pay)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.logger, payment.Tenant, &domain.Notification{
		Title:   "New payment",
		Message: fmt.Sprintf("A %s payment of %.2f %s was recorded", payment.Type, payment.Amount, payment.Currency),
		Type:    "payment",
		Link:    "/payments/" + payment.ID,
	})
	return payment, nil
}
