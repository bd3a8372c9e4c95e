package service

import (
	"context"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

var errFeedbackExists = &domain.ErrConflict{Message: "Feedback already added to this call"}

// CallService records calls and accepts one coach review per call.
type CallService struct {
	*Resource[domain.Call, *domain.Call]
	analyzer port.Analyzer
	notifier Notifier
}

// NewCallService creates a call service. analyzer and notifier may be nil.
func NewCallService(repo port.Repository[domain.Call], analyzer port.Analyzer, notifier Notifier, logger *zap.Logger) *CallService {
	return &CallService{
		Resource: NewResource[domain.Call](policy.Call, repo, logger),
		analyzer: analyzer,
		notifier: notifier,
	}
}

// Create stores a call. Analysis and feedback are never taken from the
// caller; an analyzer, if configured, may attach analysis.
func (s *CallService) Create(ctx context.Context, p domain.Principal, c *domain.Call) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "CallService.Create")
	defer span.End()

	if err := policy.Authorize(p, policy.Call, policy.Create); err != nil {
		return nil, err
	}

	c.AIAnalysis = nil
	c.CoachFeedback = nil
	if s.analyzer != nil && c.Transcription != "" {
		analysis, err := s.analyzer.AnalyzeCall(ctx, c.Transcription)
		if err != nil {
			s.logger.Warn("call analysis failed", zap.Error(err))
		} else {
			c.AIAnalysis = analysis
		}
	}

	return s.Resource.Create(ctx, p, c)
}

// AddFeedback attaches the caller's review. A call can be reviewed once.
func (s *CallService) AddFeedback(ctx context.Context, p domain.Principal, id string, req *domain.FeedbackRequest) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "CallService.AddFeedback")
	defer span.End()

	if err := policy.Authorize(p, policy.Call, policy.Feedback); err != nil {
		return nil, err
	}
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	call, err := s.mutate(ctx, p, id, policy.Feedback, domain.Match{"coachFeedback": nil}, errFeedbackExists,
		func(prev, next *domain.Call) error {
			if prev.CoachFeedback != nil {
				return errFeedbackExists
			}
			next.CoachFeedback = &domain.CoachFeedback{
				CoachID:           p.UserID,
				Feedback:          req.Feedback,
				Rating:            req.Rating,
				Strengths:         nonNil(req.Strengths),
				Improvements:      nonNil(req.Improvements),
				CorrectiveScripts: nonNil(req.CorrectiveScripts),
				ReviewedAt:        s.now(),
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("coach feedback added", zap.String("call_id", id), zap.String("coach_id", p.UserID))
	if call.Agent != p.UserID {
		notify(ctx, s.notifier, s.logger, call.Agent, &domain.Notification{
			Title:   "New coach feedback",
			Message: "Feedback was added to your call with " + call.ClientName,
			Type:    "info",
			Link:    "/calls/" + call.ID,
		})
	}
	return call, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
