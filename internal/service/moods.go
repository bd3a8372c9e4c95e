package service

import (
	"context"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

const moodWeek = 7 * 24 * time.Hour

// MoodService records agent check-ins.
type MoodService struct {
	*Resource[domain.MoodEntry, *domain.MoodEntry]
	analyzer port.Analyzer
	loc      *time.Location
}

// NewMoodService creates a mood service. Day boundaries for Daily are taken
// in loc; nil means time.Local.
func NewMoodService(repo port.Repository[domain.MoodEntry], analyzer port.Analyzer, loc *time.Location, logger *zap.Logger) *MoodService {
	if loc == nil {
		loc = time.Local
	}
	return &MoodService{
		Resource: NewResource[domain.MoodEntry](policy.Mood, repo, logger),
		analyzer: analyzer,
		loc:      loc,
	}
}

// Create stores an entry. An analyzer, if configured, may correlate it with
// the caller's past week.
func (s *MoodService) Create(ctx context.Context, p domain.Principal, m *domain.MoodEntry) (*domain.MoodEntry, error) {
	ctx, span := tracer.Start(ctx, "MoodService.Create")
	defer span.End()

	m.AICorrelation = nil
	if s.analyzer != nil {
		history, err := s.Weekly(ctx, p)
		if err == nil {
			m.AICorrelation, err = s.analyzer.AnalyzeMoods(ctx, append(history, *m))
		}
		if err != nil {
			s.logger.Warn("mood analysis failed", zap.Error(err))
			m.AICorrelation = nil
		}
	}
	return s.Resource.Create(ctx, p, m)
}

// Daily returns the caller's entries since midnight, newest first.
func (s *MoodService) Daily(ctx context.Context, p domain.Principal) ([]domain.MoodEntry, error) {
	ctx, span := tracer.Start(ctx, "MoodService.Daily")
	defer span.End()

	t := time.Now().In(s.loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	return s.List(ctx, p, domain.Query{
		Match:     domain.Match{"agent": p.UserID},
		After:     &domain.TimeBound{Field: "date", Time: midnight.Add(-time.Millisecond)},
		SortField: "date",
	})
}

// Weekly returns the caller's entries from the last seven days, oldest first.
func (s *MoodService) Weekly(ctx context.Context, p domain.Principal) ([]domain.MoodEntry, error) {
	ctx, span := tracer.Start(ctx, "MoodService.Weekly")
	defer span.End()

	return s.List(ctx, p, domain.Query{
		Match:     domain.Match{"agent": p.UserID},
		After:     &domain.TimeBound{Field: "date", Time: s.now().Add(-moodWeek)},
		SortField: "date",
		SortAsc:   true,
	})
}
