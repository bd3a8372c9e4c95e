package service

import (
	"context"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// TaskService manages tasks visible to their creator and assignee.
type TaskService struct {
	*Resource[domain.Task, *domain.Task]
	notifier Notifier
}

func NewTaskService(repo port.Repository[domain.Task], notifier Notifier, logger *zap.Logger) *TaskService {
	return &TaskService{
		Resource: NewResource[domain.Task](policy.Task, repo, logger),
		notifier: notifier,
	}
}

// Create stores the task and notifies its assignee.
func (s *TaskService) Create(ctx context.Context, p domain.Principal, t *domain.Task) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Create")
	defer span.End()

	t.Response = ""
	t.ResolvedAt = nil
	task, err := s.Resource.Create(ctx, p, t)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != "" && task.AssignedTo != p.UserID {
		notify(ctx, s.notifier, s.logger, task.AssignedTo, &domain.Notification{
			Title:   "New task assigned",
			Message: task.Title,
			Type:    "task",
			Link:    "/tasks/" + task.ID,
		})
	}
	return task, nil
}

// Resolve completes the task with a response and notifies its creator.
func (s *TaskService) Resolve(ctx context.Context, p domain.Principal, id string, req *domain.ResolveTaskRequest) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Resolve")
	defer span.End()

	task, err := s.mutate(ctx, p, id, policy.Resolve, nil, nil, func(_, next *domain.Task) error {
		next.Resolve(req.Response, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task resolved", zap.String("task_id", id), zap.String("user_id", p.UserID))
	if task.Agent != p.UserID {
		notify(ctx, s.notifier, s.logger, task.Agent, &domain.Notification{
			Title:   "Task completed",
			Message: task.Title,
			Type:    "task",
			Link:    "/tasks/" + task.ID,
		})
	}
	return task, nil
}
