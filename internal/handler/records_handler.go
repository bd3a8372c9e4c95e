package handler

import (
	"net/http"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/observability"
	"github.com/elevare/elevare-backend-go/internal/infra/realtime"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Calls: POST /api/v1/calls/{id}/feedback
// ============================================================

func callFeedbackHandler(svc *service.CallService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/v1/calls/{id}/feedback")
		defer span.End()

		var req domain.FeedbackRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		call, err := svc.AddFeedback(ctx, caller(r), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, call)
	}
}

// ============================================================
// Tasks: PUT /api/v1/tasks/{id}/resolve
// ============================================================

func taskResolveHandler(svc *service.TaskService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/v1/tasks/{id}/resolve")
		defer span.End()

		var req domain.ResolveTaskRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}

		task, err := svc.Resolve(ctx, caller(r), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, task)
	}
}

// ============================================================
// Moods: GET /api/v1/moods/daily (/daily-analysis), /weekly (/weekly-trends)
// ============================================================

func moodDailyHandler(svc *service.MoodService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/moods/daily")
		defer span.End()

		entries, err := svc.Daily(ctx, caller(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, entries)
	}
}

func moodWeeklyHandler(svc *service.MoodService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/moods/weekly")
		defer span.End()

		entries, err := svc.Weekly(ctx, caller(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, entries)
	}
}

// ============================================================
// Notifications: /api/v1/notifications
// ============================================================

func listNotificationsHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/notifications")
		defer span.End()

		items, err := svc.Recent(ctx, caller(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, items)
	}
}

func markNotificationReadHandler(svc *service.NotificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/v1/notifications/{id}/read")
		defer span.End()

		n, err := svc.MarkRead(ctx, caller(r), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, n)
	}
}

func notificationStreamHandler(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, caller(r).UserID)
	}
}

// ============================================================
// System: GET /api/v1/system/metrics
// ============================================================

func systemMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, metrics.Snapshot())
	}
}
