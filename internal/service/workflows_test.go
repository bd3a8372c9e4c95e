package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/cache"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================================
// Calls
// ============================================================

func newCall() *domain.Call {
	return &domain.Call{ClientName: "Maria Santos", Duration: ptr(320), Transcription: "hello"}
}

func TestCall_CreateIgnoresServerFields(t *testing.T) {
	analyzer := &stubAnalyzer{call: &domain.CallAnalysis{ClientInterest: "high", ConfidenceScore: 0.8}}
	calls := service.NewCallService(newRepo[domain.Call](connected(), "Call"), analyzer, nil, zap.NewNop())

	in := newCall()
	in.CoachFeedback = &domain.CoachFeedback{Feedback: "self review", Rating: 5}
	got, err := calls.Create(context.Background(), alice, in)
	require.NoError(t, err)

	assert.Nil(t, got.CoachFeedback)
	require.NotNil(t, got.AIAnalysis)
	assert.Equal(t, "high", got.AIAnalysis.ClientInterest)
	assert.Equal(t, "neutral", got.Sentiment)
}

func TestCall_AnalyzerErrorIsIgnored(t *testing.T) {
	analyzer := &stubAnalyzer{err: assert.AnError}
	calls := service.NewCallService(newRepo[domain.Call](connected(), "Call"), analyzer, nil, zap.NewNop())

	got, err := calls.Create(context.Background(), alice, newCall())
	require.NoError(t, err)
	assert.Nil(t, got.AIAnalysis)
}

func TestCall_FeedbackOnce(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	calls := service.NewCallService(newRepo[domain.Call](connected(), "Call"), nil, notifier, zap.NewNop())
	call, err := calls.Create(ctx, alice, newCall())
	require.NoError(t, err)

	req := &domain.FeedbackRequest{Feedback: "Good rapport", Rating: 4, Strengths: []string{"listening"}}

	_, err = calls.AddFeedback(ctx, alice, call.ID, req)
	requireAs[*domain.ErrForbidden](t, err)

	reviewed, err := calls.AddFeedback(ctx, coach, call.ID, req)
	require.NoError(t, err)
	require.NotNil(t, reviewed.CoachFeedback)
	assert.Equal(t, coach.UserID, reviewed.CoachFeedback.CoachID)
	assert.False(t, reviewed.CoachFeedback.ReviewedAt.IsZero())
	assert.Equal(t, []string{}, reviewed.CoachFeedback.Improvements)

	_, err = calls.AddFeedback(ctx, manager, call.ID, req)
	requireAs[*domain.ErrConflict](t, err)

	assert.Len(t, notifier.For(alice.UserID), 1)
}

func TestCall_FeedbackValidation(t *testing.T) {
	ctx := context.Background()
	calls := service.NewCallService(newRepo[domain.Call](connected(), "Call"), nil, nil, zap.NewNop())
	call, err := calls.Create(ctx, alice, newCall())
	require.NoError(t, err)

	_, err = calls.AddFeedback(ctx, manager, call.ID, &domain.FeedbackRequest{Feedback: "x", Rating: 9})
	requireAs[*domain.ErrValidation](t, err)
}

// ============================================================
// Tasks
// ============================================================

func TestTask_AssigneeScopeAndResolve(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	tasks := service.NewTaskService(newRepo[domain.Task](connected(), "Task"), notifier, zap.NewNop())

	_, err := tasks.Create(ctx, alice, &domain.Task{Type: "follow-up", Title: "Call back"})
	requireAs[*domain.ErrForbidden](t, err)

	task, err := tasks.Create(ctx, manager, &domain.Task{Type: "follow-up", Title: "Call back", AssignedTo: alice.UserID})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status)
	assert.Len(t, notifier.For(alice.UserID), 1)

	visible, err := tasks.List(ctx, alice, domain.Query{})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	_, err = tasks.Get(ctx, bob, task.ID)
	requireAs[*domain.ErrNotFound](t, err)

	done, err := tasks.Resolve(ctx, alice, task.ID, &domain.ResolveTaskRequest{Response: "Client confirmed"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, done.Status)
	assert.Equal(t, "Client confirmed", done.Response)
	require.NotNil(t, done.ResolvedAt)
	assert.Len(t, notifier.For(manager.UserID), 1)
}

// ============================================================
// Moods
// ============================================================

func TestMood_DailyAndWeekly(t *testing.T) {
	ctx := context.Background()
	repo := newRepo[domain.MoodEntry](connected(), "MoodEntry")
	analyzer := &stubAnalyzer{moods: &domain.MoodCorrelation{Insights: []string{"steady"}}}
	moods := service.NewMoodService(repo, analyzer, time.UTC, zap.NewNop())

	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, d := range []time.Time{now.Add(-10 * 24 * time.Hour), now.Add(-3 * 24 * time.Hour), now} {
		_, err := moods.Create(ctx, alice, &domain.MoodEntry{EntryType: "morning", Date: d, Mood: ptr(7)})
		require.NoError(t, err)
	}
	_, err := moods.Create(ctx, bob, &domain.MoodEntry{EntryType: "morning", Date: now, Mood: ptr(4)})
	require.NoError(t, err)

	daily, err := moods.Daily(ctx, alice)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, now, daily[0].Date)
	require.NotNil(t, daily[0].AICorrelation)

	weekly, err := moods.Weekly(ctx, alice)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.True(t, weekly[0].Date.Before(weekly[1].Date), "oldest first")

	all, err := moods.List(ctx, manager, domain.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = moods.Create(ctx, alice, &domain.MoodEntry{EntryType: "morning", Mood: ptr(11)})
	requireAs[*domain.ErrValidation](t, err)
}

// ============================================================
// Payments
// ============================================================

func TestPayment_NotifiesTenantAndGate(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	payments := service.NewPaymentService(newRepo[domain.Payment](connected(), "Payment"), notifier, zap.NewNop())

	pay, err := payments.Create(ctx, lord, &domain.Payment{Tenant: tenant.UserID, Amount: 25000})
	require.NoError(t, err)
	assert.Equal(t, lord.UserID, pay.Landlord)
	assert.Equal(t, "PHP", pay.Currency)

	sent := notifier.For(tenant.UserID)
	require.Len(t, sent, 1)
	assert.Equal(t, "payment", sent[0].Type)

	err = payments.Delete(ctx, manager, pay.ID)
	requireAs[*domain.ErrForbidden](t, err)
	_, err = payments.Get(ctx, lord, pay.ID)
	require.NoError(t, err, "denied delete has no side effect")
}

// ============================================================
// Users
// ============================================================

func TestUser_UpdateRestrictions(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t, false)
	resp := registerAlice(t, f)
	self := resp.User.Principal()

	principals := cache.New[domain.Principal](time.Minute)
	defer principals.Close()
	principals.Set(self.UserID, self)
	users := service.NewUserService(f.users, principals, zap.NewNop())

	_, err := users.Update(ctx, self, self.UserID, json.RawMessage(`{"role":"admin"}`))
	requireAs[*domain.ErrForbidden](t, err)

	updated, err := users.Update(ctx, self, self.UserID, json.RawMessage(`{"phone":"+63 999","password":"hijack"}`))
	require.NoError(t, err)
	assert.Equal(t, "+63 999", updated.Phone)
	assert.Equal(t, resp.User.PasswordHash, updated.PasswordHash)
	_, cached := principals.Get(self.UserID)
	assert.False(t, cached)

	promoted, err := users.Update(ctx, admin, self.UserID, json.RawMessage(`{"role":"manager"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, promoted.Role)

	_, err = users.Update(ctx, admin, self.UserID, json.RawMessage(`{"role":"coach"}`))
	requireAs[*domain.ErrValidation](t, err)

	_, err = users.List(ctx, self, domain.Query{})
	requireAs[*domain.ErrForbidden](t, err)

	_, err = users.Get(ctx, bob, self.UserID)
	requireAs[*domain.ErrNotFound](t, err)

	require.NoError(t, users.Delete(ctx, admin, self.UserID))
}

func TestUser_EmailChangeMustStayUnique(t *testing.T) {
	ctx := context.Background()
	// No unique index: the service check alone must hold the line.
	repo := newRepo[domain.User](connected(), "User")
	seed := func(id, email string) {
		require.NoError(t, repo.Insert(ctx, &domain.User{
			Meta:     domain.Meta{ID: id},
			FullName: id, Email: email, Phone: "+63 900", Company: "Elevare",
			Role: domain.RoleAgent, IsActive: true,
			Preferences: domain.UserPreferences{Theme: "dark"},
		}))
	}
	seed("u-alice", "alice@example.com")
	seed("u-bob", "bob@example.com")
	users := service.NewUserService(repo, nil, zap.NewNop())

	_, err := users.Update(ctx, admin, "u-bob", json.RawMessage(`{"email":" ALICE@example.com "}`))
	conflict := requireAs[*domain.ErrConflict](t, err)
	assert.Equal(t, "User already exists", conflict.Message)

	got, err := users.Get(ctx, admin, "u-bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email, "rejected change leaves the record untouched")

	// Re-saving the current address in another case is not a conflict.
	same, err := users.Update(ctx, admin, "u-alice", json.RawMessage(`{"email":"Alice@Example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", same.Email)

	moved, err := users.Update(ctx, admin, "u-bob", json.RawMessage(`{"email":"robert@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", moved.Email)
}

// ============================================================
// Notifications
// ============================================================

type stubPublisher struct{ delivered bool }

func (p stubPublisher) Publish(string, *domain.Notification) bool { return p.delivered }

type countingMetrics struct{ delivered, dropped int }

func (m *countingMetrics) IncrNotification(delivered bool) {
	if delivered {
		m.delivered++
	} else {
		m.dropped++
	}
}

func TestNotifications_NotifyListMarkRead(t *testing.T) {
	ctx := context.Background()
	metrics := &countingMetrics{}
	svc := service.NewNotificationService(newRepo[domain.Notification](connected(), "Notification"),
		stubPublisher{delivered: true}, metrics, zap.NewNop())

	for i := 0; i < 25; i++ {
		require.NoError(t, svc.Notify(ctx, alice.UserID, &domain.Notification{Title: "t", Message: "m"}))
	}
	require.NoError(t, svc.Notify(ctx, bob.UserID, &domain.Notification{Title: "t", Message: "m", Type: "task"}))
	assert.Equal(t, 26, metrics.delivered)

	recent, err := svc.Recent(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, recent, 20)

	read, err := svc.MarkRead(ctx, alice, recent[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	_, err = svc.MarkRead(ctx, bob, recent[1].ID)
	requireAs[*domain.ErrNotFound](t, err)

	err = svc.Notify(ctx, alice.UserID, &domain.Notification{Title: "t", Message: "m", Type: "gossip"})
	requireAs[*domain.ErrValidation](t, err)
}
