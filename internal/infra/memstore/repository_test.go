package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/memstore"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(id, agent, assignee string, created time.Time) *domain.Task {
	t := &domain.Task{Agent: agent, AssignedTo: assignee, Type: "follow-up", Title: id}
	t.ID = id
	t.CreatedAt = created
	t.UpdatedAt = created
	t.ApplyDefaults()
	return t
}

func seed(t *testing.T) *memstore.Repository[domain.Task] {
	t.Helper()
	repo := memstore.NewRepository[domain.Task](readiness.New(domain.Connected, nil), "Task")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newTask("t1", "mgr", "alice", base)))
	require.NoError(t, repo.Insert(ctx, newTask("t2", "mgr", "bob", base.Add(time.Hour))))
	require.NoError(t, repo.Insert(ctx, newTask("t3", "alice", "", base.Add(2*time.Hour))))
	return repo
}

func TestList_ScopeAcrossOwnerFields(t *testing.T) {
	repo := seed(t)

	got, err := repo.List(context.Background(), domain.OwnedBy("alice", "agent", "assignedTo"), domain.Query{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t3", got[0].ID, "newest first")
	assert.Equal(t, "t1", got[1].ID)
}

func TestList_MatchSortLimit(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	got, err := repo.List(ctx, domain.GlobalScope(), domain.Query{Match: domain.Match{"agent": "mgr"}, SortAsc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)

	after := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	got, err = repo.List(ctx, domain.GlobalScope(), domain.Query{After: &domain.TimeBound{Field: "createdAt", Time: after}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGet_OutOfScopeLooksLikeMissing(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	_, errForeign := repo.Get(ctx, "t3", domain.OwnedBy("bob", "agent", "assignedTo"))
	_, errMissing := repo.Get(ctx, "nope", domain.OwnedBy("bob", "agent", "assignedTo"))

	var nf *domain.ErrNotFound
	require.ErrorAs(t, errForeign, &nf)
	require.ErrorAs(t, errMissing, &nf)
	assert.Equal(t, errMissing.Error(), errForeign.Error())
}

func TestReplace_Condition(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	task, err := repo.Get(ctx, "t1", domain.GlobalScope())
	require.NoError(t, err)
	task.Resolve("done", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Replace(ctx, "t1", domain.OwnedBy("alice", "assignedTo"), domain.Match{"resolvedAt": nil}, task))
	err = repo.Replace(ctx, "t1", domain.GlobalScope(), domain.Match{"resolvedAt": nil}, task)
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)

	stored, err := repo.Get(ctx, "t1", domain.GlobalScope())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, stored.Status)
	assert.Equal(t, "done", stored.Response)
}

func TestDelete_Twice(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "t2", domain.GlobalScope()))
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, repo.Delete(ctx, "t2", domain.GlobalScope()), &nf)
	assert.Equal(t, 2, repo.Len())
}

func TestInsert_UniqueField(t *testing.T) {
	repo := memstore.NewRepository[domain.User](readiness.New(domain.Connected, nil), "User", "email")
	ctx := context.Background()

	u1 := &domain.User{FullName: "Alice", Email: "alice@example.com"}
	u1.ID = "u1"
	u2 := &domain.User{FullName: "Alicia", Email: "alice@example.com"}
	u2.ID = "u2"

	require.NoError(t, repo.Insert(ctx, u1))
	var conflict *domain.ErrConflict
	assert.ErrorAs(t, repo.Insert(ctx, u2), &conflict)
}

func TestUnavailable(t *testing.T) {
	tracker := readiness.New(domain.Connected, nil)
	repo := memstore.NewRepository[domain.Task](tracker, "Task")
	tracker.Set(domain.Disconnected)

	var unavailable *domain.ErrUnavailable
	_, err := repo.List(context.Background(), domain.GlobalScope(), domain.Query{})
	assert.ErrorAs(t, err, &unavailable)
	assert.ErrorAs(t, repo.Insert(context.Background(), newTask("x", "a", "", time.Now())), &unavailable)
	assert.Equal(t, 0, repo.Len())
}
