package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLeads(t *testing.T) (*service.LeadService, *readinessRepo) {
	t.Helper()
	ready := connected()
	repo := newRepo[domain.Lead](ready, "Lead")
	return service.NewLeadService(repo, zap.NewNop()), &readinessRepo{ready: ready, n: repo.Len}
}

type readinessRepo struct {
	ready interface{ Set(domain.ConnState) }
	n     func() int
}

func TestLead_CreateForcesOwnerAndDefaults(t *testing.T) {
	leads, _ := newLeads(t)

	in := &domain.Lead{Agent: bob.UserID, ClientName: "Maria Santos", Phone: "+63 912 000 1111", InterestedIn: "buying"}
	got, err := leads.Create(context.Background(), alice, in)
	require.NoError(t, err)

	assert.Equal(t, alice.UserID, got.Agent, "owner comes from the caller")
	assert.Equal(t, domain.LeadNew, got.Status)
	assert.Equal(t, "medium", got.Priority)
	assert.NotEmpty(t, got.ID)

	fetched, err := leads.Get(context.Background(), alice, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, fetched)
}

func TestLead_CreateValidation(t *testing.T) {
	leads, repo := newLeads(t)

	_, err := leads.Create(context.Background(), alice, &domain.Lead{Phone: "1", InterestedIn: "flying"})
	verr := requireAs[*domain.ErrValidation](t, err)
	assert.Contains(t, verr.Errors, `"clientName" is required`)
	assert.Contains(t, verr.Errors, `"interestedIn" must be one of [buying, renting, selling]`)

	_, err = leads.Create(context.Background(), alice, &domain.Lead{
		ClientName: "X", Phone: "1", InterestedIn: "renting",
		Budget: domain.Budget{Min: ptr(500.0), Max: ptr(100.0)},
	})
	requireAs[*domain.ErrValidation](t, err)
	assert.Zero(t, repo.n())
}

func TestLead_RoleGateRunsBeforeStorage(t *testing.T) {
	leads, repo := newLeads(t)

	_, err := leads.Create(context.Background(), lord, &domain.Lead{ClientName: "X", Phone: "1", InterestedIn: "buying"})
	forbidden := requireAs[*domain.ErrForbidden](t, err)
	assert.Equal(t, "User role 'landlord' is not authorized to access this route", forbidden.Error())
	assert.Zero(t, repo.n())
}

func TestLead_OutOfScopeIsNotFound(t *testing.T) {
	ctx := context.Background()
	leads, _ := newLeads(t)
	lead, err := leads.Create(ctx, alice, &domain.Lead{ClientName: "X", Phone: "1", InterestedIn: "buying"})
	require.NoError(t, err)

	_, errForeign := leads.Get(ctx, bob, lead.ID)
	_, errMissing := leads.Get(ctx, bob, "does-not-exist")
	nf1 := requireAs[*domain.ErrNotFound](t, errForeign)
	nf2 := requireAs[*domain.ErrNotFound](t, errMissing)
	assert.Equal(t, nf2.Error(), nf1.Error())

	_, err = leads.Update(ctx, bob, lead.ID, json.RawMessage(`{"status":"won"}`))
	requireAs[*domain.ErrNotFound](t, err)

	list, err := leads.List(ctx, bob, domain.Query{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = leads.List(ctx, manager, domain.Query{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "managers cross scope")
}

func TestLead_UpdateMergesAndKeepsOwner(t *testing.T) {
	ctx := context.Background()
	leads, _ := newLeads(t)
	lead, err := leads.Create(ctx, alice, &domain.Lead{
		ClientName: "X", Phone: "1", InterestedIn: "buying", Notes: []string{"first"},
	})
	require.NoError(t, err)

	updated, err := leads.Update(ctx, alice, lead.ID, json.RawMessage(`{"status":"contacted","agent":"u-bob","id":"forged"}`))
	require.NoError(t, err)
	assert.Equal(t, "contacted", updated.Status)
	assert.Equal(t, alice.UserID, updated.Agent)
	assert.Equal(t, lead.ID, updated.ID)
	assert.Equal(t, lead.CreatedAt, updated.CreatedAt)
	assert.Equal(t, []string{"first"}, updated.Notes)

	_, err = leads.Update(ctx, alice, lead.ID, json.RawMessage(`{"status":"archived"}`))
	requireAs[*domain.ErrValidation](t, err)
}

func TestLead_DeleteTwiceIsNotFound(t *testing.T) {
	ctx := context.Background()
	leads, _ := newLeads(t)
	lead, err := leads.Create(ctx, alice, &domain.Lead{ClientName: "X", Phone: "1", InterestedIn: "buying"})
	require.NoError(t, err)

	require.NoError(t, leads.Delete(ctx, manager, lead.ID))
	requireAs[*domain.ErrNotFound](t, leads.Delete(ctx, manager, lead.ID))
}

func TestLead_Unavailable(t *testing.T) {
	leads, repo := newLeads(t)
	repo.ready.Set(domain.Disconnected)

	_, err := leads.List(context.Background(), alice, domain.Query{})
	requireAs[*domain.ErrUnavailable](t, err)
	_, err = leads.Create(context.Background(), alice, &domain.Lead{ClientName: "X", Phone: "1", InterestedIn: "buying"})
	requireAs[*domain.ErrUnavailable](t, err)
}

func TestDocument_AlertBeforeKeepsExplicitZero(t *testing.T) {
	docs := service.NewDocumentService(newRepo[domain.Document](connected(), "Document"), zap.NewNop())
	ctx := context.Background()

	defaulted, err := docs.Create(ctx, alice, &domain.Document{Title: "Lease", Type: "lease-agreement", FileURL: "https://files.example.com/lease.pdf"})
	require.NoError(t, err)
	require.NotNil(t, defaulted.AlertBefore)
	assert.Equal(t, domain.DefaultAlertBefore, *defaulted.AlertBefore)

	off, err := docs.Create(ctx, alice, &domain.Document{Title: "ID", Type: "id", FileURL: "https://files.example.com/id.pdf", AlertBefore: ptr(0)})
	require.NoError(t, err)
	fetched, err := docs.Get(ctx, alice, off.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.AlertBefore)
	assert.Zero(t, *fetched.AlertBefore)

	updated, err := docs.Update(ctx, alice, defaulted.ID, json.RawMessage(`{"alertBefore":0}`))
	require.NoError(t, err)
	assert.Zero(t, *updated.AlertBefore)

	_, err = docs.Create(ctx, alice, &domain.Document{Title: "X", Type: "other", FileURL: "https://f/x", AlertBefore: ptr(-1)})
	requireAs[*domain.ErrValidation](t, err)
}
