package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridMailer_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer(
		MailConfig{APIKey: "sg-key", From: "noreply@elevare.app", FromName: "Elevare", Sandbox: true},
		resilience.NewCircuitBreaker("sendgrid-test", nil),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
	)
	m.baseURL = srv.URL

	err := m.Send(context.Background(), domain.Mail{To: "alice@example.com", ToName: "Alice", Subject: "Welcome", Text: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Welcome", got["subject"])
	settings := got["mail_settings"].(map[string]any)
	assert.Equal(t, true, settings["sandbox_mode"].(map[string]any)["enable"])
}

type countingErrors struct{ by map[string]int }

func (c *countingErrors) IncrExternalError(service string) { c.by[service]++ }

func TestSendGridMailer_ErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantHits    int32
		wantFailure bool
	}{
		{"unauthorized is not retried", http.StatusUnauthorized, 1, false},
		{"bad request is not retried", http.StatusBadRequest, 1, false},
		{"throttled is retried", http.StatusTooManyRequests, 3, true},
		{"server error is retried", http.StatusServiceUnavailable, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cb := resilience.NewCircuitBreaker("sendgrid-test", nil)
			counter := &countingErrors{by: map[string]int{}}
			m := NewSendGridMailer(MailConfig{APIKey: "bad"}, cb,
				resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}).WithMetrics(counter)
			m.baseURL = srv.URL

			err := m.Send(context.Background(), domain.Mail{To: "a@b.c", Subject: "x", Text: "x"})
			var ext *domain.ErrExternalService
			require.ErrorAs(t, err, &ext)
			assert.Equal(t, "sendgrid", ext.Service)

			assert.Equal(t, tt.wantHits, hits.Load())
			assert.Equal(t, 1, counter.by["sendgrid"])
			if tt.wantFailure {
				assert.EqualValues(t, 1, cb.Counts().TotalFailures)
			} else {
				assert.Zero(t, cb.Counts().TotalFailures, "a rejected message says nothing about provider health")
			}
		})
	}
}

func TestSendGridMailer_SuccessIsNotCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	counter := &countingErrors{by: map[string]int{}}
	m := NewSendGridMailer(MailConfig{APIKey: "sg-key"}, resilience.NewCircuitBreaker("sendgrid-test", nil),
		resilience.Config{}).WithMetrics(counter)
	m.baseURL = srv.URL

	require.NoError(t, m.Send(context.Background(), domain.Mail{To: "a@b.c", Subject: "x", Text: "x"}))
	assert.Empty(t, counter.by)
}
