package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSlackNotifier(t *testing.T) {
	assert := assert.New(t)

	var got SlackWebhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		assert.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := &SlackNotifier{SlackWebhookURL: srv.URL, Limiter: rate.NewLimiter(rate.Every(time.Millisecond), 1)}
	err := n.SendModLog(context.Background(), ModLogEntry{
		GuildID:   "g1",
		Action:    SpamLogAction,
		Target:    Actor{ID: "u1", Tag: "someone"},
		Moderator: Actor{ID: "900", Tag: "aegis#0001"},
		Reason:    SpamLogReason,
		Duration:  "5 minutes",
		CaseID:    7,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(got.Text, SpamLogAction)
	assert.Contains(got.Text, "Duration: 5 minutes")
	assert.Contains(got.Text, "Case: #7")
	assert.Contains(got.Text, "Reason: "+SpamLogReason)
}

func TestSlackNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := &SlackNotifier{SlackWebhookURL: srv.URL}
	assert.Error(t, n.SendModLog(context.Background(), ModLogEntry{Action: "x"}))
}
