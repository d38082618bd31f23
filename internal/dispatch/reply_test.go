package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPReplySenderPostsMessage(t *testing.T) {
	var got outboundMessage
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPReplySender(srv.URL, "key-123", nil)
	err := sender.SendReply(context.Background(), "org-1", "sms:org-1:+15550001111", "+15550001111", "Which time works?")
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "org-1", got.OrgID)
	assert.Equal(t, "sms:org-1:+15550001111", got.ConversationID)
	assert.Equal(t, "+15550001111", got.ToPhone)
	assert.Equal(t, "Which time works?", got.Body)
}

func TestHTTPReplySenderSurfacesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewHTTPReplySender(srv.URL, "", nil)
	err := sender.SendReply(context.Background(), "org-1", "conv", "+15550001111", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewHTTPReplySenderPanicsOnEmptyEndpoint(t *testing.T) {
	assert.Panics(t, func() { NewHTTPReplySender("", "", nil) })
}

func TestLogReplySenderNeverFails(t *testing.T) {
	sender := NewLogReplySender(nil)
	assert.NoError(t, sender.SendReply(context.Background(), "org-1", "conv", "+15550001111", "hi"))
}
