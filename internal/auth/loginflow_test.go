package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flowServer fakes the two login-flow endpoints: start hands out a poll
// token, poll answers 404 until succeedAfter polls have happened.
type flowServer struct {
	*httptest.Server
	polls        atomic.Int32
	succeedAfter int32
	denyStatus   int
}

func newFlowServer(t *testing.T, succeedAfter int32, denyStatus int) *flowServer {
	t.Helper()

	fs := &flowServer{succeedAfter: succeedAfter, denyStatus: denyStatus}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /index.php/login/v2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"poll": map[string]string{
				"token":    "poll-token",
				"endpoint": fs.URL + "/login/v2/poll",
			},
			"login": fs.URL + "/login/v2/flow",
		})
	})
	mux.HandleFunc("POST /login/v2/poll", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "poll-token", r.PostFormValue("token"))

		if fs.denyStatus != 0 {
			w.WriteHeader(fs.denyStatus)
			return
		}

		if fs.polls.Add(1) <= fs.succeedAfter {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"server":      fs.URL,
			"loginName":   "alice",
			"appPassword": "app-secret",
		})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func newTestFlow(baseURL string, maxPolls int) *LoginFlow {
	flow := NewLoginFlow(baseURL)
	flow.PollInterval = time.Millisecond
	flow.MaxPolls = maxPolls
	return flow
}

func TestLoginFlowStart(t *testing.T) {
	srv := newFlowServer(t, 0, 0)
	flow := newTestFlow(srv.URL, 10)

	session, err := flow.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/login/v2/flow", session.LoginURL)
	assert.Equal(t, FlowRequested, session.State)
}

func TestLoginFlowPoll(t *testing.T) {
	t.Run("pending then succeeded", func(t *testing.T) {
		srv := newFlowServer(t, 3, 0)
		flow := newTestFlow(srv.URL, 10)

		session, err := flow.Start(context.Background())
		require.NoError(t, err)

		creds, err := flow.Poll(context.Background(), session)
		require.NoError(t, err)

		assert.Equal(t, FlowSucceeded, session.State)
		assert.Equal(t, "alice", creds.Username)
		assert.Equal(t, "app-secret", creds.Password)
		assert.GreaterOrEqual(t, srv.polls.Load(), int32(4))
	})

	t.Run("denied is terminal", func(t *testing.T) {
		srv := newFlowServer(t, 0, http.StatusUnauthorized)
		flow := newTestFlow(srv.URL, 10)

		session, err := flow.Start(context.Background())
		require.NoError(t, err)

		_, err = flow.Poll(context.Background(), session)
		require.Error(t, err)
		assert.Equal(t, FlowDenied, session.State)
	})

	t.Run("bounded polls time out", func(t *testing.T) {
		srv := newFlowServer(t, 1000, 0)
		flow := newTestFlow(srv.URL, 3)

		session, err := flow.Start(context.Background())
		require.NoError(t, err)

		_, err = flow.Poll(context.Background(), session)
		require.Error(t, err)
		assert.Equal(t, FlowTimedOut, session.State)
		assert.Equal(t, int32(3), srv.polls.Load())
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		srv := newFlowServer(t, 1000, 0)
		flow := newTestFlow(srv.URL, 1000)

		session, err := flow.Start(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err = flow.Poll(ctx, session)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, FlowTimedOut, session.State)
	})
}
