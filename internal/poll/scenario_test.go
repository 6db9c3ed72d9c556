package poll

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sattelclub/internal/core"
	httpclient "sattelclub/internal/http"
	"sattelclub/internal/signup"
	"sattelclub/testserver"
)

// replyServer answers each signup with the next body, repeating the last.
func replyServer(t *testing.T, bodies ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		i := calls
		if i >= len(bodies) {
			i = len(bodies) - 1
		}
		calls++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bodies[i]))
	}))
	t.Cleanup(server.Close)
	return server
}

func runScenario(t *testing.T, url string, cfg Config, timeout time.Duration) (signup.State, []core.Event, error) {
	t.Helper()
	attempt := signup.NewAttempt(httpclient.NewClient(httpclient.Options{Timeout: timeout}))
	reporter := &mockReporter{}
	tgt := core.Target{ServiceURL: url, ActivityID: "abc123", Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}

	state, err := NewDriver(attempt, reporter, nil, cfg).Run(context.Background(), ada, tgt)
	return state, reporter.events, err
}

func TestScenario_Success(t *testing.T) {
	server := replyServer(t, `{"error": null}`)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
}

func TestScenario_Full(t *testing.T) {
	server := replyServer(t, `{"error": "Groupride is full!"}`)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneFull(), state)
}

func TestScenario_NotFoundThenSuccess(t *testing.T) {
	server := replyServer(t, `{"error": "Groupride doesn't exist!"}`, `{"error": null}`)

	state, events, err := runScenario(t, server.URL, Config{Interval: 5 * time.Millisecond}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
	require.Len(t, events, 2)
	require.Equal(t, "pending", events[0].State)
}

func TestScenario_NotFoundStaysPending(t *testing.T) {
	server := replyServer(t, `{"error": "Groupride doesn't exist!"}`)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, time.Second)

	require.ErrorIs(t, err, ErrMaxAttemptsReached)
	require.Equal(t, signup.Pending, state)
}

func TestScenario_AlreadySignedUp(t *testing.T) {
	server := replyServer(t, `{"error": "It looks like you are already signed up with your email address"}`)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
}

func TestScenario_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	defer close(release)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, 50*time.Millisecond)

	require.NoError(t, err)
	require.True(t, state.IsDone())
	require.Equal(t, signup.ReasonError, state.Reason())
	require.Contains(t, state.Detail(), "Timeout")
}

func TestScenario_UnknownMessage(t *testing.T) {
	server := replyServer(t, `{"error": "Signups are closed for maintenance"}`)

	state, _, err := runScenario(t, server.URL, Config{Once: true}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneError("Signups are closed for maintenance"), state)
}

func TestScenario_ServerError(t *testing.T) {
	ts := httptest.NewServer(testserver.NewServer().Handler())
	defer ts.Close()

	state, _, err := runScenario(t, ts.URL+"/status/503", Config{Once: true}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.ReasonError, state.Reason())
	require.True(t, strings.Contains(state.Detail(), "503"), state.Detail())
}

func TestScenario_FakeServiceOpensLater(t *testing.T) {
	fake := testserver.NewServer()
	fake.OpenRideAfter("abc123-2024-03-15", 10, false, 3)
	ts := httptest.NewServer(fake.Handler())
	defer ts.Close()

	state, events, err := runScenario(t, ts.URL+testserver.SignupPath, Config{Interval: 2 * time.Millisecond}, time.Second)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
	require.Len(t, events, 4)
	confirmed, _ := fake.Signups("abc123-2024-03-15")
	require.Equal(t, []string{"ada@example.com"}, confirmed)
}
