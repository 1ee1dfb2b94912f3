package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/testutil"
)

type fakeClient struct {
	respond func(ctx context.Context, question string) (ask.Response, error)
}

func (f fakeClient) Ask(ctx context.Context, question string) (ask.Response, error) {
	return f.respond(ctx, question)
}

func (fakeClient) Endpoint() string { return "http://fake" }

func answerWith(answer string) fakeClient {
	return fakeClient{respond: func(context.Context, string) (ask.Response, error) {
		return ask.Response{Answer: answer, SQL: "SELECT 1"}, nil
	}}
}

func TestApplyTransitions(t *testing.T) {
	var s State
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.Loading())

	s, ok := Apply(s, Submitted{ID: 1})
	require.True(t, ok)
	assert.True(t, s.Loading())

	_, ok = Apply(s, Completed{ID: 2, Result: ask.Failure{Answer: "x"}})
	assert.False(t, ok, "completion for an unknown id must not commit")

	s, ok = Apply(s, Completed{ID: 1, Result: ask.Failure{Answer: "x"}})
	require.True(t, ok)
	assert.False(t, s.Loading())
	result, settled := s.Settled()
	require.True(t, settled)
	assert.Equal(t, ask.Failure{Answer: "x"}, result)

	_, ok = Apply(s, Completed{ID: 1, Result: ask.Failure{Answer: "again"}})
	assert.False(t, ok, "a settled state ignores repeated completions")

	_, ok = Apply(s, Submitted{ID: 1})
	assert.False(t, ok, "submission ids must increase")
}

func TestApplyNilResultSettlesAsFailure(t *testing.T) {
	s, _ := Apply(State{}, Submitted{ID: 1})
	s, ok := Apply(s, Completed{ID: 1})
	require.True(t, ok)
	assert.Equal(t, ask.Failure{Answer: ask.FallbackMessage}, s.Result)
}

func TestNormalize(t *testing.T) {
	_, ok := Normalize("   \n\t ")
	assert.False(t, ok)
	_, ok = Normalize("")
	assert.False(t, ok)
	q, ok := Normalize("  Show all projects \n")
	assert.True(t, ok)
	assert.Equal(t, "Show all projects", q)
}

func TestLifecycleLoadingSpansTheRequest(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		expect ask.Result
	}{
		{name: "success", expect: ask.Success{Answer: "done", SQL: "SELECT 1"}},
		{name: "failure", err: errors.New("connection refused"), expect: ask.Failure{Answer: ask.FallbackMessage}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			release := make(chan struct{})
			client := fakeClient{respond: func(ctx context.Context, q string) (ask.Response, error) {
				<-release
				if tc.err != nil {
					return ask.Response{}, tc.err
				}
				return ask.Response{Answer: "done", SQL: "SELECT 1"}, nil
			}}
			lc := New(client, Options{Logger: testutil.NewTestLogger(t)})
			assert.False(t, lc.State().Loading())

			ticket := lc.Begin(context.Background(), "q")
			assert.True(t, lc.State().Loading())

			done := make(chan Outcome, 1)
			go func() { done <- lc.Run(ticket) }()
			assert.True(t, lc.State().Loading(), "still loading while the request is outstanding")
			close(release)

			outcome := <-done
			assert.True(t, lc.State().Loading(), "only Settle leaves the loading phase")
			require.True(t, lc.Settle(ticket.ID, outcome.Result))

			state := lc.State()
			assert.False(t, state.Loading())
			assert.Equal(t, PhaseSettled, state.Phase)
			assert.Equal(t, tc.expect, state.Result)
		})
	}
}

func TestLifecycleTimeoutSettlesAsFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"answer":"too late"}`))
	}))
	defer server.Close()
	defer close(release)

	client, err := ask.New(ask.Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond, StatusCheck: true})
	require.NoError(t, err)
	lc := New(client, Options{Logger: testutil.NewTestLogger(t)})

	result, committed := lc.Submit(context.Background(), "Show all projects")
	require.True(t, committed)
	assert.Equal(t, ask.Failure{Answer: ask.FallbackMessage}, result)

	state := lc.State()
	assert.False(t, state.Loading(), "a timeout must clear loading")
	assert.Equal(t, PhaseSettled, state.Phase)
	assert.Equal(t, ask.Failure{Answer: ask.FallbackMessage}, state.Result)
}

func TestLifecycleDropsStaleResponses(t *testing.T) {
	lc := New(answerWith("unused"), Options{Logger: testutil.NewTestLogger(t)})

	first := lc.Begin(context.Background(), "first")
	second := lc.Begin(context.Background(), "second")
	require.Greater(t, second.ID, first.ID)

	require.True(t, lc.Settle(second.ID, ask.Success{Answer: "second"}))
	assert.False(t, lc.Settle(first.ID, ask.Success{Answer: "first"}), "older response must not overwrite the newer one")

	assert.Equal(t, ask.Success{Answer: "second"}, lc.State().Result)
}

func TestLifecycleStaleResponseWhileLoading(t *testing.T) {
	lc := New(answerWith("unused"), Options{})
	first := lc.Begin(context.Background(), "first")
	lc.Begin(context.Background(), "second")

	assert.False(t, lc.Settle(first.ID, ask.Success{Answer: "first"}))
	assert.True(t, lc.State().Loading(), "stale completion must not clear loading for the newer submission")
}

func TestLifecycleCancelsSupersededRequest(t *testing.T) {
	lc := New(answerWith("unused"), Options{CancelSuperseded: true, Logger: testutil.NewTestLogger(t)})
	first := lc.Begin(context.Background(), "first")
	lc.Begin(context.Background(), "second")

	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded submission should be cancelled")
	}
}

func TestLifecycleKeepsSupersededRequestWhenConfigured(t *testing.T) {
	lc := New(answerWith("unused"), Options{CancelSuperseded: false})
	first := lc.Begin(context.Background(), "first")
	lc.Begin(context.Background(), "second")
	assert.NoError(t, first.ctx.Err())
}

func TestLifecycleSubmit(t *testing.T) {
	var seen string
	var requestID string
	client := fakeClient{respond: func(ctx context.Context, q string) (ask.Response, error) {
		seen = q
		requestID = ask.RequestIDFromContext(ctx)
		return ask.Response{Answer: "3 projects found"}, nil
	}}
	lc := New(client, Options{})
	result, committed := lc.Submit(context.Background(), "Show all projects")
	require.True(t, committed)
	assert.Equal(t, "Show all projects", seen)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "3 projects found", ask.AnswerOf(result))
	assert.Equal(t, PhaseSettled, lc.State().Phase)
}

func TestResolveWithoutClient(t *testing.T) {
	result, err := Resolve(context.Background(), nil, "q")
	assert.Error(t, err)
	assert.Equal(t, ask.Failure{Answer: ask.FallbackMessage}, result)
}
