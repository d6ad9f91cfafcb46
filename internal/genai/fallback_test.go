package genai

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/metrics"
)

// scriptedCompleter returns the queued results in order, then repeats the last.
type scriptedCompleter struct {
	provider Provider
	mu       sync.Mutex
	results  []scriptedResult
	calls    int
	closeErr error
	closed   bool
	block    bool
}

type scriptedResult struct {
	reply string
	err   error
}

func (s *scriptedCompleter) Complete(ctx context.Context, _ []conversation.Turn) (string, error) {
	s.mu.Lock()
	idx := min(s.calls, len(s.results)-1)
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	r := s.results[idx]
	return r.reply, r.err
}

func (s *scriptedCompleter) Provider() Provider { return s.provider }

func (s *scriptedCompleter) Close() error {
	s.closed = true
	return s.closeErr
}

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var testHistory = []conversation.Turn{
	{Role: conversation.RoleSystem, Content: "system"},
	{Role: conversation.RoleUser, Content: "hello"},
}

func newTestChain(m *metrics.Metrics, completers ...Completer) *FallbackCompleter {
	return NewFallbackCompleter(completers,
		WithRetryConfig(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}),
		WithMetrics(m),
	)
}

func TestFallbackCompleter_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &scriptedCompleter{provider: ProviderOpenAI, results: []scriptedResult{{reply: "hi there"}}}
	secondary := &scriptedCompleter{provider: ProviderGemini, results: []scriptedResult{{reply: "unused"}}}
	chain := newTestChain(nil, primary, secondary)

	reply, err := chain.Complete(context.Background(), testHistory)
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)
	assert.Equal(t, 1, primary.callCount())
	assert.Zero(t, secondary.callCount())
}

func TestFallbackCompleter_RetriesTransient(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	primary := &scriptedCompleter{provider: ProviderOpenAI, results: []scriptedResult{
		{err: newProviderError(ProviderOpenAI, "", http.StatusServiceUnavailable, errors.New("busy"))},
		{reply: "second try"},
	}}
	chain := newTestChain(m, primary)

	reply, err := chain.Complete(context.Background(), testHistory)
	require.NoError(t, err)
	assert.Equal(t, "second try", reply)
	assert.Equal(t, 2, primary.callCount())
	assert.InDelta(t, 1, testutil.ToFloat64(m.CompletionRetriesTotal.WithLabelValues("openai")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CompletionTotal.WithLabelValues("openai", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CompletionTotal.WithLabelValues("openai", "server_error")), 0)
}

func TestFallbackCompleter_FallsBack(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	primary := &scriptedCompleter{provider: ProviderOpenRouter, results: []scriptedResult{
		{err: newProviderError(ProviderOpenRouter, "", 200, ErrMalformedResponse)},
	}}
	secondary := &scriptedCompleter{provider: ProviderAnthropic, results: []scriptedResult{{reply: "from claude"}}}
	chain := newTestChain(m, primary, secondary)

	reply, err := chain.Complete(context.Background(), testHistory)
	require.NoError(t, err)
	assert.Equal(t, "from claude", reply)
	// Malformed replies skip retry and go straight to the next provider
	assert.Equal(t, 1, primary.callCount())
	assert.InDelta(t, 1, testutil.ToFloat64(m.CompletionFallbackTotal.WithLabelValues("openrouter", "anthropic")), 0)
}

func TestFallbackCompleter_RetriesExhaustedThenFallback(t *testing.T) {
	t.Parallel()

	primary := &scriptedCompleter{provider: ProviderOpenAI, results: []scriptedResult{
		{err: newProviderError(ProviderOpenAI, "", http.StatusTooManyRequests, errors.New("slow down"))},
	}}
	secondary := &scriptedCompleter{provider: ProviderGemini, results: []scriptedResult{{reply: "ok"}}}
	chain := newTestChain(nil, primary, secondary)

	reply, err := chain.Complete(context.Background(), testHistory)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 2, primary.callCount())
	assert.Equal(t, 1, secondary.callCount())
}

func TestFallbackCompleter_PermanentErrorStopsChain(t *testing.T) {
	t.Parallel()

	authErr := newProviderError(ProviderOpenAI, "", http.StatusUnauthorized, errors.New("bad key"))
	primary := &scriptedCompleter{provider: ProviderOpenAI, results: []scriptedResult{{err: authErr}}}
	secondary := &scriptedCompleter{provider: ProviderGemini, results: []scriptedResult{{reply: "unused"}}}
	chain := newTestChain(nil, primary, secondary)

	_, err := chain.Complete(context.Background(), testHistory)
	require.Error(t, err)
	assert.ErrorIs(t, err, authErr)
	assert.Zero(t, secondary.callCount())
}

func TestFallbackCompleter_AllFail(t *testing.T) {
	t.Parallel()

	primary := &scriptedCompleter{provider: ProviderOpenAI, results: []scriptedResult{
		{err: newProviderError(ProviderOpenAI, "", 0, apperrors.ErrEmptyReply)},
	}}
	secondary := &scriptedCompleter{provider: ProviderGemini, results: []scriptedResult{
		{err: newProviderError(ProviderGemini, "", 0, apperrors.ErrEmptyReply)},
	}}
	chain := newTestChain(nil, primary, secondary)

	_, err := chain.Complete(context.Background(), testHistory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.True(t, IsProviderError(err))
}

func TestFallbackCompleter_Timeout(t *testing.T) {
	t.Parallel()

	slow := &scriptedCompleter{provider: ProviderAnthropic, block: true, results: []scriptedResult{{}}}
	chain := NewFallbackCompleter([]Completer{slow},
		WithRetryConfig(RetryConfig{MaxAttempts: 1}),
		WithTimeout(10*time.Millisecond),
	)

	_, err := chain.Complete(context.Background(), testHistory)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.True(t, IsProviderError(err))
}

func TestFallbackCompleter_Empty(t *testing.T) {
	t.Parallel()

	chain := NewFallbackCompleter([]Completer{nil})
	_, err := chain.Complete(context.Background(), testHistory)
	assert.ErrorIs(t, err, apperrors.ErrNoProvider)
	assert.Equal(t, Provider(""), chain.Provider())

	var nilChain *FallbackCompleter
	_, err = nilChain.Complete(context.Background(), testHistory)
	assert.ErrorIs(t, err, apperrors.ErrNoProvider)
	assert.NoError(t, nilChain.Close())
}

func TestFallbackCompleter_Close(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("close failed")
	a := &scriptedCompleter{provider: ProviderOpenAI, closeErr: closeErr}
	b := &scriptedCompleter{provider: ProviderGemini}
	chain := NewFallbackCompleter([]Completer{a, b})

	err := chain.Close()
	assert.ErrorIs(t, err, closeErr)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
