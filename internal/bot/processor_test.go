package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	"github.com/garyellow/codered-bot-go/internal/genai"
	"github.com/garyellow/codered-bot-go/internal/langdetect"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/prompt"
	"github.com/garyellow/codered-bot-go/internal/sensitivity"
)

// fakeCompleter records requests and returns a reply derived from the
// request length, or err when set.
type fakeCompleter struct {
	mu       sync.Mutex
	requests [][]conversation.Turn
	err      error
	panicMsg string
	delay    time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, history)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("reply %d", len(history)), nil
}

func (f *fakeCompleter) Provider() genai.Provider { return genai.ProviderOpenAI }
func (f *fakeCompleter) Close() error             { return nil }

func (f *fakeCompleter) lastRequest() []conversation.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

type stubIdentifier struct{ code string }

func (s stubIdentifier) Identify(string) (string, float64, error) { return s.code, 1, nil }

type testEnv struct {
	processor *Processor
	store     *conversation.Store
	completer *fakeCompleter
	metrics   *metrics.Metrics
}

func newTestEnv(t *testing.T, detected string) *testEnv {
	t.Helper()

	m := metrics.New(prometheus.NewRegistry())
	prompts := prompt.Default("hi")
	store := conversation.NewStore(conversation.Config{
		SystemPrompt: prompts.SystemPrompt(),
		MaxExchanges: 20,
	})
	t.Cleanup(store.Stop)

	completer := &fakeCompleter{}
	p := NewProcessor(ProcessorConfig{
		Store:      store,
		Classifier: sensitivity.Default(),
		Detector:   langdetect.New("hi", langdetect.WithIdentifier(stubIdentifier{code: detected})),
		Prompts:    prompts,
		Completer:  completer,
		Metrics:    m,
	})
	return &testEnv{processor: p, store: store, completer: completer, metrics: m}
}

func TestHandleText_Commands(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	tests := []struct {
		input string
		want  string
	}{
		{"/start", welcomeText},
		{"/help", helpText},
		{"/scholarships", scholarshipsText},
		{"/start@codered_bot", welcomeText},
	}
	for _, tt := range tests {
		reply := env.processor.HandleText(context.Background(), "u1", tt.input)
		assert.Equal(t, tt.want, reply.Text, tt.input)
		assert.True(t, reply.Markdown, tt.input)
		assert.Equal(t, OutcomeCommand, reply.Outcome())
	}

	assert.Nil(t, env.completer.lastRequest())
	_, exists := env.store.History("u1")
	assert.False(t, exists)
	assert.InDelta(t, 4, testutil.ToFloat64(env.metrics.TurnsTotal.WithLabelValues(OutcomeCommand)), 0)
}

func TestHandleText_UnknownCommandIgnored(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	reply := env.processor.HandleText(context.Background(), "u1", "/dance")
	assert.True(t, reply.Empty())
	assert.Equal(t, OutcomeIgnored, reply.Outcome())
	assert.Nil(t, env.completer.lastRequest())
}

func TestHandleText_EmptyAndTooLong(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	reply := env.processor.HandleText(context.Background(), "u1", "   \n ")
	assert.True(t, reply.Empty())

	reply = env.processor.HandleText(context.Background(), "u1", strings.Repeat("a", MaxMessageLength+1))
	assert.Equal(t, tooLongText, reply.Text)
	assert.Equal(t, OutcomeRejected, reply.Outcome())
	assert.Nil(t, env.completer.lastRequest())

	// Limit counts characters, not bytes
	reply = env.processor.HandleText(context.Background(), "u1", strings.Repeat("न", MaxMessageLength))
	assert.Equal(t, OutcomeCompleted, reply.Outcome())
}

func TestHandleText_Conversation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	reply := env.processor.HandleText(context.Background(), "u1", "How do I plan my week?")
	require.Equal(t, OutcomeCompleted, reply.Outcome())
	assert.Equal(t, "reply 2", reply.Text)
	assert.False(t, reply.Markdown)

	req := env.completer.lastRequest()
	require.Len(t, req, 2)
	assert.Equal(t, conversation.RoleSystem, req[0].Role)
	assert.Equal(t, conversation.RoleUser, req[1].Role)
	assert.Contains(t, req[1].Content, `Student said: "How do I plan my week?"`)

	reply = env.processor.HandleText(context.Background(), "u1", "thanks")
	assert.Equal(t, "reply 4", reply.Text)

	history, ok := env.store.History("u1")
	require.True(t, ok)
	require.Len(t, history, 5)
	assert.Equal(t, "reply 2", history[2].Content)
	assert.Equal(t, conversation.RoleAssistant, history[4].Role)
}

func TestHandleText_TemplateSelection(t *testing.T) {
	t.Parallel()

	t.Run("sensitive", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, "en")
		env.processor.HandleText(context.Background(), "u1", "I am scared I will fail")
		req := env.completer.lastRequest()
		require.NotEmpty(t, req)
		assert.Contains(t, req[len(req)-1].Content, "14416")
		assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.SensitiveMessagesTotal), 0)
	})

	t.Run("regional", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, "hi")
		env.processor.HandleText(context.Background(), "u1", "mujhe padhai mein madad chahiye")
		req := env.completer.lastRequest()
		require.NotEmpty(t, req)
		assert.Contains(t, req[len(req)-1].Content, "Reply only in Hindi")
	})

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, "en")
		env.processor.HandleText(context.Background(), "u1", "what is a good study routine")
		req := env.completer.lastRequest()
		require.NotEmpty(t, req)
		last := req[len(req)-1].Content
		assert.NotContains(t, last, "14416")
		assert.NotContains(t, last, "Reply only in")
	})
}

func TestHandleText_FailureLeavesHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	env.processor.HandleText(context.Background(), "u1", "first message")
	before, ok := env.store.History("u1")
	require.True(t, ok)

	env.completer.mu.Lock()
	env.completer.err = &genai.ProviderError{Provider: genai.ProviderOpenAI, StatusCode: 503, Err: errors.New("down")}
	env.completer.mu.Unlock()

	reply := env.processor.HandleText(context.Background(), "u1", "second message")
	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, OutcomeFailed, reply.Outcome())

	after, ok := env.store.History("u1")
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.TurnsTotal.WithLabelValues(OutcomeFailed)), 0)
}

func TestHandleText_FirstTurnFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")
	env.completer.err = errors.New("boom")

	reply := env.processor.HandleText(context.Background(), "u1", "hello")
	assert.Equal(t, ApologyText, reply.Text)

	history, ok := env.store.History("u1")
	require.True(t, ok)
	assert.Len(t, history, 1)
}

func TestHandleText_PanicRecovered(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")
	env.completer.panicMsg = "kaboom"

	reply := env.processor.HandleText(context.Background(), "u1", "hello")
	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, OutcomePanic, reply.Outcome())
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.TurnsTotal.WithLabelValues(OutcomePanic)), 0)

	// The user's lock was released
	env.completer.panicMsg = ""
	done := make(chan Reply, 1)
	go func() { done <- env.processor.HandleText(context.Background(), "u1", "again") }()
	select {
	case r := <-done:
		assert.Equal(t, OutcomeCompleted, r.Outcome())
	case <-time.After(5 * time.Second):
		t.Fatal("turn lock still held after panic")
	}
}

func TestHandleText_NoCompleter(t *testing.T) {
	t.Parallel()

	p := NewProcessor(ProcessorConfig{})
	reply := p.HandleText(context.Background(), "u1", "hello")
	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, OutcomeFailed, reply.Outcome())
}

func TestHandleText_Timeout(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{delay: time.Second}
	p := NewProcessor(ProcessorConfig{
		Completer:   completer,
		Detector:    langdetect.New("hi", langdetect.WithIdentifier(stubIdentifier{code: "en"})),
		TurnTimeout: 20 * time.Millisecond,
	})

	reply := p.HandleText(context.Background(), "u1", "hello")
	assert.Equal(t, ApologyText, reply.Text)
}

func TestHandleText_Reset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	env.processor.HandleText(context.Background(), "u1", "hello")
	env.processor.HandleText(context.Background(), "u2", "hello")

	reply := env.processor.HandleText(context.Background(), "u1", "/reset")
	assert.Equal(t, resetText, reply.Text)

	_, ok := env.store.History("u1")
	assert.False(t, ok)
	_, ok = env.store.History("u2")
	assert.True(t, ok)

	env.processor.HandleText(context.Background(), "u1", "hello again")
	req := env.completer.lastRequest()
	assert.Len(t, req, 2)
}

func TestHandleText_ConcurrentSameUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			env.processor.HandleText(context.Background(), "u1", fmt.Sprintf("message %d", i))
		})
	}
	wg.Wait()

	history, ok := env.store.History("u1")
	require.True(t, ok)
	require.Len(t, history, 21)
	for i, turn := range history[1:] {
		if i%2 == 0 {
			assert.Equal(t, conversation.RoleUser, turn.Role)
		} else {
			assert.Equal(t, conversation.RoleAssistant, turn.Role)
		}
	}
}

func TestCommands(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "en")

	names := make([]string, 0)
	for _, c := range env.processor.Commands() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"start", "help", "scholarships", "reset"}, names)
}
