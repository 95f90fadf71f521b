package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose stats worker starts at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// reply is one scripted transport answer.
type reply struct {
	status int
	body   string
	err    error
}

// scriptedTransport answers with replies in order, repeating the last one.
type scriptedTransport struct {
	mu      sync.Mutex
	replies []reply
	calls   []vitrine.Envelope
}

func (s *scriptedTransport) Send(ctx context.Context, env vitrine.Envelope) (*RawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, env)
	r := s.replies[min(len(s.calls), len(s.replies))-1]
	if r.err != nil {
		return nil, r.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &RawResponse{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (s *scriptedTransport) models() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, c.Model)
	}
	return out
}

// fakeRouter resolves every capability to one model.
type fakeRouter struct {
	model     string
	fallbacks map[string]string
}

func (f fakeRouter) Resolve(vitrine.Capability) string { return f.model }

func (f fakeRouter) Fallback(failed string) (string, bool) {
	next, ok := f.fallbacks[failed]
	return next, ok && next != "" && next != failed
}

const (
	okBody       = `{"candidates":[{"content":{"role":"model","parts":[{"text":"olá"}]},"finishReason":"STOP"}]}`
	quotaBody    = `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`
	notFoundBody = `{"error":{"code":404,"message":"models/model-a is not found for API version v1beta","status":"NOT_FOUND"}}`
)

func fastRetry() *vitrine.RetryConfig {
	return &vitrine.RetryConfig{
		MaxRetries:     2,
		InitialDelay:   time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		AttemptTimeout: time.Second,
	}
}

func newExecutor(t *testing.T, tr Transport, events chan<- Event) *Executor {
	t.Helper()
	exec, err := New(Config{
		Router:    fakeRouter{model: "model-a", fallbacks: map[string]string{"model-a": "model-b"}},
		Transport: tr,
		Retry:     fastRetry(),
		Events:    events,
	})
	require.NoError(t, err)
	return exec
}

func textRequest() vitrine.Request {
	return vitrine.NewContentRequest(genai.NewPartFromText("oi"))
}

func drain(ch chan Event) []Event {
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestExecuteSuccess(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 200, body: okBody}}}
	exec := newExecutor(t, tr, nil)

	resp, err := exec.Execute(context.Background(), vitrine.CapabilityVisionAnalyze, textRequest())
	require.NoError(t, err)

	assert.Equal(t, "model-a", resp.Model)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"model-a"}, tr.models())

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "olá", text)
}

func TestExecuteRetriesRateLimit(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{
		{status: 429, body: quotaBody},
		{status: 429, body: quotaBody},
		{status: 200, body: okBody},
	}}
	events := make(chan Event, 64)
	exec := newExecutor(t, tr, events)

	resp, err := exec.Execute(context.Background(), vitrine.CapabilityVisionAnalyze, textRequest())
	require.NoError(t, err)
	assert.Equal(t, "model-a", resp.Model)
	assert.Len(t, tr.models(), 3)

	var delays []time.Duration
	for _, e := range drain(events) {
		if e.Type == EventRetry && e.RetryEvent.Type == RetryEventRetrying {
			delays = append(delays, e.RetryEvent.Delay)
		}
	}
	require.Len(t, delays, 2)
	assert.Less(t, delays[0], delays[1])
}

func TestExecuteQuotaExhausted(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 429, body: quotaBody}}}
	exec := newExecutor(t, tr, nil)

	_, err := exec.Execute(context.Background(), vitrine.CapabilityVisionAnalyze, textRequest())
	require.Error(t, err)

	assert.True(t, vitrine.IsQuota(err))
	assert.Equal(t, 429, vitrine.StatusCodeOf(err))
	assert.Len(t, tr.models(), 3)
}

func TestExecuteFallsBackOnce(t *testing.T) {
	t.Run("fallback succeeds", func(t *testing.T) {
		tr := &scriptedTransport{replies: []reply{
			{status: 404, body: notFoundBody},
			{status: 200, body: okBody},
		}}
		events := make(chan Event, 64)
		exec := newExecutor(t, tr, events)

		resp, err := exec.Execute(context.Background(), vitrine.CapabilityChatComplex, textRequest())
		require.NoError(t, err)
		assert.Equal(t, "model-b", resp.Model)
		assert.Equal(t, []string{"model-a", "model-b"}, tr.models())

		var fallbacks []Event
		for _, e := range drain(events) {
			if e.Type == EventFallback {
				fallbacks = append(fallbacks, e)
			}
		}
		require.Len(t, fallbacks, 1)
		assert.Equal(t, "model-a", fallbacks[0].Model)
		assert.Equal(t, "model-b", fallbacks[0].FallbackModel)
	})

	t.Run("fallback also missing", func(t *testing.T) {
		tr := &scriptedTransport{replies: []reply{{status: 404, body: notFoundBody}}}
		exec := newExecutor(t, tr, nil)

		_, err := exec.Execute(context.Background(), vitrine.CapabilityChatComplex, textRequest())
		require.Error(t, err)
		assert.True(t, vitrine.IsNotFound(err))
		assert.Equal(t, []string{"model-a", "model-b"}, tr.models())
	})

	t.Run("fallback gets its own retry budget", func(t *testing.T) {
		tr := &scriptedTransport{replies: []reply{
			{status: 404, body: notFoundBody},
			{status: 429, body: quotaBody},
			{status: 429, body: quotaBody},
			{status: 200, body: okBody},
		}}
		exec := newExecutor(t, tr, nil)

		resp, err := exec.Execute(context.Background(), vitrine.CapabilityChatComplex, textRequest())
		require.NoError(t, err)
		assert.Equal(t, "model-b", resp.Model)
		assert.Equal(t, []string{"model-a", "model-b", "model-b", "model-b"}, tr.models())
	})

	t.Run("no fallback configured", func(t *testing.T) {
		tr := &scriptedTransport{replies: []reply{{status: 404, body: `{"error":"not found"}`}}}
		exec, err := New(Config{Router: fakeRouter{model: "model-z"}, Transport: tr, Retry: fastRetry()})
		require.NoError(t, err)

		_, err = exec.Execute(context.Background(), vitrine.CapabilityChatComplex, textRequest())
		assert.True(t, vitrine.IsNotFound(err))
		assert.Equal(t, []string{"model-z"}, tr.models())
	})
}

func TestExecuteWithRouter(t *testing.T) {
	r, err := router.New(nil)
	require.NoError(t, err)

	tr := &scriptedTransport{replies: []reply{
		{status: 404, body: notFoundBody},
		{status: 200, body: `{"predictions":[{"bytesBase64Encoded":"AQID","mimeType":"image/png"}]}`},
	}}
	exec, err := New(Config{Router: r, Transport: tr, Retry: fastRetry()})
	require.NoError(t, err)

	req := &vitrine.ImageRequest{
		Instances:  []vitrine.ImageInstance{{Prompt: "uma cadeira"}},
		Parameters: vitrine.ImageParameters{SampleCount: 1},
	}
	resp, err := exec.Execute(context.Background(), vitrine.CapabilityImageGenerate, req)
	require.NoError(t, err)

	assert.Equal(t, []string{router.Imagen4, router.Imagen4Fast}, tr.models())
	images, err := resp.Images()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, []byte{1, 2, 3}, images[0].Data)
}

func TestExecuteDoesNotRetryOtherFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		kind  vitrine.Kind
	}{
		{"server error", reply{status: 500, body: `{"error":{"code":500,"message":"Internal error encountered.","status":"INTERNAL"}}`}, vitrine.KindGeneric},
		{"bad request", reply{status: 400, body: `{"error":"Invalid request: endpoint"}`}, vitrine.KindGeneric},
		{"safety", reply{status: 400, body: `{"error":{"code":400,"message":"The prompt was blocked due to safety"}}`}, vitrine.KindContentBlocked},
		{"transport", reply{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}, vitrine.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &scriptedTransport{replies: []reply{tt.reply}}
			exec := newExecutor(t, tr, nil)

			_, err := exec.Execute(context.Background(), vitrine.CapabilityVisionAnalyze, textRequest())
			require.Error(t, err)

			var verr *vitrine.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind)
			assert.Equal(t, tt.kind.Message(), verr.UserMessage())
			assert.Len(t, tr.models(), 1)
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 200, body: okBody}}}
	exec := newExecutor(t, tr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, vitrine.CapabilityVisionAnalyze, textRequest())
	assert.True(t, vitrine.IsNetwork(err))
}

// hangingTransport blocks every send until its context ends.
type hangingTransport struct {
	mu    sync.Mutex
	calls int
}

func (h *hangingTransport) Send(ctx context.Context, _ vitrine.Envelope) (*RawResponse, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecuteAttemptTimeout(t *testing.T) {
	tr := &hangingTransport{}
	rc := fastRetry()
	rc.AttemptTimeout = 50 * time.Millisecond
	exec, err := New(Config{
		Router:    fakeRouter{model: "model-a", fallbacks: map[string]string{"model-a": "model-b"}},
		Transport: tr,
		Retry:     rc,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = exec.Execute(context.Background(), vitrine.CapabilityVisionAnalyze, textRequest())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, vitrine.IsNetwork(err), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, tr.calls)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestExecuteNilRequest(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 200, body: okBody}}}
	exec := newExecutor(t, tr, nil)

	var resp *Response
	var err error
	assert.NotPanics(t, func() {
		resp, err = exec.Execute(context.Background(), vitrine.CapabilityFastUtility, nil)
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, vitrine.ErrEmptyInput)
	assert.Equal(t, vitrine.KindGeneric, vitrine.KindOf(err))
	assert.Empty(t, tr.calls)
}

func TestExecuteEnvelope(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 200, body: okBody}}}
	exec := newExecutor(t, tr, nil)

	_, err := exec.Execute(context.Background(), vitrine.CapabilityChatComplex, textRequest())
	require.NoError(t, err)

	require.Len(t, tr.calls, 1)
	env := tr.calls[0]
	assert.True(t, env.IsChat)
	assert.Equal(t, vitrine.EndpointGenerateContent, env.Endpoint)
	assert.Contains(t, string(env.Payload), `"text":"oi"`)
}

func TestExecuteEvents(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{status: 500, body: `{}`}}}
	events := make(chan Event, 64)
	exec := newExecutor(t, tr, events)

	_, err := exec.Execute(context.Background(), vitrine.CapabilityFastUtility, textRequest())
	require.Error(t, err)

	got := drain(events)
	require.NotEmpty(t, got)
	assert.Equal(t, EventRequestStart, got[0].Type)
	last := got[len(got)-1]
	assert.Equal(t, EventRequestError, last.Type)
	assert.Equal(t, vitrine.CapabilityFastUtility, last.Capability)
	assert.True(t, vitrine.KindOf(last.Error) == vitrine.KindGeneric)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{Transport: &scriptedTransport{}})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = New(Config{Router: fakeRouter{}})
	assert.ErrorIs(t, err, ErrMissingDependency)
}
