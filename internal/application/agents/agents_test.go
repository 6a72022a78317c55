package agents

import (
	"context"
	"sync"
	"time"

	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/classify"
)

// shared test doubles for the analyzer suite

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testClock = fixedClock{t: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}

type fakeClassifier struct {
	verdict classify.Verdict
	tone    classify.Tone
	err     error
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (classify.Verdict, error) {
	if f.err != nil {
		return classify.Verdict{}, f.err
	}
	return f.verdict.Normalize(), nil
}

func (f *fakeClassifier) DetectTone(ctx context.Context, text string) (classify.Tone, error) {
	if f.err != nil {
		return classify.ToneNeutral, f.err
	}
	return f.tone, nil
}

type dispatchCall struct {
	kind    actions.Kind
	payload any
	async   bool
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, kind actions.Kind, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{kind: kind, payload: payload})
	return f.err
}

func (f *fakeDispatcher) DispatchAsync(kind actions.Kind, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{kind: kind, payload: payload, async: true})
}

func (f *fakeDispatcher) recorded() []dispatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dispatchCall, len(f.calls))
	copy(out, f.calls)
	return out
}
