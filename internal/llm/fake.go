package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Fake is a scripted Client for tests.
//
// Responses are matched by substring against the user prompt, in
// registration order; the first match wins. Each response is a JSON
// document decoded into the caller's out value, or an error to return
// instead. Calls are recorded for assertions.
type Fake struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []FakeCall
}

type fakeResponse struct {
	match string
	body  string
	err   error
}

// FakeCall records one Generate invocation.
type FakeCall struct {
	System string
	User   string
}

// NewFake creates an empty scripted client. An unmatched prompt is a
// non-transient ProviderError, which makes missing scripts loud in tests.
func NewFake() *Fake {
	return &Fake{}
}

// Respond registers a JSON response for prompts containing match.
// An empty match string matches any prompt.
func (f *Fake) Respond(match, jsonBody string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{match: match, body: jsonBody})
	return f
}

// Fail registers an error for prompts containing match.
func (f *Fake) Fail(match string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{match: match, err: err})
	return f
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// Generate implements Client.
func (f *Fake) Generate(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{System: systemPrompt, User: userPrompt})
	var hit *fakeResponse
	for i := range f.responses {
		if f.responses[i].match == "" || strings.Contains(userPrompt, f.responses[i].match) {
			hit = &f.responses[i]
			break
		}
	}
	f.mu.Unlock()

	if hit == nil {
		return &ProviderError{Provider: "fake", Err: fmt.Errorf("no scripted response for prompt")}
	}
	if hit.err != nil {
		return hit.err
	}
	if err := json.Unmarshal([]byte(hit.body), out); err != nil {
		return &ProviderError{Provider: "fake", Err: fmt.Errorf("decode scripted response: %w", err)}
	}
	return nil
}
