// Package llm is the language-model capability boundary.
//
// The core treats a backend as a single capability: generate structured
// output for a system/user prompt pair. Concrete backends (an
// OpenAI-compatible HTTP endpoint, a scripted fake for tests) live
// behind the Client interface; everything above it only sees
// ProviderError and its transience flag.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client generates structured output from a prompt pair.
//
// out must be a pointer; implementations decode the model's JSON reply
// into it. Failures surface as *ProviderError so callers can decide
// whether to retry.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, out any) error
}

// ProviderError is a failed backend call.
//
// Transient marks failures worth retrying (rate limits, upstream
// overload). Non-transient failures (auth, malformed output) fail the
// calling task immediately.
type ProviderError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retriable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}
