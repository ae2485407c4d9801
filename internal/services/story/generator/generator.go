// Package generator abstracts the external narrative continuation
// collaborator.
//
// The core treats the collaborator as an opaque asynchronous completion
// function; the OpenAI adapter in this package is one implementation.
package generator

import "context"

// Generator extends a narrative given a prompt and a token budget.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, prompt string, maxTokens int) (string, error)

// Complete implements Generator.
func (f Func) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}
