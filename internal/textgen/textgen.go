package textgen

import "context"

// Generator produces free text from a fixed instruction and a user prompt.
//
// The pipeline treats generation as an opaque collaborator: query expansion
// and draft writing both go through this interface.
type Generator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(ctx context.Context, instruction, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	return f(ctx, instruction, prompt)
}
