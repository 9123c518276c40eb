package ai

import "context"

// Generator produces a textual completion for a prompt. Implementations wrap
// a specific language-model provider.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
