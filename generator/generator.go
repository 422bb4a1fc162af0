package generator

import "context"

// Generator is the black-box text-completion service. The system prompt
// travels separately from the user-facing prompt so providers can map it
// onto their native system role.
type Generator interface {
	Generate(ctx context.Context, system string, prompt string) (string, error)
}
