package textgen

import (
	"context"
	"errors"
)

var ErrNoChoices = errors.New("no choices returned")

type TextGenerator interface {
	Generate(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
