package port

import "context"

// CompletionProvider is a single text-generation backend.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// TextGenerator never fails: an empty string means "use fallback content".
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) string
	GenerateJSONLike(ctx context.Context, prompt string) string
}
