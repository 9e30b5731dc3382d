package imagegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

var ErrNoImageInResponse = errors.New("no image found in provider response")

// ChatImageProvider asks an image-capable chat completion model for one
// picture and probes the raw reply for the image.
type ChatImageProvider struct {
	model  string
	client openai.Client
}

func NewChatImageProvider(apiKey, baseURL, model string) *ChatImageProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ChatImageProvider{model: model, client: openai.NewClient(opts...)}
}

func (p *ChatImageProvider) Name() string { return "primary" }

func (p *ChatImageProvider) Generate(ctx context.Context, prompt string, aspect port.AspectRatio) (entity.ImageAsset, error) {
	ratio := aspectLabel(aspect)
	completion, err := p.client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(fmt.Sprintf("Generate one %s portrait image (%dx%d). %s", ratio, aspect.Width, aspect.Height, prompt)),
			},
			Model: openai.ChatModel(p.model),
		},
		option.WithJSONSet("modalities", []string{"image", "text"}),
		option.WithJSONSet("image_config", map[string]string{"aspect_ratio": ratio}),
	)
	if err != nil {
		return entity.ImageAsset{}, fmt.Errorf("image chat completion: %w", err)
	}

	asset, ok := extractImage([]byte(completion.RawJSON()))
	if !ok {
		return entity.ImageAsset{}, ErrNoImageInResponse
	}
	asset.Source = entity.ImageSourcePrimary
	return asset, nil
}

func aspectLabel(a port.AspectRatio) string {
	g := gcd(a.Width, a.Height)
	if g == 0 {
		return "3:4"
	}
	return fmt.Sprintf("%d:%d", a.Width/g, a.Height/g)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
