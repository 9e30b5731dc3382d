package imagegen

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

const minImageBytes = 100

// PollinationsProvider renders prompts through the keyless Pollinations
// image URL endpoint.
type PollinationsProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewPollinationsProvider(baseURL string, httpClient *http.Client) *PollinationsProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PollinationsProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (p *PollinationsProvider) Name() string { return "secondary" }

func (p *PollinationsProvider) Generate(ctx context.Context, prompt string, aspect port.AspectRatio) (entity.ImageAsset, error) {
	imageURL := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		p.baseURL, url.PathEscape(prompt), aspect.Width, aspect.Height, seed(prompt))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return entity.ImageAsset{}, err
	}
	req.Header.Set("User-Agent", "booktrailer/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return entity.ImageAsset{}, fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.ImageAsset{}, fmt.Errorf("pollinations returned HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.ImageAsset{}, fmt.Errorf("read pollinations body: %w", err)
	}
	// error pages come back as tiny HTML bodies with 200
	if len(data) < minImageBytes {
		return entity.ImageAsset{}, fmt.Errorf("pollinations response too small (%d bytes)", len(data))
	}

	return entity.ImageAsset{
		Source:   entity.ImageSourceSecondary,
		Data:     data,
		MIMEType: sniffImageType(data),
	}, nil
}

// seed keeps the same prompt rendering the same picture.
func seed(prompt string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return h.Sum32() % 1_000_000
}
