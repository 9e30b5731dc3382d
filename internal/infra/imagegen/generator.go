package imagegen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/metrics"
)

// Portrait is the fixed 3:4 aspect requested from providers.
var Portrait = port.AspectRatio{Width: 768, Height: 1024}

type Options struct {
	// Offline skips every network call and renders placeholders.
	Offline     bool
	Concurrency int
	Timeout     time.Duration
}

// Generator fans scene prompts out to the primary provider, retries a failed
// scene once on the secondary provider and drops it if that fails too.
type Generator struct {
	planner   *ScenePlanner
	styles    *StyleTable
	primary   port.ImageProvider
	secondary port.ImageProvider
	opts      Options
	logger    *zap.Logger
}

func NewGenerator(planner *ScenePlanner, styles *StyleTable, primary, secondary port.ImageProvider, opts Options, logger *zap.Logger) *Generator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if primary == nil {
		opts.Offline = true
	}
	return &Generator{
		planner:   planner,
		styles:    styles,
		primary:   primary,
		secondary: secondary,
		opts:      opts,
		logger:    logger,
	}
}

func (g *Generator) NetworkEnabled() bool {
	return !g.opts.Offline
}

// GenerateImages returns at most numImages assets in scene order.
func (g *Generator) GenerateImages(ctx context.Context, summary, aesthetic string, numImages int) []entity.ImageAsset {
	if numImages <= 0 {
		return nil
	}
	if g.opts.Offline {
		return g.placeholders(aesthetic, numImages)
	}

	scenes := g.planner.Plan(ctx, summary, aesthetic, numImages)
	guide := g.styles.Lookup(aesthetic).Guide
	slots := make([]*entity.ImageAsset, len(scenes))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, scene := range scenes {
		prompt := fmt.Sprintf("%s. Style: %s. Vertical composition, no text, no watermark.", scene, guide)
		eg.Go(func() error {
			asset, ok := g.generateScene(egCtx, i, prompt)
			if ok {
				asset.Index = i
				slots[i] = &asset
			}
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]entity.ImageAsset, 0, len(slots))
	for _, a := range slots {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func (g *Generator) generateScene(ctx context.Context, index int, prompt string) (entity.ImageAsset, bool) {
	log := g.logger.With(zap.Int("scene", index))

	asset, err := g.call(ctx, g.primary, prompt)
	if err == nil {
		metrics.ImagesGeneratedTotal.WithLabelValues(string(entity.ImageSourcePrimary)).Inc()
		return asset, true
	}
	log.Warn("primary image provider failed", zap.Error(err))

	if g.secondary != nil {
		asset, err = g.call(ctx, g.secondary, prompt)
		if err == nil {
			metrics.ImagesGeneratedTotal.WithLabelValues(string(entity.ImageSourceSecondary)).Inc()
			return asset, true
		}
		log.Warn("secondary image provider failed", zap.Error(err))
	}

	metrics.ImagesDroppedTotal.Inc()
	log.Error("scene dropped, no image available")
	return entity.ImageAsset{}, false
}

func (g *Generator) call(ctx context.Context, p port.ImageProvider, prompt string) (entity.ImageAsset, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	return p.Generate(ctx, prompt, Portrait)
}

func (g *Generator) placeholders(aesthetic string, n int) []entity.ImageAsset {
	style := g.styles.Lookup(aesthetic)
	out := make([]entity.ImageAsset, 0, n)
	for i := 0; i < n; i++ {
		data, err := Placeholder(style, i, Portrait.Width, Portrait.Height)
		if err != nil {
			g.logger.Error("render placeholder", zap.Int("scene", i), zap.Error(err))
			continue
		}
		metrics.ImagesGeneratedTotal.WithLabelValues(string(entity.ImageSourcePlaceholder)).Inc()
		out = append(out, entity.ImageAsset{
			Index:    i,
			Source:   entity.ImageSourcePlaceholder,
			Data:     data,
			MIMEType: "image/png",
		})
	}
	return out
}
