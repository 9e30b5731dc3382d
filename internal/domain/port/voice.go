package port

import (
	"context"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice entity.VoiceIdentity) (*entity.AudioAsset, error)
	Configured() bool
}
