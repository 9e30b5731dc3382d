package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

const (
	voiceStability       = 0.5
	voiceSimilarityBoost = 0.75
	maxErrorBody         = 512
)

// voices maps each narration identity to a stock ElevenLabs voice.
var voices = map[entity.VoiceIdentity]string{
	entity.VoiceFemale:     "21m00Tcm4TlvDq8ikWAM", // Rachel
	entity.VoiceMale:       "pNInz6obpgDQGcFmxJgB", // Adam
	entity.VoiceMysterious: "N2lVS1w4EtoT3dr4eOWO", // Callum
}

func VoiceID(v entity.VoiceIdentity) string {
	if id, ok := voices[v]; ok {
		return id
	}
	return voices[entity.DefaultVoice]
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ElevenLabs struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewElevenLabs(cfg Config, httpClient *http.Client, logger *zap.Logger) *ElevenLabs {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ElevenLabs{cfg: cfg, httpClient: httpClient, logger: logger}
}

func (e *ElevenLabs) Configured() bool {
	return e.cfg.APIKey != ""
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns the narration audio. The duration is estimated from the
// word count, not measured from the audio.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string, voice entity.VoiceIdentity) (*entity.AudioAsset, error) {
	if !e.Configured() {
		return nil, entity.ErrVoiceNotConfigured
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: e.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       voiceStability,
			SimilarityBoost: voiceSimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	voiceID := VoiceID(voice)
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.cfg.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", entity.ErrVoiceProvider, err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrVoiceProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: HTTP %d: %s", entity.ErrVoiceProvider, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", entity.ErrVoiceProvider, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio response", entity.ErrVoiceProvider)
	}

	duration := entity.EstimateSpeakingDuration(text)
	e.logger.Debug("narration synthesized",
		zap.String("voice_id", voiceID),
		zap.Int("bytes", len(audio)),
		zap.Float64("duration_seconds", duration),
	)

	return &entity.AudioAsset{
		Data:            audio,
		MIMEType:        "audio/mpeg",
		DurationSeconds: duration,
	}, nil
}
