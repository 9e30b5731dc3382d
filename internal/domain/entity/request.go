package entity

import (
	"fmt"
	"strings"
)

type VoiceIdentity string

const (
	VoiceFemale     VoiceIdentity = "female"
	VoiceMale       VoiceIdentity = "male"
	VoiceMysterious VoiceIdentity = "mysterious"
)

func (v VoiceIdentity) Valid() bool {
	switch v {
	case VoiceFemale, VoiceMale, VoiceMysterious:
		return true
	}
	return false
}

type QualityTier string

const (
	QualityQuick    QualityTier = "quick"
	QualityStandard QualityTier = "standard"
	QualityPremium  QualityTier = "premium"
)

// Preset returns the scene count and effects toggle bundled by the tier.
func (q QualityTier) Preset() (numImages int, useEffects bool, ok bool) {
	switch q {
	case QualityQuick:
		return 3, false, true
	case QualityStandard:
		return 4, false, true
	case QualityPremium:
		return 6, true, true
	}
	return 0, false, false
}

const (
	DefaultTitle     = "Book Preview"
	DefaultAesthetic = "cinematic"
	DefaultVoice     = VoiceFemale
	DefaultNumImages = 4
	MaxNumImages     = 12
)

// GenerationRequest is the input of one trailer generation. It is treated as
// immutable once handed to the pipeline; Normalize returns a copy.
type GenerationRequest struct {
	Summary    string        `json:"summary"`
	Title      string        `json:"title,omitempty"`
	Aesthetic  string        `json:"aesthetic,omitempty"`
	Voice      VoiceIdentity `json:"voiceType,omitempty"`
	NumImages  int           `json:"numImages,omitempty"`
	UseEffects bool          `json:"useEffects,omitempty"`
	Quality    QualityTier   `json:"quality,omitempty"`
}

// Normalize fills defaults and applies the quality preset, which wins over
// explicit NumImages/UseEffects.
func (r GenerationRequest) Normalize() GenerationRequest {
	out := r
	out.Summary = strings.TrimSpace(out.Summary)
	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		out.Title = DefaultTitle
	}
	out.Aesthetic = strings.ToLower(strings.TrimSpace(out.Aesthetic))
	if out.Aesthetic == "" {
		out.Aesthetic = DefaultAesthetic
	}
	if out.Voice == "" {
		out.Voice = DefaultVoice
	}
	if n, effects, ok := out.Quality.Preset(); ok {
		out.NumImages = n
		out.UseEffects = effects
	}
	if out.NumImages <= 0 {
		out.NumImages = DefaultNumImages
	}
	return out
}

func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrInvalidRequest)
	}
	if r.Voice != "" && !r.Voice.Valid() {
		return fmt.Errorf("%w: unknown voice type %q", ErrInvalidRequest, r.Voice)
	}
	if r.Quality != "" {
		if _, _, ok := r.Quality.Preset(); !ok {
			return fmt.Errorf("%w: unknown quality tier %q", ErrInvalidRequest, r.Quality)
		}
	}
	if r.NumImages < 0 || r.NumImages > MaxNumImages {
		return fmt.Errorf("%w: numImages must be between 1 and %d", ErrInvalidRequest, MaxNumImages)
	}
	return nil
}
