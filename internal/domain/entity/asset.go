package entity

import (
	"math"
	"strings"
)

// WordsPerSecond is the assumed narration speaking rate.
const WordsPerSecond = 2.5

type ImageSource string

const (
	ImageSourcePrimary     ImageSource = "primary"
	ImageSourceSecondary   ImageSource = "secondary"
	ImageSourcePlaceholder ImageSource = "placeholder"
)

// ImageAsset references one generated image. Exactly one of URL and Data is set.
type ImageAsset struct {
	Index    int
	Source   ImageSource
	URL      string
	Data     []byte
	MIMEType string
}

func (a ImageAsset) IsRemote() bool {
	return len(a.Data) == 0 && a.URL != ""
}

type AudioAsset struct {
	Data            []byte
	MIMEType        string
	DurationSeconds float64
}

type VideoMetadata struct {
	Title      string `json:"title"`
	Aesthetic  string `json:"aesthetic"`
	Narration  string `json:"narration"`
	ImageCount int    `json:"imageCount"`
	SessionID  string `json:"sessionId"`
}

// GenerationResult is what the pipeline hands back to its caller. It never
// carries a partial video: Success=false always comes with an empty path.
type GenerationResult struct {
	Success     bool           `json:"success"`
	VideoPath   string         `json:"videoPath,omitempty"`
	VideoBuffer []byte         `json:"-"`
	Duration    float64        `json:"duration,omitempty"`
	Metadata    *VideoMetadata `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// EstimateSpeakingDuration returns ceil(words / WordsPerSecond) seconds.
func EstimateSpeakingDuration(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return math.Ceil(float64(words) / WordsPerSecond)
}
