package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateSpeakingDuration(t *testing.T) {
	thirty := strings.Repeat("word ", 30)
	assert.Equal(t, 12.0, EstimateSpeakingDuration(thirty))
	assert.Equal(t, 8.0, EstimateSpeakingDuration(strings.Repeat("w ", 20)))
	assert.Equal(t, 1.0, EstimateSpeakingDuration("one"))
	assert.Equal(t, 0.0, EstimateSpeakingDuration("   "))
}

func TestEstimateSpeakingDurationMonotonic(t *testing.T) {
	prev := 0.0
	for n := 0; n <= 300; n++ {
		d := EstimateSpeakingDuration(strings.Repeat("x ", n))
		assert.GreaterOrEqual(t, d, prev, "word count %d", n)
		prev = d
	}
}

func TestImageAssetIsRemote(t *testing.T) {
	assert.True(t, ImageAsset{URL: "https://img/1.png"}.IsRemote())
	assert.False(t, ImageAsset{URL: "https://img/1.png", Data: []byte{1}}.IsRemote())
	assert.False(t, ImageAsset{}.IsRemote())
}
