package imagegen

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStyles_Embedded(t *testing.T) {
	styles, err := LoadStyles("")
	require.NoError(t, err)

	assert.True(t, styles.Known("dark-academia"))
	assert.True(t, styles.Known("Dark Academia"))
	assert.Contains(t, styles.Lookup("dark_academia").Guide, "candlelit")
	assert.False(t, styles.Known("vaporwave"))
	assert.NotEmpty(t, styles.Lookup("vaporwave").Guide, "unknown tags use the default entry")
}

func TestLoadStyles_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
styles:
  vaporwave:
    guide: pink and teal retro grids
    palette: ["#ff71ce", "#01cdfe"]
  cinematic:
    guide: overridden
`), 0o644))

	styles, err := LoadStyles(path)
	require.NoError(t, err)
	assert.Equal(t, "pink and teal retro grids", styles.Lookup("vaporwave").Guide)
	assert.Equal(t, "overridden", styles.Lookup("cinematic").Guide)
	assert.True(t, styles.Known("fantasy"), "built-in entries survive an override")

	from, to := styles.Lookup("vaporwave").Colors()
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x71, B: 0xce, A: 0xff}, from)
	assert.Equal(t, color.RGBA{R: 0x01, G: 0xcd, B: 0xfe, A: 0xff}, to)
}

func TestLoadStyles_MissingOverride(t *testing.T) {
	_, err := LoadStyles(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestStyleColors_BadPaletteFallsBack(t *testing.T) {
	from, to := Style{Palette: []string{"nope", "#12"}}.Colors()
	assert.Equal(t, uint8(0xff), from.A)
	assert.Equal(t, uint8(0xff), to.A)
}
