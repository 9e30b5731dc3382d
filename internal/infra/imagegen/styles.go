package imagegen

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var defaultStylesYAML []byte

type Style struct {
	Guide   string   `yaml:"guide"`
	Palette []string `yaml:"palette"`
}

type stylesFile struct {
	Default Style            `yaml:"default"`
	Styles  map[string]Style `yaml:"styles"`
}

// StyleTable maps aesthetic tags to prompt style guides and placeholder palettes.
type StyleTable struct {
	fallback Style
	styles   map[string]Style
}

// LoadStyles parses the embedded table and merges an optional override file
// on top of it. Override entries replace built-in entries with the same tag.
func LoadStyles(overridePath string) (*StyleTable, error) {
	base, err := parseStyles(defaultStylesYAML)
	if err != nil {
		return nil, fmt.Errorf("parse embedded styles: %w", err)
	}
	if overridePath == "" {
		return base, nil
	}

	raw, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read styles file: %w", err)
	}
	override, err := parseStyles(raw)
	if err != nil {
		return nil, fmt.Errorf("parse styles file %s: %w", overridePath, err)
	}
	if override.fallback.Guide != "" {
		base.fallback = override.fallback
	}
	for tag, s := range override.styles {
		base.styles[tag] = s
	}
	return base, nil
}

func parseStyles(raw []byte) (*StyleTable, error) {
	var f stylesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	t := &StyleTable{fallback: f.Default, styles: make(map[string]Style, len(f.Styles))}
	for tag, s := range f.Styles {
		t.styles[normalizeTag(tag)] = s
	}
	return t, nil
}

// Lookup returns the style for tag, or the default entry for unknown tags.
func (t *StyleTable) Lookup(tag string) Style {
	if s, ok := t.styles[normalizeTag(tag)]; ok {
		return s
	}
	return t.fallback
}

func (t *StyleTable) Known(tag string) bool {
	_, ok := t.styles[normalizeTag(tag)]
	return ok
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.NewReplacer("_", "-", " ", "-").Replace(tag)
}

// Colors decodes the palette, falling back to a neutral pair.
func (s Style) Colors() (color.RGBA, color.RGBA) {
	from := color.RGBA{R: 0x20, G: 0x20, B: 0x30, A: 0xff}
	to := color.RGBA{R: 0x90, G: 0x70, B: 0x50, A: 0xff}
	if len(s.Palette) > 0 {
		if c, ok := parseHex(s.Palette[0]); ok {
			from = c
		}
	}
	if len(s.Palette) > 1 {
		if c, ok := parseHex(s.Palette[1]); ok {
			to = c
		}
	}
	return from, to
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
