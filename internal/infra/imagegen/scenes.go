package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/llm"
)

type sceneList struct {
	Scenes []sceneItem `json:"scenes" jsonschema_description:"Ordered visual scenes for the trailer, 50 to 80 words each"`
}

type sceneItem struct {
	Description string `json:"description" jsonschema_description:"A vivid visual description of one moment from the book, no on-screen text"`
}

var sceneSchemaHint = llm.SchemaHint[sceneList]()

var defaultSceneBeats = []string{
	"An establishing wide shot of the world of the story, setting the mood",
	"A close view of the central character facing the first sign of change",
	"A tense moment where the main conflict becomes visible",
	"A striking symbolic object that hints at the stakes of the story",
	"A dramatic confrontation framed against a vast backdrop",
	"A lone figure at the threshold of an uncertain future",
}

// ScenePlanner turns a book summary into exactly n scene descriptions.
type ScenePlanner struct {
	text   port.TextGenerator
	styles *StyleTable
}

func NewScenePlanner(text port.TextGenerator, styles *StyleTable) *ScenePlanner {
	return &ScenePlanner{text: text, styles: styles}
}

func (p *ScenePlanner) Plan(ctx context.Context, summary, aesthetic string, n int) []string {
	if n <= 0 {
		return nil
	}
	var scenes []string
	if p.text != nil {
		raw := p.text.GenerateJSONLike(ctx, p.prompt(summary, aesthetic, n))
		scenes = parseScenes(raw)
	}
	if len(scenes) > n {
		scenes = scenes[:n]
	}
	for i := len(scenes); i < n; i++ {
		scenes = append(scenes, defaultScene(summary, i))
	}
	return scenes
}

func (p *ScenePlanner) prompt(summary, aesthetic string, n int) string {
	style := p.styles.Lookup(aesthetic)
	return fmt.Sprintf(`You are storyboarding a vertical book trailer.
Book summary: %q
Visual style: %s.
Write exactly %d distinct scene descriptions of 50 to 80 words each, in story order.
Describe only what the camera sees. Do not reveal the ending. Never include text, captions or logos.
Respond with JSON matching this schema: %s`, summary, style.Guide, n, sceneSchemaHint)
}

// parseScenes accepts ["..."], {"scenes":["..."]} and {"scenes":[{"description":"..."}]}.
func parseScenes(raw string) []string {
	payload, ok := llm.ExtractJSON(raw)
	if !ok {
		return nil
	}

	var plain []string
	if json.Unmarshal([]byte(payload), &plain) == nil {
		return compact(plain)
	}

	var wrapped struct {
		Scenes []json.RawMessage `json:"scenes"`
	}
	if json.Unmarshal([]byte(payload), &wrapped) != nil {
		return nil
	}
	out := make([]string, 0, len(wrapped.Scenes))
	for _, item := range wrapped.Scenes {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
			continue
		}
		var obj sceneItem
		if json.Unmarshal(item, &obj) == nil {
			out = append(out, obj.Description)
		}
	}
	return compact(out)
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func defaultScene(summary string, i int) string {
	beat := defaultSceneBeats[i%len(defaultSceneBeats)]
	return fmt.Sprintf("%s, inspired by: %s", beat, truncateWords(summary, 40))
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ")
}
