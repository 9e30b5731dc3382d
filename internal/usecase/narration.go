package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	shortSummaryChars   = 300
	fallbackSummaryRune = 250
	maxNarrationWords   = 100
)

func narrationPrompt(title, summary string) string {
	return fmt.Sprintf(`Write the voice-over narration for a 30 to 40 second vertical book trailer.
Book title: %q
Summary: %q
Rules: at most %d words, second person or dramatic third person, no spoilers beyond the summary,
no stage directions or labels, and end with a one-sentence hook that makes the listener want to read the book.
Reply with the narration text only.`, title, summary, maxNarrationWords)
}

// cleanNarration strips labels and quotes models like to add and caps the
// length, preferring to cut at a sentence end.
func cleanNarration(raw string) string {
	text := strings.TrimSpace(raw)
	for _, prefix := range []string{"Narration:", "narration:", "Voice-over:", "Voiceover:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	text = strings.Trim(text, "\"“”")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	words := strings.Fields(text)
	if len(words) <= maxNarrationWords {
		return text
	}
	capped := strings.Join(words[:maxNarrationWords], " ")
	if cut := strings.LastIndexAny(capped, ".!?"); cut > len(capped)/2 {
		return capped[:cut+1]
	}
	return capped + "..."
}

// truncateSummary keeps the first n runes, backing off to a word boundary.
func truncateSummary(summary string, n int) string {
	if utf8.RuneCountInString(summary) <= n {
		return summary
	}
	runes := []rune(summary)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
