package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed prompts/emotion.txt
var emotionPrompt string

// maxRetries bounds how often a provider re-asks after an unparsable answer.
const maxRetries = 3

// buildEmotionPrompt fills the class list into the embedded prompt.
func buildEmotionPrompt(classes []string) string {
	var b strings.Builder
	for _, c := range classes {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return strings.ReplaceAll(emotionPrompt, "{{classes}}", strings.TrimSuffix(b.String(), "\n"))
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Überrascht" -> "Uberrascht").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeLabel lowercases, strips diacritics, punctuation and surrounding space.
func NormalizeLabel(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ReplaceAll(s, "-", " ")
}

// MatchLabel maps a model answer onto one of classes. It returns the class
// and its index, or false when the answer names none of them.
func MatchLabel(answer string, classes []string) (string, int, bool) {
	want := NormalizeLabel(answer)
	if want == "" {
		return "", -1, false
	}
	for i, c := range classes {
		if NormalizeLabel(c) == want {
			return c, i, true
		}
	}
	// Models sometimes answer with an inflected form ("sadness", "surprised").
	if len(want) < 3 {
		return "", -1, false
	}
	for i, c := range classes {
		nc := NormalizeLabel(c)
		if len(nc) >= 3 && (strings.HasPrefix(want, nc) || strings.HasPrefix(nc, want)) {
			return c, i, true
		}
	}
	return "", -1, false
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return content[start:]
}

// parseEmotionAnswer decodes a model reply and maps its emotion onto classes.
// The error text is fed back to the model on retry.
func parseEmotionAnswer(content string, classes []string) (*EmotionAnalysis, error) {
	var analysis EmotionAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	label, _, ok := MatchLabel(analysis.Emotion, classes)
	if !ok {
		return nil, fmt.Errorf("emotion %q is not one of the allowed labels (%s)", analysis.Emotion, strings.Join(classes, ", "))
	}
	analysis.Emotion = label
	analysis.Confidence = min(max(analysis.Confidence, 0), 1)
	return &analysis, nil
}

// retryFeedback is the follow-up message sent after an unusable answer.
func retryFeedback(err error) string {
	return fmt.Sprintf("%v. Please answer again with ONLY a valid JSON object and an emotion from the list.", err)
}
