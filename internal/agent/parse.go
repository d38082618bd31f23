package agent

import (
	"regexp"
	"strconv"
	"strings"
)

var slotDigitPattern = regexp.MustCompile(`\b([1-9])\b`)

var slotWords = map[string]int{
	"one": 1, "first": 1,
	"two": 2, "second": 2,
	"three": 3, "third": 3,
}

// parseSlotSelection extracts a 1-based slot ordinal from the reply.
// Returns (0, false) when no ordinal can be read; the caller re-prompts.
// An ordinal outside 1..offered is returned as-is so the caller can tell
// "no number" apart from "invalid number".
func parseSlotSelection(message string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return 0, false
	}
	if m := slotDigitPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	for word, n := range slotWords {
		if containsWord(lower, word) {
			return n, true
		}
	}
	return 0, false
}

var yesWords = map[string]struct{}{
	"yes": {}, "yep": {}, "yeah": {}, "yup": {}, "y": {}, "correct": {},
	"right": {}, "sure": {}, "ok": {}, "okay": {}, "confirmed": {},
}

var noWords = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {}, "n": {}, "wrong": {}, "incorrect": {},
}

// parseYesNo reads a bare confirmation reply. Returns (answer, true) only
// when the message is unambiguous; mixed or unrelated replies return
// (false, false) and fall through to the classifier.
func parseYesNo(message string) (bool, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false, false
	}
	if strings.Contains(lower, "not me") || strings.Contains(lower, "that's not") || strings.Contains(lower, "that is not") {
		return false, true
	}

	sawYes, sawNo := false, false
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if _, ok := yesWords[word]; ok {
			sawYes = true
		}
		if _, ok := noWords[word]; ok {
			sawNo = true
		}
	}
	if sawYes == sawNo {
		return false, false
	}
	return sawYes, true
}

func containsWord(lower, word string) bool {
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if w == word {
			return true
		}
	}
	return false
}
