package intent

import (
	"context"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Street address: a leading house number followed by at least one word.
	addressPattern = regexp.MustCompile(`(?i)\b\d{1,6}\s+[a-z0-9][a-z0-9 .'\-]{2,60}\b`)

	timePattern = regexp.MustCompile(`(?i)\b(mornings?|afternoons?|evenings?|weekends?|monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow|next week|asap)\b`)
)

// keywordRule maps phrases to an intent. Earlier rules win, so opt-out and
// wrong-number language must stay ahead of the softer interest signals.
type keywordRule struct {
	intent  Intent
	phrases []string
}

var heuristicRules = []keywordRule{
	{IntentOptOut, []string{"stop", "unsubscribe", "remove me", "opt out", "do not text", "don't text", "stop texting", "quit"}},
	{IntentWrongNumber, []string{"wrong number", "wrong person", "who is this", "don't know you", "not my number"}},
	{IntentNotInterested, []string{"not interested", "no thanks", "no thank you", "already fixed", "went with someone", "hired someone", "found someone", "no longer need"}},
	{IntentNotNow, []string{"not now", "not right now", "maybe later", "not yet", "check back", "busy right now", "next month", "in a few weeks"}},
	{IntentCallMe, []string{"call me", "give me a call", "phone me", "rather talk", "prefer to talk", "can you call"}},
	{IntentReschedule, []string{"reschedule", "different time", "another time", "change my appointment", "move my appointment", "different day"}},
	{IntentConfirmNo, []string{"that's not me", "not me", "nope", "incorrect", "that is wrong", "no that's wrong"}},
	{IntentBookYes, []string{"book it", "book me", "schedule it", "schedule me", "sign me up", "let's do it", "lets do it", "set it up", "yes please book", "sounds good let's"}},
	{IntentConfirmYes, []string{"yes", "yep", "yeah", "correct", "that's right", "that's me", "that is me", "confirmed", "sure", "ok", "okay"}},
	{IntentInterested, []string{"interested", "tell me more", "sounds good", "how does this work", "i might", "possibly"}},
	{IntentInfoRequest, []string{"how much", "price", "cost", "what's included", "what is included", "warranty", "how long", "details"}},
}

// MatchesKeywordRule reports whether any classification rule fires on the
// message. Raw-shape handling uses it so that an intentful reply ("not
// interested", "call me") is never swallowed as a free-text answer.
func MatchesKeywordRule(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	for _, rule := range heuristicRules {
		for _, phrase := range rule.phrases {
			if matchPhrase(lower, phrase) {
				return true
			}
		}
	}
	return false
}

// HeuristicClassifier is a deterministic keyword classifier. It never errors,
// which makes it the terminal fallback when the LLM path is unavailable.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns a keyword-based classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify matches the message against the keyword rules in priority order.
func (c *HeuristicClassifier) Classify(_ context.Context, req Request) (Result, error) {
	lower := strings.ToLower(strings.TrimSpace(req.Message))
	res := Result{Intent: IntentUnclear, Confidence: 0.3, Extracted: ExtractFields(req.Message)}
	if lower == "" {
		res.Confidence = 0.2
		return res, nil
	}
	for _, rule := range heuristicRules {
		for _, phrase := range rule.phrases {
			if !matchPhrase(lower, phrase) {
				continue
			}
			res.Intent = rule.intent
			res.Confidence = 0.6
			res.Reasoning = "keyword match: " + phrase
			return res, nil
		}
	}
	if strings.Contains(lower, "?") {
		res.Intent = IntentInfoRequest
		res.Confidence = 0.4
		res.Extracted.Question = strings.TrimSpace(req.Message)
	}
	return res, nil
}

// matchPhrase requires single-word phrases to match as whole words so that
// "yes" does not fire inside "yesterday".
func matchPhrase(lower, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') || strings.ContainsRune(phrase, '\'') {
		return strings.Contains(lower, phrase)
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	}) {
		if word == phrase {
			return true
		}
	}
	return false
}

// ExtractFields pulls structured fields out of raw message text. It is also
// used directly by mid-flow states that expect a bare address or name reply.
func ExtractFields(message string) Extracted {
	var ex Extracted
	if m := emailPattern.FindString(message); m != "" {
		ex.Email = m
	}
	if m := addressPattern.FindString(message); m != "" {
		ex.Address = strings.TrimSpace(m)
	}
	if m := timePattern.FindString(message); m != "" {
		ex.PreferredTime = strings.ToLower(m)
	}
	return ex
}

// LooksLikeName reports whether the message is plausibly a bare name reply:
// one to four words, letters only, no digits, no question mark.
func LooksLikeName(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" || strings.ContainsAny(trimmed, "0123456789?@") {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) < 1 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && r != '\'' && r != '-' && r != '.' {
				return false
			}
		}
	}
	return true
}

// LooksLikeAddress reports whether the message is plausibly a bare street
// address reply.
func LooksLikeAddress(message string) bool {
	return addressPattern.MatchString(message)
}
