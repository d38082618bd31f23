package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicClassifyIntents(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"stop word", "STOP", IntentOptOut},
		{"unsubscribe", "please unsubscribe me", IntentOptOut},
		{"wrong number", "I think you have the wrong number", IntentWrongNumber},
		{"not interested", "No thanks, not interested", IntentNotInterested},
		{"already hired", "we went with someone else", IntentNotInterested},
		{"not now", "maybe later, busy right now", IntentNotNow},
		{"call me", "can you call me instead", IntentCallMe},
		{"reschedule", "I need to reschedule my appointment", IntentReschedule},
		{"book it", "yes book it", IntentBookYes},
		{"plain yes", "Yes", IntentConfirmYes},
		{"thats me", "yep that's me", IntentConfirmYes},
		{"not me", "no that's not me", IntentConfirmNo},
		{"interested", "I'm interested, tell me more", IntentInterested},
		{"price question", "how much does it cost", IntentInfoRequest},
		{"bare question mark", "does this cover the attic insulation?", IntentInfoRequest},
		{"gibberish", "asdf qwerty", IntentUnclear},
		{"empty", "   ", IntentUnclear},
	}

	c := NewHeuristicClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Classify(context.Background(), Request{Message: tt.message})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Intent)
		})
	}
}

func TestHeuristicWholeWordMatching(t *testing.T) {
	c := NewHeuristicClassifier()

	// "yes" must not fire inside "yesterday".
	res, err := c.Classify(context.Background(), Request{Message: "I called yesterday about the roof"})
	require.NoError(t, err)
	assert.NotEqual(t, IntentConfirmYes, res.Intent)
}

func TestMatchesKeywordRule(t *testing.T) {
	assert.True(t, MatchesKeywordRule("not interested"))
	assert.True(t, MatchesKeywordRule("Call Me"))
	assert.True(t, MatchesKeywordRule("wrong number"))
	assert.False(t, MatchesKeywordRule("Maria Gonzalez"))
	assert.False(t, MatchesKeywordRule(""))
}

func TestExtractFields(t *testing.T) {
	ex := ExtractFields("I'm at 413 Maple Ave, email me at jo@example.com, mornings work best")
	assert.Equal(t, "jo@example.com", ex.Email)
	assert.Contains(t, ex.Address, "413 Maple Ave")
	assert.Equal(t, "mornings", ex.PreferredTime)
}

func TestLooksLikeName(t *testing.T) {
	assert.True(t, LooksLikeName("Maria Gonzalez"))
	assert.True(t, LooksLikeName("D'Angelo Smith-Jones"))
	assert.False(t, LooksLikeName("413 Maple Ave"))
	assert.False(t, LooksLikeName("what time works?"))
	assert.False(t, LooksLikeName(""))
	assert.False(t, LooksLikeName("one two three four five"))
}

func TestLooksLikeAddress(t *testing.T) {
	assert.True(t, LooksLikeAddress("413 Maple Ave"))
	assert.True(t, LooksLikeAddress("it's 9001 W Sunset Blvd"))
	assert.False(t, LooksLikeAddress("Maria Gonzalez"))
	assert.False(t, LooksLikeAddress("yes please"))
}
