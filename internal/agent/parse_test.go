package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlotSelection(t *testing.T) {
	tests := []struct {
		message string
		want    int
		ok      bool
	}{
		{"2", 2, true},
		{" 1 ", 1, true},
		{"option 3", 3, true},
		{"#2 please", 2, true},
		{"the first one works", 1, true},
		{"two", 2, true},
		{"4", 4, true},
		{"9", 9, true},
		{"tuesday works", 0, false},
		{"yes", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := parseSlotSelection(tt.message)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		message string
		answer  bool
		ok      bool
	}{
		{"yes", true, true},
		{"Yep!", true, true},
		{"that's correct", true, true},
		{"no", false, true},
		{"nope", false, true},
		{"that's not me", false, true},
		{"yes no maybe", false, false},
		{"what do you mean", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			answer, ok := parseYesNo(tt.message)
			assert.Equal(t, tt.ok, ok, "ok")
			if tt.ok {
				assert.Equal(t, tt.answer, answer, "answer")
			}
		})
	}
}
