package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boostxlresults/intellisend/internal/llm"
	"github.com/boostxlresults/intellisend/internal/session"
)

type fakeLLMClient struct {
	resp    llm.Response
	err     error
	lastReq llm.Request
}

func (f *fakeLLMClient) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestGenerateReturnsTrimmedText(t *testing.T) {
	fake := &fakeLLMClient{resp: llm.Response{Text: "\"Great! What's the best address for the visit?\"\n"}}
	g := NewLLMGenerator(fake, "model-id", 0, nil)

	text, err := g.Generate(context.Background(), Request{
		Instruction: "Ask for the customer's service address.",
		ContactName: "Maria",
		Offer:       &session.OfferContext{Type: "tune-up", Name: "Fall Tune-Up", Price: "$89"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Great! What's the best address for the visit?", text)

	last := fake.lastReq.Messages[len(fake.lastReq.Messages)-1]
	assert.Contains(t, last.Content, "Maria")
	assert.Contains(t, last.Content, "Fall Tune-Up")
	require.NotEmpty(t, fake.lastReq.System)
	assert.Contains(t, fake.lastReq.System[0], "Never say or imply you are automated")
}

func TestGenerateClampsLongReplies(t *testing.T) {
	long := strings.Repeat("schedule words ", 60)
	fake := &fakeLLMClient{resp: llm.Response{Text: long}}
	g := NewLLMGenerator(fake, "model-id", 100, nil)

	text, err := g.Generate(context.Background(), Request{Instruction: "anything"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), 100)
	assert.False(t, strings.HasSuffix(text, " "))
}

func TestGenerateErrors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		g := NewLLMGenerator(&fakeLLMClient{err: errors.New("throttled")}, "model-id", 0, nil)
		_, err := g.Generate(context.Background(), Request{Instruction: "x"})
		assert.Error(t, err)
	})

	t.Run("empty response", func(t *testing.T) {
		g := NewLLMGenerator(&fakeLLMClient{resp: llm.Response{Text: "  "}}, "model-id", 0, nil)
		_, err := g.Generate(context.Background(), Request{Instruction: "x"})
		assert.ErrorContains(t, err, "empty text")
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "short", Clamp("short", 320))
	assert.Equal(t, "", Clamp("", 10))

	clamped := Clamp("one two three four five six seven", 20)
	assert.LessOrEqual(t, len(clamped), 20)
	assert.False(t, strings.HasSuffix(clamped, " "))
	assert.NotContains(t, clamped, "five")
}
