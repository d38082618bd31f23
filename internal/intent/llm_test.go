package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boostxlresults/intellisend/internal/history"
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

func TestLLMClassifyParsesResult(t *testing.T) {
	fake := &fakeLLMClient{resp: llm.Response{
		Text: `{"intent":"book_yes","confidence":0.92,"reasoning":"asked to schedule","extracted":{"preferredTime":"morning"}}`,
	}}
	c := NewLLMClassifier(fake, "model-id", nil)

	res, err := c.Classify(context.Background(), Request{
		Message: "yes let's get it scheduled, mornings work",
		History: []history.Turn{
			{Role: history.RoleAssistant, Body: "Hi, still want that tune-up?"},
			{Role: history.RoleCustomer, Body: "maybe"},
		},
		Offer: &session.OfferContext{Type: "tune-up", Name: "Fall Tune-Up", Price: "$89"},
	})
	require.NoError(t, err)
	assert.Equal(t, IntentBookYes, res.Intent)
	assert.InDelta(t, 0.92, res.Confidence, 0.001)
	assert.Equal(t, "morning", res.Extracted.PreferredTime)

	require.Len(t, fake.lastReq.Messages, 4)
	assert.Equal(t, llm.ChatRoleAssistant, fake.lastReq.Messages[1].Role)
	assert.Contains(t, fake.lastReq.Messages[0].Content, "Fall Tune-Up")
	assert.NotEmpty(t, fake.lastReq.System)
}

func TestLLMClassifyStripsCodeFences(t *testing.T) {
	fake := &fakeLLMClient{resp: llm.Response{
		Text: "```json\n{\"intent\":\"opt_out\",\"confidence\":0.99}\n```",
	}}
	c := NewLLMClassifier(fake, "model-id", nil)

	res, err := c.Classify(context.Background(), Request{Message: "STOP"})
	require.NoError(t, err)
	assert.Equal(t, IntentOptOut, res.Intent)
}

func TestLLMClassifyErrors(t *testing.T) {
	tests := []struct {
		name string
		resp llm.Response
		err  error
	}{
		{"transport failure", llm.Response{}, errors.New("throttled")},
		{"non-json reply", llm.Response{Text: "Sure, I'd classify that as interested!"}, nil},
		{"unknown intent", llm.Response{Text: `{"intent":"banana","confidence":0.5}`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClassifier(&fakeLLMClient{resp: tt.resp, err: tt.err}, "model-id", nil)
			_, err := c.Classify(context.Background(), Request{Message: "hello"})
			assert.Error(t, err)
		})
	}
}

func TestNewLLMClassifierPanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() { NewLLMClassifier(nil, "model-id", nil) })
}
