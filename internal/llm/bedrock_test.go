package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverseAPI struct {
	out     *bedrockruntime.ConverseOutput
	err     error
	lastIn  *bedrockruntime.ConverseInput
	calls   int
	failNow bool
}

func (f *fakeConverseAPI) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func converseTextOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(5),
			TotalTokens:  aws.Int32(15),
		},
	}
}

func TestBedrockClientComplete(t *testing.T) {
	api := &fakeConverseAPI{out: converseTextOutput("  hello there  ")}
	client := NewBedrockClient(api)

	resp, err := client.Complete(context.Background(), Request{
		Model:       "model-id",
		System:      []string{"be brief"},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		MaxTokens:   128,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("expected usage, got %+v", resp.Usage)
	}
	if len(api.lastIn.System) != 1 {
		t.Fatalf("expected one system block, got %d", len(api.lastIn.System))
	}
}

func TestBedrockClientRequiresModel(t *testing.T) {
	client := NewBedrockClient(&fakeConverseAPI{})
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for missing model id")
	}
}

func TestBedrockClientPropagatesAPIError(t *testing.T) {
	api := &fakeConverseAPI{err: errors.New("throttled")}
	client := NewBedrockClient(api)
	if _, err := client.Complete(context.Background(), Request{Model: "m", Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}}); err == nil {
		t.Fatal("expected API error to propagate")
	}
}

func TestBedrockClientSystemRoleMessagesMoveToSystemBlocks(t *testing.T) {
	api := &fakeConverseAPI{out: converseTextOutput("ok")}
	client := NewBedrockClient(api)

	_, err := client.Complete(context.Background(), Request{
		Model: "m",
		Messages: []ChatMessage{
			{Role: ChatRoleSystem, Content: "rules"},
			{Role: ChatRoleUser, Content: "hi"},
		},
		Temperature: -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.lastIn.System) != 1 {
		t.Fatalf("expected system role message promoted to system block, got %d", len(api.lastIn.System))
	}
	if len(api.lastIn.Messages) != 1 {
		t.Fatalf("expected single user message, got %d", len(api.lastIn.Messages))
	}
}
