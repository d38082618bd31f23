package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/llm"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

const classifySystemPrompt = `You classify SMS replies from home-service customers responding to a follow-up offer.

Return ONLY a JSON object, no prose, with this shape:
{"intent": "<code>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>", "extracted": {"address": "", "name": "", "email": "", "preferredTime": "", "question": ""}}

Intent codes:
- opt_out: asks to stop receiving messages (STOP, unsubscribe, remove me)
- not_interested: declines the offer outright
- not_now: interested but not at this time
- info_request: asks a question about price, scope, or the offer
- book_yes: explicitly wants to schedule an appointment
- interested: positive but has not asked to schedule yet
- reschedule: wants to change an existing appointment
- wrong_number: says we reached the wrong person
- call_me: prefers a phone call
- confirm_yes: affirms a yes/no question we asked (identity, address, slot)
- confirm_no: denies a yes/no question we asked
- unclear: none of the above fit

Only fill extracted fields that literally appear in the customer's message. Never invent values.`

// LLMClassifier asks a chat model for the intent and parses its JSON reply.
type LLMClassifier struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

// NewLLMClassifier builds a classifier over the given chat client.
// It panics if client is nil.
func NewLLMClassifier(client llm.Client, model string, logger *logging.Logger) *LLMClassifier {
	if client == nil {
		panic("intent: llm client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMClassifier{client: client, model: model, logger: logger}
}

// Classify sends the message plus recent history to the model and decodes the
// structured result. Any transport or parse failure is returned to the caller
// so the fallback path can take over.
func (c *LLMClassifier) Classify(ctx context.Context, req Request) (Result, error) {
	messages := buildClassifyMessages(req)
	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.model,
		System:      []string{classifySystemPrompt},
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: llm classify: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Text)), &res); err != nil {
		return Result{}, fmt.Errorf("intent: parse llm response: %w", err)
	}
	if !res.Intent.Valid() {
		return Result{}, fmt.Errorf("intent: llm returned unknown intent %q", res.Intent)
	}
	return res, nil
}

func buildClassifyMessages(req Request) []llm.ChatMessage {
	var messages []llm.ChatMessage
	if req.Offer != nil {
		messages = append(messages, llm.ChatMessage{
			Role:    llm.ChatRoleUser,
			Content: fmt.Sprintf("Context: the offer is %s (%s, %s).", req.Offer.Name, req.Offer.Type, req.Offer.Price),
		})
	}
	for _, turn := range req.History {
		role := llm.ChatRoleUser
		if turn.Role == history.RoleAssistant {
			role = llm.ChatRoleAssistant
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: turn.Body})
	}
	messages = append(messages, llm.ChatMessage{
		Role:    llm.ChatRoleUser,
		Content: "Classify this reply: " + req.Message,
	})
	return messages
}

// stripCodeFences removes a surrounding markdown fence if the model wrapped
// its JSON in one.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
