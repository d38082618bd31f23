// Package reply turns an orchestrator instruction into the customer-facing
// SMS text. The generated message is clamped to a single-SMS length and must
// read like a human coordinator; the transport layer appends any compliance
// boilerplate, never this package.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/llm"
	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// DefaultMaxLength bounds generated replies to one SMS segment pair.
const DefaultMaxLength = 320

// Request describes the message to produce.
type Request struct {
	Instruction string
	ContactName string
	History     []history.Turn
	Offer       *session.OfferContext
	MaxLength   int
}

// Generator produces customer-facing text from an instruction.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const generateSystemPrompt = `You are a scheduling coordinator texting customers for a local home-service company.

Rules:
- Write ONE short SMS reply following the instruction you are given.
- Sound like a real person on the office team. Never say or imply you are automated, an AI, a bot, or an assistant.
- Never include unsubscribe or opt-out language.
- No greetings like "Dear" and no signatures. Plain conversational text.
- Stay under %d characters.

Reply with the message text only.`

// LLMGenerator asks a chat model for the reply text.
type LLMGenerator struct {
	client    llm.Client
	model     string
	maxLength int
	logger    *logging.Logger
}

// NewLLMGenerator builds a generator over the given chat client.
// It panics if client is nil.
func NewLLMGenerator(client llm.Client, model string, maxLength int, logger *logging.Logger) *LLMGenerator {
	if client == nil {
		panic("reply: llm client is required")
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMGenerator{client: client, model: model, maxLength: maxLength, logger: logger}
}

// Generate produces the reply text. The result is always clamped to the
// configured length even when the model ignores the instruction.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (string, error) {
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = g.maxLength
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      []string{fmt.Sprintf(generateSystemPrompt, maxLength)},
		Messages:    buildGenerateMessages(req),
		MaxTokens:   200,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("reply: generate: %w", err)
	}

	text := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Text), `"`))
	if text == "" {
		return "", fmt.Errorf("reply: model returned empty text")
	}
	return Clamp(text, maxLength), nil
}

func buildGenerateMessages(req Request) []llm.ChatMessage {
	var sb strings.Builder
	if req.ContactName != "" {
		fmt.Fprintf(&sb, "Customer name: %s.\n", req.ContactName)
	}
	if req.Offer != nil {
		fmt.Fprintf(&sb, "Offer: %s (%s, %s).\n", req.Offer.Name, req.Offer.Type, req.Offer.Price)
	}
	sb.WriteString("Instruction: ")
	sb.WriteString(req.Instruction)

	var messages []llm.ChatMessage
	for _, turn := range req.History {
		role := llm.ChatRoleUser
		if turn.Role == history.RoleAssistant {
			role = llm.ChatRoleAssistant
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: turn.Body})
	}
	return append(messages, llm.ChatMessage{Role: llm.ChatRoleUser, Content: sb.String()})
}

// Clamp truncates text to max characters, cutting at the last word boundary
// so the customer never receives a mid-word chop.
func Clamp(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-")
}
