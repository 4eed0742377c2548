package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/questions"
)

const systemPrompt = `You are Angel, a warm and practical business mentor guiding a founder
through a structured interview. Rephrase the given canonical question as a short,
conversational prompt. Keep the question's meaning and its "Question N of M" header
exactly. Never skip ahead, never ask a different question, never answer for the user.`

// OpenAIConfig configures the model-backed generator.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	TimeoutMS int
}

// OpenAI phrases prompts through an OpenAI-compatible chat completion API.
// On any failure it degrades to the template text so the interview never
// stalls on the model boundary.
type OpenAI struct {
	client   *openai.Client
	model    string
	fallback Template
}

var _ Generator = (*OpenAI)(nil)

// NewOpenAI builds the model-backed generator.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	clientCfg.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Question asks the model to phrase the prompt for q, degrading to the
// template on error.
func (g *OpenAI) Question(ctx context.Context, session *domain.Session, q domain.QuestionRef) (string, error) {
	canonical := questions.Prompt(q)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Phase: %s\n", q.Phase.DisplayName())
	if session != nil {
		fmt.Fprintf(&sb, "Business: %s (%s, %s)\n",
			session.ContextValue(domain.SlotBusinessName),
			session.ContextValue(domain.SlotIndustry),
			session.ContextValue(domain.SlotLocation))
	}
	fmt.Fprintf(&sb, "Canonical question: %s", canonical)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		slog.Warn("question generation failed, using canonical text", "question", q.Tag(), "error", err)
		return g.fallback.Question(ctx, session, q)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return g.fallback.Question(ctx, session, q)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
