// Package qa answers user questions about the market, grounded on the most
// recent analyzed news.
package qa

import (
	"context"
	"log/slog"
	"strings"

	"github.com/seenimoa/financeflow/internal/llm"
	"github.com/seenimoa/financeflow/internal/news"
)

// Fixed replies.
const (
	OfflineMessage = "AI processor is offline."
	ErrorMessage   = "ขออภัยค่ะ เกิดข้อผิดพลาดในการประมวลผลคำตอบ"
)

const preamble = `You are a helpful investment assistant for Thai retail investors.
Answer the user's question in Thai, based ONLY on the news context provided below.
Do not give direct financial advice such as telling the user to buy or sell.
If the context does not contain enough information to answer, say so clearly.`

// Assistant builds grounding prompts and asks an LLM provider for answers.
type Assistant struct {
	provider    llm.LLMProvider
	temperature float64
	log         *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger used for provider failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.log = l }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Assistant) { a.temperature = t }
}

// New creates an Assistant. A nil provider puts it in offline mode.
func New(provider llm.LLMProvider, opts ...Option) *Assistant {
	a := &Assistant{
		provider:    provider,
		temperature: llm.DefaultTemperature,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Online reports whether a provider is configured.
func (a *Assistant) Online() bool { return a.provider != nil }

// Answer returns the model's answer to question using docs as context. It
// never fails: offline mode yields OfflineMessage and provider errors yield
// ErrorMessage.
func (a *Assistant) Answer(ctx context.Context, question string, docs []news.Document) string {
	if a.provider == nil {
		return OfflineMessage
	}

	prompt := BuildPrompt(question, docs)
	temp := a.temperature
	resp, err := a.provider.Chat(ctx, []llm.Message{llm.UserMessage(prompt)}, &llm.ChatOptions{
		Temperature: &temp,
	})
	if err != nil {
		a.log.Error("qa: chat completion failed", "provider", a.provider.Name(), "error", err)
		return ErrorMessage
	}

	a.log.Debug("qa: answered", "response", resp.String())
	return resp.Content
}

// BuildPrompt assembles the grounding prompt. Documents without an English
// summary are left out of the context block.
func BuildPrompt(question string, docs []news.Document) string {
	var blocks []string
	for _, d := range docs {
		if d.Analysis == nil {
			continue
		}
		summary := strings.TrimSpace(d.Analysis.SummaryEN)
		if summary == "" {
			continue
		}
		blocks = append(blocks, "Title: "+d.Title+"\nSummary: "+summary)
	}

	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\nCONTEXT:\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\nUSER QUESTION: \"")
	sb.WriteString(question)
	sb.WriteString("\"\n\nYOUR ANSWER (in Thai):")
	return sb.String()
}
