// Package assist wraps the Gemini text-completion API behind a retrying
// one-shot Ask. The core never depends on its output; a dead assistant
// degrades to an error string in the UI and nothing else.
package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"coinpulse/internal/models"
)

const (
	defaultModel = "gemini-2.5-flash"
	maxAttempts  = 5
	baseDelay    = time.Second
)

type Assistant struct {
	logger   *zap.Logger
	generate func(ctx context.Context, prompt string) (string, error)

	attempts int
	delay    time.Duration
}

// New builds an assistant backed by Gemini. The credential comes from the
// caller (GEMINI_API_KEY); an empty key is the caller's problem to handle
// before getting here.
func New(ctx context.Context, apiKey string, logger *zap.Logger) (*Assistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	gen := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, defaultModel, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("empty completion")
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
	}

	return &Assistant{logger: logger, generate: gen, attempts: maxAttempts, delay: baseDelay}, nil
}

// Ask sends the prompt, retrying transient failures up to 5 times with the
// delay doubling from a 1-second base.
func (a *Assistant) Ask(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := a.delay

	for attempt := 1; attempt <= a.attempts; attempt++ {
		reply, err := a.generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		a.logger.Warn("assistant call failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt == a.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("assistant unavailable after %d attempts: %w", a.attempts, lastErr)
}

// BuildPrompt prefixes the user's question with a compact portfolio summary
// so the assistant can answer questions about the user's own positions.
func BuildPrompt(summary models.PortfolioSummary, question string) string {
	var b strings.Builder
	b.WriteString("You are a portfolio assistant. The user's current portfolio:\n")
	if len(summary.Positions) == 0 {
		b.WriteString("(no holdings)\n")
	}
	for _, p := range summary.Positions {
		fmt.Fprintf(&b, "- %s (%s): qty %g, avg cost %g USD", p.Name, p.Symbol, p.Quantity, p.AvgCost)
		if p.CurrentPrice != nil {
			fmt.Fprintf(&b, ", price %g USD, P/L %.2f%%", *p.CurrentPrice, p.PnLPct)
		} else {
			b.WriteString(", price unknown")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total value %.2f USD, total P/L %.2f USD (%.2f%%).\n\n",
		summary.TotalValue, summary.TotalPnL, summary.TotalPnLPct)
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
