// Package advisor produces a short trade recommendation for a plan, via
// the OpenAI API when available and a rule-based fallback otherwise.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"options-copilot/internal/config"
	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// Recommendation is the advisory text plus which path produced it.
type Recommendation struct {
	Text   string
	Source string // "llm" or "rules"
}

// Advisor generates recommendations. Any LLM failure degrades to the
// rule-based path; callers never see an error from Recommend.
type Advisor struct {
	cfg     *config.Config
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// New creates an advisor. Without an API key, or with the advisor
// disabled, only the rule-based path is used.
func New(cfg *config.Config, logger zerolog.Logger) *Advisor {
	a := &Advisor{cfg: cfg, logger: logger}
	if cfg.Advisor.Enabled && cfg.Advisor.OpenAIAPIKey != "" {
		a.client = openai.NewClient(cfg.Advisor.OpenAIAPIKey)
		a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openai",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return a
}

// Recommend produces advisory text for the plan.
func (a *Advisor) Recommend(ctx context.Context, plan *models.TradePlan) Recommendation {
	if a.client != nil {
		text, err := a.llmRecommend(ctx, plan)
		if err == nil {
			return Recommendation{Text: text, Source: "llm"}
		}
		a.logger.Warn().
			Str("plan_id", plan.ID).
			Err(fmt.Errorf("%w: %v", errors.ErrRecommendationUnavailable, err)).
			Msg("LLM recommendation failed, using rule-based fallback")
	}
	return Recommendation{Text: RuleBased(plan), Source: "rules"}
}

func (a *Advisor) llmRecommend(ctx context.Context, plan *models.TradePlan) (string, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.cfg.Advisor.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleSystem,
					Content: "You are a risk-focused options trading assistant. " +
						"Give a concise assessment of the trade plan in at most three sentences. " +
						"Never suggest exceeding the plan's size or widening its stop.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: planSummary(plan),
				},
			},
			MaxTokens:   200,
			Temperature: 0.3,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty completion")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// RuleBased composes the fallback recommendation from the plan's own
// checklist and degradation notices.
func RuleBased(plan *models.TradePlan) string {
	var b strings.Builder

	if plan.Decision == models.Pass {
		fmt.Fprintf(&b, "%s %s $%.2f passes all risk checks: %d contracts risking $%.0f (%.2f%% of capital), stop $%.2f, target $%.2f.",
			plan.Contract.Ticker, strings.ToLower(string(plan.Contract.Kind)), plan.Contract.Strike,
			plan.Position.Contracts, plan.Position.RiskDollars, plan.Position.RiskPct,
			plan.StopTarget.StopLoss, plan.StopTarget.Target)
	} else {
		fmt.Fprintf(&b, "%s %s $%.2f fails the checklist:", plan.Contract.Ticker,
			strings.ToLower(string(plan.Contract.Kind)), plan.Contract.Strike)
		for _, check := range plan.Checks {
			if !check.Passed {
				fmt.Fprintf(&b, " %s;", check.Reason)
			}
		}
		b.WriteString(" do not take the trade at this size.")
	}

	if plan.PoP != nil {
		fmt.Fprintf(&b, " Probability of profit %.0f%%.", *plan.PoP*100)
	}
	if plan.Contract.IsSameDay() {
		b.WriteString(" Same-day expiry: expect fast decay and honor the tighter stop.")
	}
	return b.String()
}

// planSummary renders the plan for the LLM prompt.
func planSummary(plan *models.TradePlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trade: %s %s strike %.2f, premium $%.2f, %d DTE.\n",
		plan.Contract.Ticker, plan.Contract.Kind, plan.Contract.Strike, plan.Contract.Premium, plan.Contract.DTE)
	fmt.Fprintf(&b, "Size: %d contracts, $%.0f risk (%.2f%% of capital), method %s.\n",
		plan.Position.Contracts, plan.Position.RiskDollars, plan.Position.RiskPct, plan.Position.Method)
	fmt.Fprintf(&b, "Stop $%.2f, target $%.2f (%s).\n",
		plan.StopTarget.StopLoss, plan.StopTarget.Target, plan.StopTarget.TargetSource)
	if plan.PoP != nil {
		fmt.Fprintf(&b, "Probability of profit %.0f%%.\n", *plan.PoP*100)
	}
	fmt.Fprintf(&b, "Decision: %s.\n", plan.Decision)
	for _, check := range plan.Checks {
		fmt.Fprintf(&b, "- %s: %v (%s)\n", check.Name, check.Passed, check.Reason)
	}
	return b.String()
}
