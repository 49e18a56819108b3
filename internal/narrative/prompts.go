package narrative

import (
	"fmt"
	"strings"

	"github.com/riskmind/riskmind/internal/decision"
)

const rationaleSystemPrompt = "You are a professional financial advisor specializing in Indian stock markets."

const rationaleTemplate = `You are a professional financial advisor analyzing Indian stock markets. Provide a clear, concise rationale for the trading decision.

**Stock Analysis:**
- Symbol: {{symbol}}
- Sector: {{sector}}
- Current Price: {{current_price}}
- Entry Price: {{entry_price}}
- Change: {{change_percent}}%

**Performance:**
- Profit/Loss: {{pnl}}% ({{pnl_amount}})
- Position Size: {{quantity}} shares ({{exposure}})

**Risk Metrics:**
- Risk Score: {{risk_score}}/1.0 ({{risk_level}})
- Volatility (30d): {{volatility}}%
- Sentiment: {{sentiment}} ({{sentiment_label}})
- Value at Risk (95%): {{var95}}

**Recommended Action: {{action}}**
**Urgency: {{urgency}}/10**

**Task:**
Provide a 3-sentence rationale covering:
1. Why this action is recommended based on the metrics above
2. Risks if the recommendation is ignored
3. Expected outcome if the action is taken

Be specific, data-driven, and actionable.`

const interpretSystemPrompt = "You are a professional financial risk analyst specializing in Indian stock markets."

const interpretTemplate = `You are a financial risk assessment expert analyzing Indian stock market data.

Given the following risk metrics for {{symbol}}:
- Risk Score: {{risk_score}} (0-1 scale, higher = riskier)
- Risk Level: {{risk_level}}
- Volatility: {{volatility}}%
- Value at Risk (95%): {{var95}}
- Current Price: {{current_price}}

Provide a concise professional interpretation (2-3 sentences) that:
1. Explains what this risk level means for the position
2. Highlights the most concerning metric
3. Suggests immediate attention if risk is critical

Keep your response professional and actionable.`

const reviewSystemPrompt = "You are a senior financial advisor validating AI-generated trading decisions."

const reviewTemplate = `You are validating a trading decision made by an AI system.

**Stock**: {{symbol}}
**Recommended Action**: {{action}}
**Urgency**: {{urgency}}/10

**Context**:
- Risk Score: {{risk_score}}
- Current Price: {{current_price}}
- P&L: {{pnl}}%
- Volatility: {{volatility}}%

**Rationale**: {{rationale}}

Validate this decision by providing:
1. Confidence score (0-1): How confident are you this is the right action?
2. Concerns: Any red flags or concerns (1 sentence, or "None")
3. Final verdict: "APPROVE" or "REVIEW_NEEDED"

Format your response as JSON:
{
  "confidence": 0.85,
  "concerns": "None" or "Brief concern",
  "verdict": "APPROVE" or "REVIEW_NEEDED",
  "reasoning": "One sentence explanation"
}`

// fill substitutes {{name}} placeholders.
func fill(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func rationalePrompt(rc decision.RationaleContext) string {
	sector := rc.Sector
	if sector == "" {
		sector = "Unknown"
	}
	sentiment := "N/A"
	if rc.Sentiment != nil {
		sentiment = fmt.Sprintf("%.2f", *rc.Sentiment)
	}
	return fill(rationaleTemplate, map[string]string{
		"symbol":          rc.Symbol,
		"sector":          sector,
		"current_price":   fmt.Sprintf("%.2f", rc.CurrentPrice),
		"entry_price":     fmt.Sprintf("%.2f", rc.EntryPrice),
		"change_percent":  fmt.Sprintf("%.2f", rc.ChangePercent),
		"pnl":             fmt.Sprintf("%.2f", rc.PnLPercent),
		"pnl_amount":      fmt.Sprintf("%.2f", rc.PnLAmount),
		"quantity":        fmt.Sprintf("%g", rc.Quantity),
		"exposure":        fmt.Sprintf("%.2f", rc.Exposure),
		"risk_score":      fmt.Sprintf("%.2f", rc.RiskScore),
		"risk_level":      rc.RiskLevel,
		"volatility":      fmt.Sprintf("%.2f", rc.Volatility*100),
		"sentiment":       sentiment,
		"sentiment_label": SentimentLabel(rc.Sentiment),
		"var95":           fmt.Sprintf("%.2f", rc.VaR95),
		"action":          string(rc.Action),
		"urgency":         fmt.Sprintf("%d", rc.Urgency),
	})
}

// SentimentLabel buckets a sentiment score for prompt context.
func SentimentLabel(sentiment *float64) string {
	if sentiment == nil {
		return "Neutral"
	}
	s := *sentiment
	switch {
	case s > 0.5:
		return "Very Positive"
	case s > 0.2:
		return "Positive"
	case s > -0.2:
		return "Neutral"
	case s > -0.5:
		return "Negative"
	default:
		return "Very Negative"
	}
}
