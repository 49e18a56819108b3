package decision

// Action is the recommended move for a position.
type Action string

const (
	ActionHold       Action = "HOLD"
	ActionReduce     Action = "REDUCE"
	ActionExit       Action = "EXIT"
	ActionStopLoss   Action = "STOP_LOSS"
	ActionReallocate Action = "REALLOCATE"
	ActionBuy        Action = "BUY"
)

// RuleContext carries everything the decision table reads. Sentiment is
// treated as 0 when absent.
type RuleContext struct {
	Symbol            string
	RiskScore         float64
	RiskLevel         string
	Sentiment         *float64
	PnLPercent        float64
	Volatility        float64
	ConcentrationRisk float64
}

// RuleResult is one matched row of the table.
type RuleResult struct {
	Action  Action
	Urgency int // 1..10
	Reason  string
}

// EvaluateRules walks the ordered decision table, first match wins. The
// table is deliberately not a weighted vote: ordering is part of the
// contract and the reason strings are fixed.
func EvaluateRules(ctx RuleContext) RuleResult {
	sentiment := 0.0
	if ctx.Sentiment != nil {
		sentiment = *ctx.Sentiment
	}

	// Rule 1: critical risk with strongly negative sentiment.
	if ctx.RiskScore > 0.8 && sentiment < -0.3 {
		return RuleResult{ActionExit, 10, "Critical risk level with strong negative sentiment"}
	}
	// Rule 2: sharp loss.
	if ctx.PnLPercent < -15 {
		return RuleResult{ActionStopLoss, 9, "Stop-loss triggered at -15% loss threshold"}
	}
	// Rule 3: high risk with negative sentiment.
	if ctx.RiskScore > 0.7 && sentiment < -0.2 {
		return RuleResult{ActionExit, 8, "High risk combined with negative market sentiment"}
	}
	// Rule 4: over-concentrated position.
	if ctx.ConcentrationRisk > 0.4 {
		return RuleResult{ActionReallocate, 7, "Portfolio over-concentrated in this position"}
	}
	// Rule 5: moderate risk with high volatility.
	if ctx.RiskScore > 0.5 && ctx.Volatility > 0.35 {
		return RuleResult{ActionReduce, 6, "Elevated risk and volatility suggest position reduction"}
	}
	// Rule 6: moderate risk.
	if ctx.RiskScore > 0.5 {
		return RuleResult{ActionReduce, 5, "Moderate risk level warrants partial position reduction"}
	}
	// Rule 7: moderate loss.
	if ctx.PnLPercent < -10 {
		return RuleResult{ActionReduce, 5, "Loss exceeds 10% threshold"}
	}
	// Rule 8: low risk with positive sentiment.
	if ctx.RiskScore < 0.4 && sentiment > 0.3 {
		return RuleResult{ActionHold, 2, "Low risk with positive sentiment supports holding"}
	}
	// Default.
	return RuleResult{ActionHold, 3, "Risk metrics within acceptable range"}
}

// ActionPriority orders actions for batch reporting, most defensive
// first.
func ActionPriority(a Action) int {
	switch a {
	case ActionExit:
		return 5
	case ActionStopLoss:
		return 4
	case ActionReduce:
		return 3
	case ActionReallocate:
		return 2
	case ActionHold:
		return 1
	default:
		return 0
	}
}
