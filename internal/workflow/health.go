package workflow

import "github.com/riskmind/riskmind/internal/agent"

// HealthReport aggregates per-stage health with the breaker snapshot.
type HealthReport struct {
	Overall string                `json:"overall"` // healthy | degraded | down
	Stages  []agent.Health        `json:"stages"`
	Breaker agent.BreakerSnapshot `json:"breaker"`
}

// Health reports the pipeline's current condition. An OPEN breaker is
// down regardless of per-stage rates; otherwise the average recent
// success rate buckets the report.
func (o *Orchestrator) Health() HealthReport {
	stages := []agent.Health{
		o.validate.Health(),
		o.assess.Health(),
		o.decide.Health(),
	}

	report := HealthReport{Stages: stages, Breaker: o.breaker.Snapshot()}

	if report.Breaker.State == agent.BreakerOpen {
		report.Overall = "down"
		return report
	}

	var sum float64
	var counted int
	for _, st := range stages {
		if st.SuccessRate > 0 || len(st.RecentErrors) > 0 {
			sum += st.SuccessRate
			counted++
		}
	}
	if counted == 0 {
		// No traffic yet.
		report.Overall = "healthy"
		return report
	}

	avg := sum / float64(counted)
	switch {
	case avg > 0.9:
		report.Overall = "healthy"
	case avg > 0.5:
		report.Overall = "degraded"
	default:
		report.Overall = "down"
	}
	return report
}
