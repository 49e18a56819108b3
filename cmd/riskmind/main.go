package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/riskmind/riskmind/internal/audit"
	"github.com/riskmind/riskmind/internal/config"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/observ"
	"github.com/riskmind/riskmind/internal/portfolio"
	"github.com/riskmind/riskmind/internal/refdata"
	"github.com/riskmind/riskmind/internal/workflow"
)

type fixtureFile struct {
	PortfolioValue float64 `json:"portfolio_value"`
	Positions      []struct {
		Symbol     string  `json:"symbol"`
		Quantity   float64 `json:"quantity"`
		EntryPrice float64 `json:"entry_price"`
	} `json:"positions"`
	Reference map[string]struct {
		Sentiment     *float64 `json:"sentiment,omitempty"`
		Volatility30d *float64 `json:"volatility_30d,omitempty"`
		Sector        string   `json:"sector,omitempty"`
		MarketCap     *int64   `json:"market_cap,omitempty"`
		PERatio       *float64 `json:"pe_ratio,omitempty"`
	} `json:"reference"`
	Ticks []json.RawMessage `json:"ticks"`
}

func main() {
	var cfgPath string
	var fixturePath string
	var userID string
	var parallel int
	var oneShot bool
	var jsonOut bool
	var metricsAddr string
	flag.StringVar(&cfgPath, "config", "config/config.yaml", "config path")
	flag.StringVar(&fixturePath, "fixture", "fixtures/ticks.json", "tick fixture path")
	flag.StringVar(&userID, "user", "demo", "user id stamped on decisions")
	flag.IntVar(&parallel, "parallel", 4, "concurrent tick runs")
	flag.BoolVar(&oneShot, "oneshot", true, "exit after the batch (set false to keep /metrics server)")
	flag.BoolVar(&jsonOut, "json", false, "emit each final state as a JSON line instead of the summary table")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9090", "metrics listen address")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("load config: %v, continuing with defaults", err)
		cfg = config.Default()
	}

	if os.Getenv("AUDIT_SINK") != "" {
		cfg.Audit.Sink = os.Getenv("AUDIT_SINK")
	}

	fixture, err := loadFixture(fixturePath)
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}

	sink, closeSink, err := buildSink(cfg.Audit)
	if err != nil {
		log.Fatalf("audit sink: %v", err)
	}
	defer closeSink()

	refs := refdata.NewMemory()
	universe := refdata.NewUniverse(nil, nil)
	for symbol, ref := range fixture.Reference {
		refs.Put(symbol, market.Reference{
			Sentiment:     ref.Sentiment,
			Volatility30d: ref.Volatility30d,
			Sector:        ref.Sector,
			MarketCap:     ref.MarketCap,
			PERatio:       ref.PERatio,
		})
	}

	positions := make(map[string]*portfolio.Position, len(fixture.Positions))
	for _, p := range fixture.Positions {
		symbol := market.NormalizeSymbol(p.Symbol)
		positions[symbol] = &portfolio.Position{
			Symbol:     symbol,
			Quantity:   p.Quantity,
			EntryPrice: p.EntryPrice,
		}
	}

	if cfg.Narrative.Enabled {
		// No model provider is compiled into this binary; every LLM path
		// has a deterministic fallback, so the run proceeds without one.
		observ.Log("narrative_unavailable", map[string]any{"model": cfg.Narrative.Model})
	}

	orch := workflow.New(cfg, workflow.Deps{
		RefData:  refs,
		Universe: universe,
		Sink:     sink,
	})

	observ.Log("startup", map[string]any{
		"config":          cfgPath,
		"fixture":         fixturePath,
		"ticks":           len(fixture.Ticks),
		"positions":       len(positions),
		"audit_sink":      cfg.Audit.Sink,
		"portfolio_value": fixture.PortfolioValue,
	})

	reqs := make([]workflow.Request, 0, len(fixture.Ticks))
	for _, raw := range fixture.Ticks {
		symbol := market.NormalizeSymbol(tickSymbol(raw))
		reqs = append(reqs, workflow.Request{
			UserID:         userID,
			RawTick:        raw,
			Position:       positions[symbol],
			PortfolioValue: fixture.PortfolioValue,
		})
		if t, err := market.ParseTick(raw, symbol); err == nil {
			universe.AddTick(t)
		}
	}

	states := orch.RunBatch(context.Background(), reqs, parallel)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, s := range states {
			if err := enc.Encode(s); err != nil {
				log.Fatalf("encode state: %v", err)
			}
		}
		return
	}

	for _, s := range workflow.RankDecisions(states) {
		fmt.Printf("%-14s %-10s urgency=%-2d risk=%.2f  %s\n",
			s.Symbol, s.Decision.Action, s.Decision.Urgency, s.Decision.RiskScore, s.Decision.Rationale)
	}
	for _, s := range states {
		if !s.Succeeded() {
			fmt.Printf("%-14s FAILED: %s\n", s.Symbol, s.Errors[0])
		}
	}

	health, _ := json.Marshal(orch.Health())
	fmt.Printf("health: %s\n", health)

	if oneShot {
		return
	}

	http.Handle("/metrics", observ.Handler())
	observ.Log("metrics_listening", map[string]any{"addr": metricsAddr})
	log.Fatal(http.ListenAndServe(metricsAddr, nil))
}

func loadFixture(path string) (fixtureFile, error) {
	var f fixtureFile
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, err
	}
	if f.PortfolioValue == 0 {
		f.PortfolioValue = 100000
	}
	return f, nil
}

func buildSink(cfg config.Audit) (audit.Sink, func(), error) {
	switch cfg.Sink {
	case "sqlite":
		s, err := audit.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "jsonl":
		j, err := audit.NewJSONL(cfg.JSONLPath)
		if err != nil {
			return nil, nil, err
		}
		return j, func() {}, nil
	default:
		return audit.NewMemory(), func() {}, nil
	}
}

func tickSymbol(raw json.RawMessage) string {
	var t struct {
		Symbol string `json:"symbol"`
	}
	_ = json.Unmarshal(raw, &t)
	return t.Symbol
}
