package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/decision"
)

func TestMemorySink(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Record(ctx, Entry{TraceID: "t1", Stage: "market", Status: StatusSuccess}))
	require.NoError(t, m.Record(ctx, Entry{TraceID: "t1", Stage: "risk", Status: StatusFailure, Detail: "boom"}))
	require.NoError(t, m.RecordDecision(ctx, DecisionRecord{TraceID: "t1", Symbol: "XYZ.NS", Action: "EXIT"}))

	entries := m.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "market", entries[0].Stage)
	require.Equal(t, StatusFailure, entries[1].Status)

	decisions := m.Decisions()
	require.Len(t, decisions, 1)
	require.Equal(t, "EXIT", decisions[0].Action)
}

func TestJSONLSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "trail.jsonl")
	sink, err := NewJSONL(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, Entry{
		TraceID:   "trace-1",
		Stage:     "decision",
		Status:    StatusSuccess,
		Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, sink.RecordDecision(ctx, DecisionRecord{
		TraceID: "trace-1",
		Symbol:  "XYZ.NS",
		Action:  "REDUCE",
		Urgency: 5,
		Alternatives: []decision.Alternative{
			{Symbol: "ALT.NS", Score: 0.8},
		},
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []jsonlEnvelope
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var env jsonlEnvelope
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &env))
		lines = append(lines, env)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	require.Equal(t, "stage", lines[0].Type)
	require.Equal(t, "decision", lines[1].Type)
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	sink, err := NewSQLite(path)
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, Entry{
		TraceID:   "trace-9",
		Stage:     "risk",
		Status:    StatusSuccess,
		Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, sink.RecordDecision(ctx, DecisionRecord{
		TraceID:   "trace-9",
		UserID:    "user-1",
		Symbol:    "XYZ.NS",
		Action:    "EXIT",
		Urgency:   10,
		RiskScore: 0.85,
		Alternatives: []decision.Alternative{
			{Symbol: "A.NS", Score: 0.9},
			{Symbol: "B.NS", Score: 0.7},
		},
		Timestamp: time.Now().UTC(),
	}))

	var stageCount, decisionCount, altCount int64
	require.NoError(t, sink.db.Model(&auditLogModel{}).Count(&stageCount).Error)
	require.NoError(t, sink.db.Model(&decisionModel{}).Count(&decisionCount).Error)
	require.NoError(t, sink.db.Model(&alternativeModel{}).Where("trace_id = ?", "trace-9").Count(&altCount).Error)
	require.EqualValues(t, 1, stageCount)
	require.EqualValues(t, 1, decisionCount)
	require.EqualValues(t, 2, altCount)
}
