package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONL appends audit records to a newline-delimited JSON file, one
// envelope per line.
type JSONL struct {
	mu   sync.Mutex
	path string
}

type jsonlEnvelope struct {
	Type  string    `json:"type"` // stage | decision
	Data  any       `json:"data"`
	Event time.Time `json:"event"`
}

func NewJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &JSONL{path: path}, nil
}

func (j *JSONL) Record(_ context.Context, e Entry) error {
	return j.append(jsonlEnvelope{Type: "stage", Data: e, Event: time.Now().UTC()})
}

func (j *JSONL) RecordDecision(_ context.Context, d DecisionRecord) error {
	return j.append(jsonlEnvelope{Type: "decision", Data: d, Event: time.Now().UTC()})
}

func (j *JSONL) append(env jsonlEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
