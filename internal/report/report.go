package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"cranesort/internal/search"
	"cranesort/internal/yard"
)

//go:embed report.schema.json
var schemaJSON string

// Report is the JSON summary of one solve.
type Report struct {
	RunID        string            `json:"run_id,omitempty"`
	N            int               `json:"n"`
	Plan         yard.Plan         `json:"plan"`
	Fallback     bool              `json:"fallback"`
	Turns        int               `json:"turns"`
	TotalActions int               `json:"total_actions"`
	Score        int64             `json:"score"`
	Sorted       bool              `json:"sorted"`
	Actions      []string          `json:"actions"`
	Stats        yard.Stats        `json:"stats"`
	Attempts     int               `json:"attempts"`
	BestAttempt  int               `json:"best_attempt"`
	Failures     map[string]int    `json:"failures"`
	History      []search.Progress `json:"history"`
	Delivered    [][]int           `json:"delivered"`
}

// Build scores out.Best against in and collects the search summary.
func Build(runID string, in yard.Input, out search.Outcome) (Report, error) {
	v, err := yard.Replay(in, out.Best.Actions)
	if err != nil {
		return Report{}, fmt.Errorf("replay best: %w", err)
	}
	failures := out.Failures
	if failures == nil {
		failures = map[string]int{}
	}
	history := out.History
	if history == nil {
		history = []search.Progress{}
	}
	plan := out.Best.Plan
	if plan.Sweep == nil {
		plan.Sweep = []int{}
	}
	if plan.Retire == nil {
		plan.Retire = []bool{}
	}
	return Report{
		RunID:        runID,
		N:            in.N,
		Plan:         plan,
		Fallback:     out.Fallback,
		Turns:        v.Turns,
		TotalActions: out.Best.TotalActions,
		Score:        v.Score,
		Sorted:       v.Sorted(),
		Actions:      out.Best.Actions,
		Stats:        out.Best.Stats,
		Attempts:     out.Attempts,
		BestAttempt:  out.BestAttempt,
		Failures:     failures,
		History:      history,
		Delivered:    v.Delivered,
	}, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("report.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Validate checks the encoded document against the report schema.
func Validate(doc []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile report schema: %w", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	return s.Validate(v)
}

// Marshal encodes r indented and validates the result.
func Marshal(r Report) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("report schema: %w", err)
	}
	return b, nil
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
