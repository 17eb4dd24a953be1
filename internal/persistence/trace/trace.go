package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"cranesort/internal/yard"
)

// TurnEntry is one line of a trace: the board after carry-in, what each crane did,
// and the events of that turn.
type TurnEntry struct {
	Turn    int          `json:"turn"`
	Board   [][]int      `json:"board"`
	Actions string       `json:"actions"`
	Events  []yard.Event `json:"events,omitempty"`
}

type JSONLZstdWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func Create(path string) (*JSONLZstdWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONLZstdWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	return err1
}

// Entries splits a driver result into per-turn trace lines.
func Entries(res yard.Result) []TurnEntry {
	out := make([]TurnEntry, res.Turns)
	for t := range out {
		out[t].Turn = t
		if res.History != nil && t < res.History.Len() {
			out[t].Board = board(res.History.At(t))
		}
		acts := make([]byte, len(res.Actions))
		for i, a := range res.Actions {
			acts[i] = '.'
			if t < len(a) {
				acts[i] = a[t]
			}
		}
		out[t].Actions = string(acts)
	}
	for _, ev := range res.Events {
		if ev.Turn >= 0 && ev.Turn < len(out) {
			out[ev.Turn].Events = append(out[ev.Turn].Events, ev)
		}
	}
	return out
}

func board(g *yard.Grid) [][]int {
	rows := make([][]int, g.N)
	for r := range rows {
		rows[r] = make([]int, g.N)
		for c := range rows[r] {
			cell := g.At(yard.Pos{R: r, C: c})
			rows[r][c] = -1
			if !cell.IsEmpty() {
				rows[r][c] = cell.ID()
			}
		}
	}
	return rows
}

// Save writes every turn of res to path.
func Save(path string, res yard.Result) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, e := range Entries(res) {
		if err := w.Write(e); err != nil {
			_ = w.Close()
			return fmt.Errorf("turn %d: %w", e.Turn, err)
		}
	}
	return w.Close()
}

func Load(path string) ([]TurnEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	var out []TurnEntry
	for sc.Scan() {
		var e TurnEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if e.Turn != len(out) {
			return nil, fmt.Errorf("turn mismatch: want=%d got=%d (file=%s)", len(out), e.Turn, filepath.Base(path))
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
