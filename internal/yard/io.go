package yard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Input is the yard side length and each row's arrival order.
type Input struct {
	N    int     `json:"n"`
	Rows [][]int `json:"rows"`
}

var ErrBadInput = errors.New("yard: bad input")

// ParseInput reads N followed by an N×N matrix of container ids.
func ParseInput(r io.Reader) (Input, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	next := func() (int, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: unexpected end of input", ErrBadInput)
		}
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadInput, err)
		}
		return v, nil
	}
	n, err := next()
	if err != nil {
		return Input{}, err
	}
	if n < 3 {
		return Input{}, fmt.Errorf("%w: n=%d", ErrBadInput, n)
	}
	in := Input{N: n, Rows: make([][]int, 0, n)}
	for r := 0; r < n; r++ {
		row := make([]int, n)
		for c := range row {
			if row[c], err = next(); err != nil {
				return Input{}, err
			}
		}
		in.Rows = append(in.Rows, row)
	}
	return in, in.Validate()
}

// Validate checks that the rows hold every id 0..N*N-1 exactly once.
func (in Input) Validate() error {
	if len(in.Rows) != in.N {
		return fmt.Errorf("%w: %d rows, want %d", ErrBadInput, len(in.Rows), in.N)
	}
	seen := make([]bool, in.N*in.N)
	for r, row := range in.Rows {
		if len(row) != in.N {
			return fmt.Errorf("%w: row %d has %d ids", ErrBadInput, r, len(row))
		}
		for _, id := range row {
			if id < 0 || id >= len(seen) || seen[id] {
				return fmt.Errorf("%w: row %d: id %d", ErrBadInput, r, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// FormatOutput writes one action string per crane.
func FormatOutput(w io.Writer, actions []string) error {
	bw := bufio.NewWriter(w)
	for _, a := range actions {
		if _, err := bw.WriteString(a + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Sorted is the board where every row already arrives in delivery order.
func Sorted(n int) Input {
	in := Input{N: n, Rows: make([][]int, n)}
	for r := range in.Rows {
		for c := 0; c < n; c++ {
			in.Rows[r] = append(in.Rows[r], r*n+c)
		}
	}
	return in
}

// Reversed is the board where every row arrives in reverse delivery order.
func Reversed(n int) Input {
	in := Input{N: n, Rows: make([][]int, n)}
	for r := range in.Rows {
		for c := n - 1; c >= 0; c-- {
			in.Rows[r] = append(in.Rows[r], r*n+c)
		}
	}
	return in
}
