package yard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseInput(t *testing.T) {
	src := "3\n2 0 1\n5 4 3\n6 8 7\n"
	in, err := ParseInput(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.N != 3 || in.Rows[1][0] != 5 || in.Rows[2][2] != 7 {
		t.Fatalf("parsed %+v", in)
	}
}

func TestParseInput_Rejects(t *testing.T) {
	for _, src := range []string{
		"",
		"3\n0 1 2\n3 4 5\n",
		"3\n0 1 2\n3 4 5\n6 7 7\n",
		"3\n0 1 2\n3 4 5\n6 7 x\n",
		"1\n0\n",
	} {
		if _, err := ParseInput(strings.NewReader(src)); !errors.Is(err, ErrBadInput) {
			t.Fatalf("ParseInput(%q) err=%v want ErrBadInput", src, err)
		}
	}
}

func TestFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatOutput(&buf, []string{"PRQ", "..B"}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if got := buf.String(); got != "PRQ\n..B\n" {
		t.Fatalf("output=%q", got)
	}
}

func TestBoards(t *testing.T) {
	if err := Sorted(5).Validate(); err != nil {
		t.Fatalf("sorted: %v", err)
	}
	rev := Reversed(5)
	if err := rev.Validate(); err != nil {
		t.Fatalf("reversed: %v", err)
	}
	if rev.Rows[2][0] != 14 || rev.Rows[2][4] != 10 {
		t.Fatalf("reversed row 2=%v", rev.Rows[2])
	}
}
