package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cranesort/internal/report"
	"cranesort/internal/yard"
)

func main() {
	var inPath, outPath string
	var asJSON bool
	flag.StringVar(&inPath, "in", "", "input file")
	flag.StringVar(&outPath, "out", "", "schedule file (default stdin)")
	flag.BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	flag.Parse()
	if inPath == "" {
		log.Fatalf("[cranecheck] -in is required")
	}

	f, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("[cranecheck] input: %v", err)
	}
	in, err := yard.ParseInput(f)
	f.Close()
	if err != nil {
		log.Fatalf("[cranecheck] input: %v", err)
	}

	actions, err := readSchedule(outPath)
	if err != nil {
		log.Fatalf("[cranecheck] schedule: %v", err)
	}

	v, err := yard.Replay(in, actions)
	if err != nil {
		var viol *yard.Violation
		if errors.As(err, &viol) {
			fmt.Printf("violation: %v\n", viol)
			os.Exit(1)
		}
		log.Fatalf("[cranecheck] %v", err)
	}
	if asJSON {
		os.Stdout.Write(report.MarshalPretty(v))
		fmt.Println()
		return
	}
	fmt.Printf("score=%d turns=%d inversions=%d wrong_lane=%d remaining=%d\n",
		v.Score, v.Turns, v.Inversions, v.WrongLane, v.Remaining)
	for r, lane := range v.Delivered {
		fmt.Printf("lane %d: %v\n", r, lane)
	}
}

func readSchedule(path string) ([]string, error) {
	r := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
