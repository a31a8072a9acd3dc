package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"testing"

	"github.com/milk9111/physbench/batch"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int32
		wantErr bool
	}{
		{name: "all embedded", in: "all", want: []int32{0, 1, 2}},
		{name: "empty means all", in: "", want: []int32{0, 1, 2}},
		{name: "list", in: "2, 0", want: []int32{2, 0}},
		{name: "bad", in: "1,x", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseIDs(tc.in, "")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseIDs(%q) succeeded", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDs(%q): %v", tc.in, err)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("parseIDs(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	got, err := parseAction("0.5, 0.25,1")
	if err != nil {
		t.Fatalf("parseAction: %v", err)
	}
	if !slices.Equal(got, []float64{0.5, 0.25, 1}) {
		t.Fatalf("parseAction = %v", got)
	}
	if _, err := parseAction("0.5,,1"); err == nil {
		t.Fatal("empty component accepted")
	}
}

func TestExitCodes(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Int("id", 0, "")
	badFlag := parseFlags(fs, []string{"-nope"})
	if !errors.Is(badFlag, errUsage) {
		t.Fatalf("parseFlags err = %v", badFlag)
	}
	if err := parseFlags(fs, []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("help err = %v", err)
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, 0},
		{"bad flag", badFlag, exitUsage},
		{"missing task", fmt.Errorf("%w: either -id or -task is required", errUsage), exitUsage},
		{"spawn", fmt.Errorf("%w: rank 0", batch.ErrSpawnFailed), 2},
		{"size", batch.ErrSizeMismatch, 3},
		{"worker", batch.ErrWorkerFailed, 5},
		{"other", errors.New("boom"), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
	if exitUsage == batch.ExitCode(batch.ErrSpawnFailed) {
		t.Fatal("usage and spawn failures share an exit code")
	}
}
