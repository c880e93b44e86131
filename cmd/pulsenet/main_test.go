package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/internal/history"
	"github.com/db47h/pulsenet/netlib"
)

const ringNetlist = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

// isolateHome sets HOME to a temp directory to avoid touching the real
// ~/.pulsenet and clears environment overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	for _, v := range []string{
		"PULSENET_PRESSES", "PULSENET_TARGET", "PULSENET_MAX_PRESSES", "PULSENET_MIN_CYCLES",
		"PULSENET_LOG_LEVEL", "PULSENET_HISTORY_PATH", "PULSENET_HISTORY",
	} {
		t.Setenv(v, "")
	}
	return tmpDir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func TestRun(t *testing.T) {
	dir := isolateHome(t)
	file := writeFile(t, dir, "ring.txt", ringNetlist)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"run", file}, "32000000\n"},
		{"one press", []string{"run", "-n", "1", file}, "32\n"},
		{"verbose", []string{"run", "-n", "1", "-v", file}, "presses: 1\nlow:     8\nhigh:    4\nproduct: 32\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if out != tt.want {
				t.Errorf("got %q, expected %q", out, tt.want)
			}
		})
	}
}

func TestRun_json(t *testing.T) {
	dir := isolateHome(t)
	file := writeFile(t, dir, "ring.txt", ringNetlist)

	out, err := execute(t, "run", "--json", file)
	if err != nil {
		t.Fatal(err)
	}
	var r runResult
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if want := (runResult{1000, 8000, 4000, 32000000}); r != want {
		t.Errorf("got %+v, expected %+v", r, want)
	}
}

func TestRun_pressesFromEnv(t *testing.T) {
	dir := isolateHome(t)
	file := writeFile(t, dir, "ring.txt", ringNetlist)
	t.Setenv("PULSENET_PRESSES", "2")

	out, err := execute(t, "run", "-v", file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "presses: 2\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_trace(t *testing.T) {
	dir := isolateHome(t)
	file := writeFile(t, dir, "ring.txt", ringNetlist)
	tracePath := filepath.Join(dir, "trace.jsonl")

	if _, err := execute(t, "run", "-n", "2", "--trace", tracePath, file); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(tracePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	type event struct {
		Press uint64 `json:"press"`
		From  string `json:"from"`
		To    string `json:"to"`
		Level string `json:"level"`
	}
	var events []event
	s := bufio.NewScanner(f)
	for s.Scan() {
		var ev event
		if err := json.Unmarshal(s.Bytes(), &ev); err != nil {
			t.Fatalf("decode %q: %v", s.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 24 {
		t.Fatalf("got %d events, expected 24", len(events))
	}
	if want := (event{1, "button", "broadcaster", "low"}); events[0] != want {
		t.Errorf("first event: got %+v, expected %+v", events[0], want)
	}
	if events[12].Press != 2 {
		t.Errorf("event 12: got press %d, expected 2", events[12].Press)
	}
}

func TestRun_errors(t *testing.T) {
	dir := isolateHome(t)
	bad := writeFile(t, dir, "bad.txt", "broadcaster -> a\nfoo -> a\n")
	noBcast := writeFile(t, dir, "nob.txt", "%a -> b\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"run", filepath.Join(dir, "nope.txt")}, "open netlist"},
		{"parse error", []string{"run", bad}, "2:1: module \"foo\" has no type prefix"},
		{"construction", []string{"run", noBcast}, "no broadcaster"},
		{"negative presses", []string{"run", "-n", "-1", bad}, "invalid number of presses"},
		{"bad log level", []string{"run", "--log-level", "loud", bad}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestGenPeriod(t *testing.T) {
	dir := isolateHome(t)

	out, err := execute(t, "gen", "-p", "5", "-p", "7")
	if err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	if err := pulsenet.Format(&want, netlib.Machine([]int{5, 7}, "gate", "rx")); err != nil {
		t.Fatal(err)
	}
	if out != want.String() {
		t.Errorf("gen output:\n%s\nexpected:\n%s", out, want.String())
	}
	file := writeFile(t, dir, "machine.txt", out)

	out, err = execute(t, "period", file)
	if err != nil {
		t.Fatal(err)
	}
	if out != "35\n" {
		t.Errorf("period: got %q, expected %q", out, "35\n")
	}

	out, err = execute(t, "period", "-v", file)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"gate:      gate", "method:    lcm", "press: 35"} {
		if !strings.Contains(out, s) {
			t.Errorf("verbose output missing %q:\n%s", s, out)
		}
	}

	out, err = execute(t, "period", "--json", file)
	if err != nil {
		t.Fatal(err)
	}
	var r struct {
		Gate    string
		Press   uint64
		Method  string
		Feeders []struct {
			Name   string
			Period uint64
		}
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if r.Press != 35 || r.Method != "lcm" || len(r.Feeders) != 2 {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestPeriod_errors(t *testing.T) {
	dir := isolateHome(t)
	ring := writeFile(t, dir, "ring.txt", ringNetlist)
	out, err := execute(t, "gen", "-p", "4", "-p", "6")
	if err != nil {
		t.Fatal(err)
	}
	machine := writeFile(t, dir, "machine.txt", out)
	chain := writeFile(t, dir, "chain.txt", "broadcaster -> a\n%a -> b\n%b -> rx\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown target", []string{"period", ring}, "unknown target \"rx\""},
		{"several inputs", []string{"period", "-t", "b", ring}, "has 2 inputs, expected 1"},
		{"not a conjunction", []string{"period", chain}, "expected a conjunction"},
		{"cap", []string{"period", "--max-presses", "5", machine}, "no period found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestGen_errors(t *testing.T) {
	isolateHome(t)
	for _, args := range [][]string{
		{"gen"},
		{"gen", "-p", "0"},
		{"gen", "-p", "3", "--gate", ""},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestGraph(t *testing.T) {
	dir := isolateHome(t)
	file := writeFile(t, dir, "ring.txt", ringNetlist)

	out, err := execute(t, "graph", file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "digraph pulsenet {") || !strings.Contains(out, `"c" -> "inv";`) {
		t.Errorf("unexpected DOT output:\n%s", out)
	}

	out, err = execute(t, "graph", "--json", file)
	if err != nil {
		t.Fatal(err)
	}
	var g struct {
		Nodes []map[string]any
		Edges []map[string]any
	}
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(g.Nodes) != 5 || len(g.Edges) != 7 {
		t.Errorf("got %d nodes and %d edges, expected 5 and 7", len(g.Nodes), len(g.Edges))
	}

	if _, err := execute(t, "graph", "--format", "svg", file); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestHistory(t *testing.T) {
	dir := isolateHome(t)
	ring := writeFile(t, dir, "ring.txt", ringNetlist)
	out, err := execute(t, "gen", "-p", "4", "-p", "6")
	if err != nil {
		t.Fatal(err)
	}
	machine := writeFile(t, dir, "machine.txt", out)
	t.Setenv("PULSENET_HISTORY_PATH", filepath.Join(dir, "db", "history.db"))

	out, err = execute(t, "history")
	if err != nil {
		t.Fatal(err)
	}
	if out != "No runs recorded.\n" {
		t.Errorf("got %q", out)
	}

	// not recorded
	if _, err := execute(t, "run", ring); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"run", "--record", ring},
		{"run", "--record", machine},
		{"period", "--record", machine},
	} {
		if _, err := execute(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	out, err = execute(t, "history", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, expected 3", len(runs))
	}
	if r := runs[0]; r.Mode != history.ModeExtrapolate || r.Result != 12 || r.Target != "rx" || r.Method != "direct" {
		t.Errorf("unexpected last run %+v", r)
	}
	if r := runs[1]; r.Mode != history.ModeBulk || r.Result != 72154460 || r.Low != 8662 || r.High != 8330 {
		t.Errorf("unexpected run %+v", r)
	}
	if r := runs[2]; r.Result != 32000000 || r.Modules != 5 {
		t.Errorf("unexpected first run %+v", r)
	}

	out, err = execute(t, "history", "--json", ring)
	if err != nil {
		t.Fatal(err)
	}
	runs = nil
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(runs) != 1 || runs[0].Result != 32000000 {
		t.Errorf("unexpected runs for ring: %+v", runs)
	}

	out, err = execute(t, "history", "-l", "1")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("got %d lines, expected header and one run:\n%s", lines, out)
	}
}

func TestVersion(t *testing.T) {
	isolateHome(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "pulsenet version "+version+"\n" {
		t.Errorf("got %q", out)
	}
}
