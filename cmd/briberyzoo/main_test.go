package main

import "testing"

func TestPowerFlagSetAccumulates(t *testing.T) {
	var p powerFlag
	if err := p.Set("H=10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Set("A=3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.m["H"] != 10 || p.m["A"] != 3 {
		t.Fatalf("expected {H:10,A:3}, got %v", p.m)
	}
}

func TestPowerFlagSetRejectsMalformed(t *testing.T) {
	var p powerFlag
	if err := p.Set("nope"); err == nil {
		t.Fatal("expected an error for a missing '='")
	}
	if err := p.Set("H=not-a-number"); err == nil {
		t.Fatal("expected an error for a non-integer voting power")
	}
}

func TestSplitNonEmpty(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"B", []string{"B"}},
		{"B,C", []string{"B", "C"}},
		{"B, C ,", []string{"B", "C"}},
	}
	for _, c := range cases {
		got := splitNonEmpty(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("splitNonEmpty(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitNonEmpty(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestRunRejectsMissingChain(t *testing.T) {
	if code := run([]string{}); code != 2 {
		t.Fatalf("expected exit code 2 for a missing -chain, got %d", code)
	}
}

func TestRunRejectsUnknownLogFormat(t *testing.T) {
	code := run([]string{"-chain", "HA", "-log-format", "xml"})
	if code != 2 {
		t.Fatalf("expected exit code 2 for an unknown -log-format, got %d", code)
	}
}

func TestRunPrintsEquilibriaForTinyChain(t *testing.T) {
	code := run([]string{
		"-chain", "HA",
		"-honest", "H",
		"-adversary", "A",
		"-power", "H=2",
		"-power", "A=1",
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
