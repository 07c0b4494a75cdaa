package models

import (
	"testing"
	"time"
)

func TestCompileRejectsBadPatterns(t *testing.T) {
	cases := []FailurePattern{
		{Name: "", Trigger: "x"},
		{Name: "no trigger"},
		{Name: "bad regex", Trigger: "("},
		{Name: "bad effect", Trigger: "x", Effects: []ExpectedEffect{{Pattern: "("}}},
		{Name: "empty effect", Trigger: "x", Effects: []ExpectedEffect{{Pattern: ""}}},
		{Name: "inverted delay", Trigger: "x", Effects: []ExpectedEffect{
			{Pattern: "y", Delay: DelayRange{Min: 10, Max: 5}},
		}},
	}
	for _, c := range cases {
		p := c
		if err := p.Compile(); err == nil {
			t.Fatalf("pattern %q should fail to compile", c.Name)
		}
	}
}

func TestCompileDefaultsLookAhead(t *testing.T) {
	p := FailurePattern{Name: "x", Trigger: "boom"}
	if err := p.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.LookAheadSeconds != 300 {
		t.Fatalf("expected 300s default look-ahead, got %v", p.LookAheadSeconds)
	}
}

func TestMatchesTriggerCaseInsensitive(t *testing.T) {
	p := FailurePattern{Name: "oom", Trigger: "out of memory"}
	if err := p.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	ev := Event{Timestamp: time.Now(), Source: "kernel", Message: "OUT OF MEMORY: killed process 1234"}
	if !p.MatchesTrigger(ev) {
		t.Fatal("trigger matching must be case-insensitive")
	}
}

func TestMatchesTriggerSourceFilter(t *testing.T) {
	p := FailurePattern{Name: "auth", Trigger: "denied", SourceFilter: "auth-service"}
	if err := p.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	if p.MatchesTrigger(Event{Source: "gateway", Message: "access denied"}) {
		t.Fatal("source filter must reject other sources")
	}
	if !p.MatchesTrigger(Event{Source: "AUTH-SERVICE", Message: "access denied"}) {
		t.Fatal("source filter comparison is case-insensitive")
	}
}
