package patterns

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
)

func TestDefaultsCompile(t *testing.T) {
	pack, err := Defaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if len(pack) == 0 {
		t.Fatal("default pack must not be empty")
	}
	for _, p := range pack {
		if p.Name == "" || p.Severity == "" {
			t.Fatalf("default pattern incomplete: %+v", p)
		}
		if p.LookAheadSeconds <= 0 {
			t.Fatalf("pattern %q has no look-ahead", p.Name)
		}
	}
}

func TestDefaultTriggersMatchTypicalMessages(t *testing.T) {
	pack, err := Defaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	byName := make(map[string]*models.FailurePattern, len(pack))
	for _, p := range pack {
		byName[p.Name] = p
	}

	cases := map[string]string{
		"Database Connection Pool Exhaustion": "HikariPool-1 - Connection pool exhausted",
		"Out of Memory":                       "java.lang.OutOfMemoryError: Java heap space",
		"Disk Space Exhausted":                "write error: No space left on device",
		"Network Timeout":                     "dial tcp 10.0.0.5:5432: connection refused",
		"Authentication Failure":              "Authentication failed for user admin",
		"Deadlock Detected":                   "Deadlock found when trying to get lock",
	}
	for name, message := range cases {
		p, ok := byName[name]
		if !ok {
			t.Fatalf("default pack lost pattern %q", name)
		}
		if !p.MatchesTrigger(models.Event{Message: message}) {
			t.Fatalf("pattern %q should match %q", name, message)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := `
patterns:
  - name: custom chain
    trigger: "widget overflow"
    look_ahead_seconds: 60
    severity: critical
    effects:
      - pattern: "widget rejected"
        delay: {min: 0, max: 30}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	pack, err := Load(path, 0, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pack) != 1 || pack[0].Name != "custom chain" {
		t.Fatalf("unexpected pack: %+v", pack)
	}
	if !pack[0].MatchesTrigger(models.Event{Message: "WIDGET OVERFLOW in slot 3"}) {
		t.Fatal("loaded trigger should compile case-insensitive")
	}
}

func TestLoadAppliesDefaultLookAhead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := "patterns:\n  - name: no lookahead\n    trigger: \"boom\"\n    severity: high\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	pack, err := Load(path, 2*time.Minute, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pack[0].LookAheadSeconds != 120 {
		t.Fatalf("expected inherited 120s look-ahead, got %v", pack[0].LookAheadSeconds)
	}
}

func TestLoadMissingPathFallsBack(t *testing.T) {
	pack, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), 0, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pack) == 0 {
		t.Fatal("missing pack path should fall back to defaults")
	}
}

func TestLoadEmptyPackFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("patterns: []\n"), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	pack, err := Load(path, 0, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pack) == 0 {
		t.Fatal("empty pack should fall back to defaults")
	}
}

func TestLoadBadRegexFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "patterns:\n  - name: broken\n    trigger: \"(\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if _, err := Load(path, 0, nil); err == nil {
		t.Fatal("an invalid trigger regex must fail the load")
	}
}
