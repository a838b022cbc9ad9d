package logger

import "testing"

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Fatalf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Fatalf("expected default format console, got %s", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Fatalf("expected default output stdout, got %s", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Fatal("expected timestamp enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Level: "debug", Format: "json", Output: "stderr"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_ValidateBadLevel(t *testing.T) {
	cfg := &Config{Level: "loud", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestConfig_ValidateBadFormat(t *testing.T) {
	cfg := &Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestFromVerbosity(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{-1, "info"},
		{0, "info"},
		{1, "debug"},
		{2, "trace"},
		{5, "trace"},
	}
	for _, c := range cases {
		if got := FromVerbosity(c.in); got != c.want {
			t.Fatalf("FromVerbosity(%d) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestFields(t *testing.T) {
	m := Fields("node", "stats", "count", 3)
	if m["node"] != "stats" || m["count"] != 3 {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestFields_OddPairs(t *testing.T) {
	m := Fields("only_key")
	if len(m) != 0 {
		t.Fatalf("expected empty map for dangling key, got %v", m)
	}
}

func TestWithComponent(t *testing.T) {
	l := Nop().WithComponent("bag")
	if l == nil {
		t.Fatal("expected logger")
	}
	l.Info("should not panic")
}
