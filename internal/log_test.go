package internal

import "testing"

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"error": LogLevelError,
		"WARN":  LogLevelWarn,
		"info":  LogLevelInfo,
		"DEBUG": LogLevelDebug,
		"TRACE": LogLevelDebug,
		"":      LogLevelInfo,
		"loud":  LogLevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger().Named("test")
	l.Info("run %s finished", "abc")
	l.Error("nothing should be written: %v", 42)
}
