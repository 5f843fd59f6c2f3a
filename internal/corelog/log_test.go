package corelog

import (
	"testing"

	"go.uber.org/zap"
)

func TestLogLevelFiltering(t *testing.T) {
	l := New()
	l.SetLevel(LevelWarn)

	// below-threshold levels must not panic and must simply be dropped;
	// there is no observable side effect to assert on besides "it didn't
	// crash and didn't block", since the teacher's Log() writes straight
	// to stdout.
	l.Debug("should be dropped")
	l.Info("should be dropped")
	l.Warn("should be printed")
	l.Error("should be printed")
}

func TestIndentLevelNeverGoesNegative(t *testing.T) {
	l := New()
	l.DecrementIndent()
	l.DecrementIndent()
	if l.indentLevel != 0 {
		t.Fatalf("expected indentLevel to stay at 0, got %d", l.indentLevel)
	}
}

func TestIndentLevelRoundTrip(t *testing.T) {
	l := New()
	l.IncrementIndent()
	l.IncrementIndent()
	if l.indentLevel != 2 {
		t.Fatalf("expected indentLevel 2, got %d", l.indentLevel)
	}
	l.DecrementIndent()
	if l.indentLevel != 1 {
		t.Fatalf("expected indentLevel 1, got %d", l.indentLevel)
	}
}

func TestLogFieldsAcceptsStandardZapConstructors(t *testing.T) {
	l := New()
	// exercises the zapcore.Field encoding path; there is no observable
	// side effect besides "it didn't panic", since this still writes
	// through Log() to stdout.
	l.LogFields(LevelInfo, "toggled sync", zap.String("port", "p0"), zap.Int("tpld_id", 3))
}
