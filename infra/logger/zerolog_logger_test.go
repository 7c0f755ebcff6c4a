package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv(EnvVar, "dev"))
	defer func() {
		assert.NoError(t, os.Unsetenv(EnvVar))
	}()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerLevelFromEnv(t *testing.T) {
	assert.NoError(t, os.Setenv(LogLevelVar, "warn"))
	defer func() {
		assert.NoError(t, os.Unsetenv(LogLevelVar))
	}()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	// Suppressed below the configured level, emitted at or above it.
	l.Infof("dropped")
	l.Warnf("kept")
}

func TestZerologLoggerBadLevelFallsBack(t *testing.T) {
	assert.NoError(t, os.Setenv(LogLevelVar, "shouting"))
	defer func() {
		assert.NoError(t, os.Unsetenv(LogLevelVar))
	}()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Infof("info still works")
}

func TestNopLogger(t *testing.T) {
	l := NopLogger{}
	l.Debugf("debug")
	l.Debugw("debug", nil)
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("error")
}
