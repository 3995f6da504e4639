package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Test returns a logger that writes through t.Log.
func Test(tb testing.TB) *zap.Logger {
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel))
}

// TestObserved returns a logger that also records entries at lvl and above for assertions.
func TestObserved(tb testing.TB, lvl zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(lvl)
	return zap.New(zapcore.NewTee(zaptest.NewLogger(tb).Core(), core)), observed
}
