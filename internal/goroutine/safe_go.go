package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/rossfreedman/rally/internal/logger"
)

// Logger is the sink for recovered panics.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler runs goroutines that log panics instead of crashing the process.
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler creates a handler logging to l.
func NewRecoveryHandler(l Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: l}
}

// SafeGo starts fn in a goroutine with panic recovery.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.handlePanic("goroutine")
		fn()
	}()
}

// SafeGoWithContext starts fn(ctx) in a goroutine with panic recovery.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.handlePanic("goroutine (with context)")
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) handlePanic(where string) {
	if r := recover(); r != nil {
		rh.logger.Errorf("panic in %s: %v\nstack trace:\n%s", where, r, debug.Stack())
	}
}

// appLogger resolves the shared logger on every call, so the default handler
// picks up logger.Init even though it is built at package init.
type appLogger struct{}

func (appLogger) Errorf(format string, args ...interface{}) {
	logger.Entry().Errorf(format, args...)
}

// DefaultRecoveryHandler logs through the application logger.
var DefaultRecoveryHandler = NewRecoveryHandler(appLogger{})

// SafeGo starts fn with the default handler.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext starts fn with the default handler.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
