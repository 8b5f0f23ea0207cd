package relay

import (
	"log/slog"
	"time"
)

// Timed wraps one router invocation with a timing measurement. It is
// applied at the call site of the router's entry point rather than inside
// the router itself, so the boundary stays visible to the reader.
func Timed(log *slog.Logger, kind, userRef string, fn func() error) error {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	err := fn()
	attrs := []any{
		slog.String("kind", kind),
		slog.String("user_ref", userRef),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		log.Error("event handling failed", attrs...)
		return err
	}
	log.Info("event handled", attrs...)
	return nil
}
