package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const maxDialBackoff = 30 * time.Second

// Dial connects to the broker with exponential backoff. Startup should
// survive a broker that comes up a few seconds after the relay does.
func Dial(ctx context.Context, log *slog.Logger, url string, attempts int) (*amqp091.Connection, error) {
	if log == nil {
		log = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}

	backoff := time.Second
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if i > 1 {
				log.Info("broker connected", slog.Int("attempt", i))
			}
			return conn, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		log.Warn("broker dial failed",
			slog.Int("attempt", i),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("broker dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxDialBackoff {
			backoff = maxDialBackoff
		}
	}

	return nil, fmt.Errorf("broker unreachable after %d attempts: %w", attempts, lastErr)
}
