package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// opTimeout bounds every store access; a deadline never surfaces as a
// partial update, only as a retryable failure.
const opTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// storeErr classifies a driver error into the shared taxonomy. Timeouts and
// network failures are retryable (ErrUnavailable); anything else passes
// through wrapped with the failing operation.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
