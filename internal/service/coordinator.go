package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"freight/internal/repository/postgres"
)

const (
	defaultTxTimeout  = 5 * time.Second
	defaultTxAttempts = 3
	retryBackoffUnit  = 25 * time.Millisecond
)

// Coordinator runs each public operation as a single store transaction.
// Transient conflicts (serialization failures, deadlocks) are retried a
// bounded number of times with jittered backoff; application errors pass
// through unchanged and are never retried.
type Coordinator struct {
	db          *sql.DB
	txTimeout   time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewCoordinator creates a Coordinator with default timeout and retry
// bounds.
func NewCoordinator(db *sql.DB, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		db:          db,
		txTimeout:   defaultTxTimeout,
		maxAttempts: defaultTxAttempts,
		logger:      logger,
	}
}

// DB exposes the underlying handle for read-only paths that do not need
// a transaction.
func (c *Coordinator) DB() *sql.DB {
	return c.db
}

// InTx executes fn inside one transaction and commits or rolls back as a
// unit. fn receives a context bounded by the transaction timeout.
func (c *Coordinator) InTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !postgres.IsRetryable(err) {
			return err
		}

		lastErr = err
		c.logger.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-time.After(backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (c *Coordinator) runOnce(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	tx, err := c.db.BeginTx(txCtx, nil)
	if err != nil {
		return err
	}

	if err := fn(txCtx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// backoffDelay grows exponentially with a random jitter so racing
// retries do not stampede.
func backoffDelay(attempt int) time.Duration {
	base := retryBackoffUnit << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(retryBackoffUnit)))
	return base + jitter
}
