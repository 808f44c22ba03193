// internal/domain/ledger/repository.go
package ledger

import (
	"context"
	"time"
)

// Repository defines durable ledger storage.
type Repository interface {
	// Load returns the stored ledger, or an empty one when none exists yet.
	// now seeds entry timestamps when a legacy-format document is upgraded.
	Load(ctx context.Context, now time.Time) (*Ledger, error)
	// Save persists the ledger such that a reader observes either the
	// previous complete document or the new one, never a partial write.
	Save(ctx context.Context, l *Ledger) error
}
