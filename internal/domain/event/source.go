// internal/domain/event/source.go
package event

import "context"

// Source yields the raw calendar records for one run.
type Source interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}
