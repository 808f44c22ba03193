package notify

import "context"

// Notifier defines an interface for delivering one plaintext notification.
// One attempt per call; implementations never retry.
type Notifier interface {
	Send(ctx context.Context, body string) error
}

// Discard swallows every notification. It stands in for channels whose real
// client opens a network session at construction time, on runs that are
// guaranteed never to deliver.
type Discard struct{}

func (Discard) Send(context.Context, string) error { return nil }
