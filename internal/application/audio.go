package application

import "context"

// AudioSource delivers one finalized utterance per NextCommand call.
// A call either yields a complete capture (or a marked text command)
// or an error; there are no interim results. Callers serialize their
// own calls: only one listening session is ever active at a time.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
