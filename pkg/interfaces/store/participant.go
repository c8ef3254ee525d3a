package store

import "context"

// Snapshot is an opaque capture of a participant's state. Only the
// participant that produced it knows how to interpret it.
type Snapshot any

// Participant is a data store that can take part in a unit of work by
// checkpointing its state and restoring it on rollback.
type Participant interface {
	// Checkpoint returns an independent copy of the participant's current
	// state. Mutations made after the call must not be observable through
	// the returned snapshot.
	Checkpoint(ctx context.Context) (Snapshot, error)
	// Restore replaces the participant's state wholesale with the given
	// snapshot. On failure the prior state must remain fully intact, never
	// a partial mix of old and new.
	Restore(ctx context.Context, snapshot Snapshot) error
}

// Finalizer is an optional upgrade for participants that want a callback
// once a unit of work commits, e.g. to flush buffered writes.
type Finalizer interface {
	Finalize(ctx context.Context) error
}
