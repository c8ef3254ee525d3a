package unitofwork

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-unitofwork/pkg/interfaces/logger"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
)

var (
	ErrAlreadyCommitted    = errors.New("unitofwork: already committed")
	ErrRollbackAfterCommit = errors.New("unitofwork: cannot rollback after commit")
	ErrFinished            = errors.New("unitofwork: unit has already been committed or rolled back")
)

// registration pairs a participant with the snapshot taken when it enrolled.
type registration struct {
	participant store.Participant
	snapshot    store.Snapshot
}

// UnitOfWork batches operations against registered participants and applies
// them as a single atomic step. Instances are single use and not safe for
// concurrent access; callers coordinating across goroutines must serialize
// all calls against the unit and its participants.
type UnitOfWork struct {
	participants  []store.Participant
	operations    []Operation
	registrations []registration
	logger        logger.Logger
	inScope       bool
	committed     bool
	rolledBack    bool
}

// Option customizes a unit of work at construction time.
type Option func(*UnitOfWork)

// WithParticipants enrolls the given participants automatically when the
// transactional scope opens.
func WithParticipants(participants ...store.Participant) Option {
	return func(u *UnitOfWork) {
		u.participants = append(u.participants, participants...)
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(u *UnitOfWork) {
		if l != nil {
			u.logger = l
		}
	}
}

// New builds a single-use unit of work.
func New(opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		logger: &logger.Nop{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RegisterOperation queues op to run at commit time. Outside an active scope
// the operation executes immediately against live state, without rollback
// protection, and its error is returned directly.
func (u *UnitOfWork) RegisterOperation(ctx context.Context, op Operation) error {
	if op == nil {
		return errors.New("unitofwork: operation is required")
	}
	if !u.inScope {
		return op(ctx)
	}
	u.operations = append(u.operations, op)
	return nil
}

// RegisterParticipant enrolls p in the unit, checkpointing its current state
// so it can be restored on rollback. Registration is idempotent: enrolling
// the same participant again keeps the original snapshot.
func (u *UnitOfWork) RegisterParticipant(ctx context.Context, p store.Participant) error {
	if p == nil {
		return errors.New("unitofwork: participant is required")
	}
	for _, reg := range u.registrations {
		if reg.participant == p {
			return nil
		}
	}
	snapshot, err := p.Checkpoint(ctx)
	if err != nil {
		return fmt.Errorf("unitofwork: checkpoint %T: %w", p, err)
	}
	u.registrations = append(u.registrations, registration{participant: p, snapshot: snapshot})
	return nil
}

// Commit runs the queued operations in registration order, then finalizes
// enrolled participants that implement store.Finalizer. The first failure
// stops execution, rolls the unit back, and is returned as-is so callers can
// match on it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	if u.rolledBack {
		return ErrFinished
	}
	if err := u.apply(ctx); err != nil {
		_ = u.Rollback(ctx)
		return err
	}
	u.committed = true
	u.operations = nil
	u.registrations = nil
	return nil
}

func (u *UnitOfWork) apply(ctx context.Context) error {
	for _, op := range u.operations {
		if err := op(ctx); err != nil {
			return err
		}
	}
	for _, reg := range u.registrations {
		finalizer, ok := reg.participant.(store.Finalizer)
		if !ok {
			continue
		}
		if err := finalizer.Finalize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Rollback restores every enrolled participant to its registration snapshot,
// in registration order. Restore failures are logged and discarded so one
// broken participant cannot block the others. Rolling back twice is a no-op;
// rolling back after a commit is an error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.committed {
		return ErrRollbackAfterCommit
	}
	for _, reg := range u.registrations {
		if err := reg.participant.Restore(ctx, reg.snapshot); err != nil {
			u.logger.Warn("unit of work restore failed",
				logger.Field{Key: "participant", Value: fmt.Sprintf("%T", reg.participant)},
				logger.Field{Key: "error", Value: err},
			)
		}
	}
	u.operations = nil
	u.registrations = nil
	u.rolledBack = true
	u.logger.Debug("unit of work rolled back")
	return nil
}

// Run executes fn inside the transactional scope. Participants supplied at
// construction are enrolled before fn starts. When fn returns an error or
// panics the unit rolls back and the original error or panic propagates;
// when fn returns nil the unit commits implicitly. An explicit Commit or
// Rollback inside fn resolves the unit and the scope exit leaves it alone.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if u.committed {
		return ErrAlreadyCommitted
	}
	if u.rolledBack {
		return ErrFinished
	}

	u.inScope = true
	for _, p := range u.participants {
		if regErr := u.RegisterParticipant(ctx, p); regErr != nil {
			u.inScope = false
			return regErr
		}
	}

	panicking := true
	defer func() {
		u.inScope = false
		if panicking || err != nil {
			if !u.resolved() {
				_ = u.Rollback(ctx)
			}
			return
		}
		if !u.resolved() {
			err = u.Commit(ctx)
		}
	}()

	if fn != nil {
		err = fn(ctx)
	}
	panicking = false
	return err
}

func (u *UnitOfWork) resolved() bool {
	return u.committed || u.rolledBack
}
