package unitofwork

import (
	"context"
	"errors"

	"github.com/goliatone/go-unitofwork/pkg/interfaces/logger"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
)

// Dependencies bundles the participants and logger required by the manager.
type Dependencies struct {
	Participants []store.Participant
	Logger       logger.Logger
}

// Manager mints single-use units of work over a fixed participant set and
// satisfies store.TransactionManager so services can stay agnostic of the
// rollback machinery behind them.
type Manager struct {
	participants []store.Participant
	logger       logger.Logger
}

var (
	ErrMissingParticipants = errors.New("unitofwork: at least one participant is required")
)

var _ store.TransactionManager = (*Manager)(nil)

// NewManager builds the manager.
func NewManager(deps Dependencies) (*Manager, error) {
	if len(deps.Participants) == 0 {
		return nil, ErrMissingParticipants
	}
	for _, p := range deps.Participants {
		if p == nil {
			return nil, errors.New("unitofwork: participant is required")
		}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Manager{
		participants: deps.Participants,
		logger:       deps.Logger,
	}, nil
}

// Unit returns a fresh single-use unit of work over the manager's
// participants.
func (m *Manager) Unit() *UnitOfWork {
	return New(
		WithParticipants(m.participants...),
		WithLogger(m.logger),
	)
}

// WithinTransaction runs fn inside a fresh unit of work. The active unit
// travels on the context handed to fn; FromContext recovers it.
func (m *Manager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	unit := m.Unit()
	return unit.Run(WithUnit(ctx, unit), fn)
}
