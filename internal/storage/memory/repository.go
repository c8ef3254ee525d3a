package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-unitofwork/pkg/domain"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
)

// Repository stores records of type T in a map guarded by a RWMutex. It
// implements store.TransactionalRepository so it can enroll in a unit of
// work: Checkpoint deep copies the record map and Restore swaps it back in.
type Repository[T any] struct {
	mu      sync.RWMutex
	records map[uuid.UUID]T
	extract func(*T) *domain.RecordMeta
}

// NewRepository builds an in-memory repository. The extract callback exposes
// the embedded RecordMeta so the repository can manage IDs and audit fields.
func NewRepository[T any](extract func(*T) *domain.RecordMeta) *Repository[T] {
	return &Repository[T]{
		records: make(map[uuid.UUID]T),
		extract: extract,
	}
}

func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.extract(record)
	base.EnsureID()
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
	r.records[base.ID] = *record
	return nil
}

func (r *Repository[T]) Update(ctx context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.extract(record)
	if base.ID == uuid.Nil {
		return store.ErrNotFound
	}
	if _, ok := r.records[base.ID]; !ok {
		return store.ErrNotFound
	}
	base.UpdatedAt = time.Now().UTC()
	r.records[base.ID] = *record
	return nil
}

func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	base := r.extract(&record)
	if !base.DeletedAt.IsZero() {
		return nil, store.ErrNotFound
	}
	out := record
	return &out, nil
}

func (r *Repository[T]) List(ctx context.Context, opts store.ListOptions) (store.ListResult[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []T
	for _, record := range r.records {
		base := r.extract(&record)
		if !opts.IncludeSoftDeleted && !base.DeletedAt.IsZero() {
			continue
		}
		if !opts.Since.IsZero() && base.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && base.CreatedAt.After(opts.Until) {
			continue
		}
		filtered = append(filtered, record)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return r.extract(&filtered[i]).CreatedAt.Before(r.extract(&filtered[j]).CreatedAt)
	})

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	result := store.ListResult[T]{
		Items: filtered[start:end],
		Total: total,
	}
	return result, nil
}

func (r *Repository[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return store.ErrNotFound
	}
	base := r.extract(&record)
	if base.DeletedAt.IsZero() {
		base.DeletedAt = time.Now().UTC()
	}
	r.records[id] = record
	return nil
}

// Checkpoint deep copies the record map so later mutations stay invisible to
// the snapshot.
func (r *Repository[T]) Checkpoint(ctx context.Context) (store.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied, ok := deepcopy.Copy(r.records).(map[uuid.UUID]T)
	if !ok {
		return nil, errors.New("memory: snapshot copy failed")
	}
	return copied, nil
}

// Restore replaces the record map wholesale with a snapshot produced by
// Checkpoint. A snapshot of a different repository type is rejected and the
// current state is left untouched.
func (r *Repository[T]) Restore(ctx context.Context, snapshot store.Snapshot) error {
	state, ok := snapshot.(map[uuid.UUID]T)
	if !ok {
		return fmt.Errorf("memory: unexpected snapshot type %T", snapshot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = state
	return nil
}
