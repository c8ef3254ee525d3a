package bunrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-unitofwork/pkg/domain"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists records of type T through go-repository-bun. It
// implements store.TransactionalRepository: Checkpoint selects every row,
// soft-deleted included, and Restore replaces the table contents inside a
// single database transaction.
type Repository[T any] struct {
	repo    repository.Repository[*T]
	db      *bun.DB
	extract func(*T) *domain.RecordMeta
}

// NewRepository builds a bun-backed repository. The extract callback exposes
// the embedded RecordMeta so the repository can manage IDs and audit fields.
func NewRepository[T any](db *bun.DB, handlers repository.ModelHandlers[*T], extract func(*T) *domain.RecordMeta) *Repository[T] {
	return &Repository[T]{
		repo:    repository.MustNewRepository[*T](db, handlers),
		db:      db,
		extract: extract,
	}
}

func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	base := r.extract(record)
	base.EnsureID()
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
	_, err := r.repo.Create(ctx, record)
	return mapError(err)
}

func (r *Repository[T]) Update(ctx context.Context, record *T) error {
	base := r.extract(record)
	base.UpdatedAt = time.Now().UTC()
	_, err := r.repo.Update(ctx, record)
	return mapError(err)
}

func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	record, err := r.repo.Get(ctx, withID(id))
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *Repository[T]) List(ctx context.Context, opts store.ListOptions) (store.ListResult[T], error) {
	records, total, err := r.repo.List(ctx, withListOptions(opts))
	if err != nil {
		return store.ListResult[T]{}, mapError(err)
	}
	items := make([]T, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[T]{Items: items, Total: total}, nil
}

func (r *Repository[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	record, err := r.repo.Get(ctx, withID(id), withAllDeleted())
	if err != nil {
		return mapError(err)
	}
	base := r.extract(record)
	if !base.DeletedAt.IsZero() {
		return nil
	}
	base.DeletedAt = time.Now().UTC()
	_, err = r.repo.Update(ctx, record)
	return mapError(err)
}

// Checkpoint captures every row of the backing table, soft-deleted rows
// included, as an independent slice of records.
func (r *Repository[T]) Checkpoint(ctx context.Context) (store.Snapshot, error) {
	var rows []T
	if err := r.db.NewSelect().Model(&rows).WhereAllWithDeleted().Scan(ctx); err != nil {
		return nil, fmt.Errorf("bunrepo: checkpoint: %w", err)
	}
	return rows, nil
}

// Restore replaces the table contents with a snapshot produced by
// Checkpoint. Clearing and re-inserting happen inside one transaction so a
// failed restore leaves the previous rows in place.
func (r *Repository[T]) Restore(ctx context.Context, snapshot store.Snapshot) error {
	rows, ok := snapshot.([]T)
	if !ok {
		return fmt.Errorf("bunrepo: unexpected snapshot type %T", snapshot)
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewTruncateTable().Model((*T)(nil)).Exec(ctx); err != nil {
			return fmt.Errorf("bunrepo: restore clear: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("bunrepo: restore insert: %w", err)
		}
		return nil
	})
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
