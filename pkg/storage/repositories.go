package storage

import (
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	bunrepo "github.com/goliatone/go-unitofwork/internal/storage/bun"
	"github.com/goliatone/go-unitofwork/internal/storage/memory"
	"github.com/goliatone/go-unitofwork/pkg/domain"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
	"github.com/uptrace/bun"
)

// NewMemoryRepository returns a map-backed repository that can enroll in a
// unit of work. The extract callback exposes the embedded RecordMeta of the
// record type.
func NewMemoryRepository[T any](extract func(*T) *domain.RecordMeta) store.TransactionalRepository[T] {
	return memory.NewRepository(extract)
}

// NewBunRepository wires a Bun-backed repository using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via OpenSQLite) and managing its lifecycle.
func NewBunRepository[T any](db *bun.DB, handlers repository.ModelHandlers[*T], extract func(*T) *domain.RecordMeta) store.TransactionalRepository[T] {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register the model so go-persistence-bun migrations can pick it up.
	persistence.RegisterModel((*T)(nil))

	return bunrepo.NewRepository(db, handlers, extract)
}
