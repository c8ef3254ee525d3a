package bunrepo

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-unitofwork/pkg/domain"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type ledgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entries"`
	domain.RecordMeta

	Account string            `bun:",nullzero,notnull"`
	Amount  int64             `bun:",nullzero"`
	Tags    domain.StringList `bun:"type:jsonb,nullzero"`
	Meta    domain.JSONMap    `bun:"type:jsonb,nullzero"`
}

var _ store.TransactionalRepository[ledgerEntry] = (*Repository[ledgerEntry])(nil)

func setupSQLiteDB(t *testing.T, models ...any) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newLedgerRepo(t *testing.T) *Repository[ledgerEntry] {
	t.Helper()
	db := setupSQLiteDB(t, (*ledgerEntry)(nil))
	handlers := repository.ModelHandlers[*ledgerEntry]{
		NewRecord:          func() *ledgerEntry { return &ledgerEntry{} },
		GetID:              func(e *ledgerEntry) uuid.UUID { return e.ID },
		SetID:              func(e *ledgerEntry, id uuid.UUID) { e.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(e *ledgerEntry) string { return e.ID.String() },
	}
	return NewRepository[ledgerEntry](db, handlers, func(e *ledgerEntry) *domain.RecordMeta { return &e.RecordMeta })
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	entry := &ledgerEntry{
		Account: "acc-1",
		Amount:  250,
		Tags:    domain.StringList{"deposit"},
		Meta:    domain.JSONMap{"channel": "web"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Fatal("expected ID assigned")
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Account != "acc-1" || got.Amount != 250 {
		t.Fatalf("unexpected record %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "deposit" {
		t.Fatalf("expected tags round-tripped, got %v", got.Tags)
	}
	if got.Meta["channel"] != "web" {
		t.Fatalf("expected meta round-tripped, got %v", got.Meta)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRepositoryListExcludesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	kept := &ledgerEntry{Account: "kept", Amount: 10}
	gone := &ledgerEntry{Account: "gone", Amount: 20}
	for _, entry := range []*ledgerEntry{kept, gone} {
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("create %s: %v", entry.Account, err)
		}
	}
	if err := repo.SoftDelete(ctx, gone.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	visible, err := repo.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if visible.Total != 1 || visible.Items[0].Account != "kept" {
		t.Fatalf("expected only kept entry, got %+v", visible)
	}

	all, err := repo.List(ctx, store.ListOptions{IncludeSoftDeleted: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected soft-deleted entry included, total %d", all.Total)
	}
}

func TestCheckpointRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	first := &ledgerEntry{Account: "acc-1", Amount: 100}
	second := &ledgerEntry{Account: "acc-2", Amount: 200}
	for _, entry := range []*ledgerEntry{first, second} {
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("create %s: %v", entry.Account, err)
		}
	}

	snapshot, err := repo.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	first.Amount = 0
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.SoftDelete(ctx, second.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	extra := &ledgerEntry{Account: "acc-3", Amount: 300}
	if err := repo.Create(ctx, extra); err != nil {
		t.Fatalf("create extra: %v", err)
	}

	if err := repo.Restore(ctx, snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restoredFirst, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get first after restore: %v", err)
	}
	if restoredFirst.Amount != 100 {
		t.Fatalf("expected amount restored to 100, got %d", restoredFirst.Amount)
	}
	if _, err := repo.GetByID(ctx, second.ID); err != nil {
		t.Fatalf("expected soft delete undone by restore: %v", err)
	}
	if _, err := repo.GetByID(ctx, extra.ID); err != store.ErrNotFound {
		t.Fatalf("expected extra entry gone after restore, got %v", err)
	}
}

func TestCheckpointIncludesSoftDeletedRows(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	entry := &ledgerEntry{Account: "acc-1", Amount: 100}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(ctx, entry.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	snapshot, err := repo.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	rows, ok := snapshot.([]ledgerEntry)
	if !ok {
		t.Fatalf("unexpected snapshot type %T", snapshot)
	}
	if len(rows) != 1 {
		t.Fatalf("expected soft-deleted row captured, got %d rows", len(rows))
	}
	if rows[0].DeletedAt.IsZero() {
		t.Fatal("expected deleted_at preserved in snapshot")
	}
}

func TestRestoreEmptySnapshotClearsTable(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	snapshot, err := repo.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if err := repo.Create(ctx, &ledgerEntry{Account: "acc-1", Amount: 50}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Restore(ctx, snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}
	result, err := repo.List(ctx, store.ListOptions{IncludeSoftDeleted: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("expected empty table after restore, total %d", result.Total)
	}
}

func TestRestoreRejectsForeignSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newLedgerRepo(t)

	entry := &ledgerEntry{Account: "acc-1", Amount: 50}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Restore(ctx, map[string]int{"bogus": 1}); err == nil {
		t.Fatal("expected foreign snapshot to be rejected")
	}
	if _, err := repo.GetByID(ctx, entry.ID); err != nil {
		t.Fatalf("expected state untouched after rejected restore: %v", err)
	}
}
