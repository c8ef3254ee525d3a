package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-unitofwork/pkg/config"
	"github.com/goliatone/go-unitofwork/pkg/domain"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/logger"
	"github.com/goliatone/go-unitofwork/pkg/interfaces/store"
	"github.com/goliatone/go-unitofwork/pkg/storage"
	"github.com/goliatone/go-unitofwork/pkg/unitofwork"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type order struct {
	bun.BaseModel `bun:"table:orders"`
	domain.RecordMeta

	Reference string `bun:",nullzero,notnull"`
	SKU       string `bun:",nullzero,notnull"`
	Quantity  int    `bun:",nullzero"`
}

type inventoryItem struct {
	domain.RecordMeta
	SKU   string
	Count int
}

// placeOrder persists an order row when its queued command executes.
type placeOrder struct {
	orders store.Repository[order]
}

type placeOrderMsg struct {
	Reference string
	SKU       string
	Quantity  int
}

func (c placeOrder) Execute(ctx context.Context, msg placeOrderMsg) error {
	return c.orders.Create(ctx, &order{Reference: msg.Reference, SKU: msg.SKU, Quantity: msg.Quantity})
}

func main() {
	ctx := context.Background()
	lgr := logger.New()

	cfg, err := config.Load(map[string]any{
		"persistence": map[string]any{
			"driver": "sqlite",
			"dsn":    "file:checkout?mode=memory&cache=shared",
		},
	})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.OpenSQLite(ctx, cfg.Persistence, lgr, (*order)(nil))
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	handlers := repository.ModelHandlers[*order]{
		NewRecord:          func() *order { return &order{} },
		GetID:              func(o *order) uuid.UUID { return o.ID },
		SetID:              func(o *order, id uuid.UUID) { o.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(o *order) string { return o.ID.String() },
	}
	orders := storage.NewBunRepository[order](db, handlers, func(o *order) *domain.RecordMeta { return &o.RecordMeta })
	inventory := storage.NewMemoryRepository(func(i *inventoryItem) *domain.RecordMeta { return &i.RecordMeta })

	item := &inventoryItem{SKU: "tea-001", Count: 3}
	if err := inventory.Create(ctx, item); err != nil {
		log.Fatalf("seed inventory: %v", err)
	}

	manager, err := unitofwork.NewManager(unitofwork.Dependencies{
		Participants: []store.Participant{orders, inventory},
		Logger:       lgr,
	})
	if err != nil {
		log.Fatalf("build manager: %v", err)
	}

	checkout := placeOrder{orders: orders}

	// A successful checkout: the order row and the stock decrement commit
	// together.
	err = manager.WithinTransaction(ctx, func(ctx context.Context) error {
		unit, _ := unitofwork.FromContext(ctx)
		if err := unit.RegisterOperation(ctx, unitofwork.Command(checkout, placeOrderMsg{
			Reference: "ord-1001",
			SKU:       item.SKU,
			Quantity:  1,
		})); err != nil {
			return err
		}
		return unit.RegisterOperation(ctx, func(ctx context.Context) error {
			return adjustStock(ctx, inventory, item.ID, -1)
		})
	})
	if err != nil {
		log.Fatalf("checkout: %v", err)
	}
	report(ctx, orders, inventory, item.ID, "after successful checkout")

	// A declined payment: the order row and the stock decrement roll back
	// together.
	err = manager.WithinTransaction(ctx, func(ctx context.Context) error {
		unit, _ := unitofwork.FromContext(ctx)
		if err := unit.RegisterOperation(ctx, unitofwork.Command(checkout, placeOrderMsg{
			Reference: "ord-1002",
			SKU:       item.SKU,
			Quantity:  2,
		})); err != nil {
			return err
		}
		if err := unit.RegisterOperation(ctx, func(ctx context.Context) error {
			return adjustStock(ctx, inventory, item.ID, -2)
		}); err != nil {
			return err
		}
		return unit.RegisterOperation(ctx, func(ctx context.Context) error {
			return errors.New("payment declined")
		})
	})
	if err != nil {
		fmt.Printf("checkout rejected: %v\n", err)
	}
	report(ctx, orders, inventory, item.ID, "after declined checkout")
}

func adjustStock(ctx context.Context, inventory store.Repository[inventoryItem], itemID uuid.UUID, delta int) error {
	item, err := inventory.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	item.Count += delta
	return inventory.Update(ctx, item)
}

func report(ctx context.Context, orders store.Repository[order], inventory store.Repository[inventoryItem], itemID uuid.UUID, label string) {
	list, err := orders.List(ctx, store.ListOptions{})
	if err != nil {
		log.Fatalf("list orders: %v", err)
	}
	item, err := inventory.GetByID(ctx, itemID)
	if err != nil {
		log.Fatalf("get inventory: %v", err)
	}
	fmt.Printf("%s: %d orders, %d units of %s in stock\n", label, list.Total, item.Count, item.SKU)
}
