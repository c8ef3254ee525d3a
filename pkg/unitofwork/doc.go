// Package unitofwork coordinates groups of operations across one or more
// data stores so they apply atomically: either every queued operation's
// effect is visible, or every enrolled participant is restored to the state
// it had when the unit began.
//
// Units are single use. The Manager mints a fresh one per transaction and
// doubles as a store.TransactionManager:
//
//	manager, _ := unitofwork.NewManager(unitofwork.Dependencies{
//		Participants: []store.Participant{orders, inventory},
//	})
//
//	err := manager.WithinTransaction(ctx, func(ctx context.Context) error {
//		unit, _ := unitofwork.FromContext(ctx)
//		return unit.RegisterOperation(ctx, func(ctx context.Context) error {
//			return orders.Create(ctx, entry)
//		})
//	})
//
// Operations registered inside the scope run at commit time, in registration
// order; the first failure rolls every participant back to its checkpoint and
// is returned as-is. Operations registered outside a scope run immediately,
// without rollback protection. A unit and its participants are not safe for
// concurrent use; callers serialize access.
package unitofwork
