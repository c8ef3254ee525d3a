package unitofwork

import "context"

type contextKey struct{}

// WithUnit returns a context carrying the given unit of work.
func WithUnit(ctx context.Context, u *UnitOfWork) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext extracts the unit of work carried by ctx, if any. Callbacks
// running under Manager.WithinTransaction use this to queue operations or
// enroll extra participants mid-transaction.
func FromContext(ctx context.Context) (*UnitOfWork, bool) {
	u, ok := ctx.Value(contextKey{}).(*UnitOfWork)
	return u, ok
}
