package ledger

import (
	"context"

	applog "financeiro/internal/log"
)

// AccountStore is the persistence the registry needs.
type AccountStore interface {
	InsertAccount(ctx context.Context, name string) (int64, error)
	DeleteAccountsByName(ctx context.Context, name string) (int64, error)
	ListAccountNames(ctx context.Context) ([]string, error)
}

// Registry manages the named accounts movements can be tagged with. Names
// are not required to be unique and removing an account leaves movements
// that reference it untouched.
type Registry struct {
	store  AccountStore
	logger *applog.Logger
}

func NewRegistry(store AccountStore, logger *applog.Logger) *Registry {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Registry{
		store:  store,
		logger: logger.WithComponent(applog.ComponentAccounts),
	}
}

// Add appends an account named name and returns its id.
func (r *Registry) Add(ctx context.Context, name string) (int64, error) {
	id, err := r.store.InsertAccount(ctx, name)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to add account", applog.FieldAccount, name, applog.FieldError, err)
		return 0, err
	}
	r.logger.InfoContext(ctx, "Account added",
		applog.FieldOperation, applog.OpCreate, applog.FieldAccount, name, applog.FieldAccountID, id)
	return id, nil
}

// Remove deletes every account whose name matches exactly and returns how
// many were deleted.
func (r *Registry) Remove(ctx context.Context, name string) (int64, error) {
	n, err := r.store.DeleteAccountsByName(ctx, name)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to remove account", applog.FieldAccount, name, applog.FieldError, err)
		return 0, err
	}
	r.logger.InfoContext(ctx, "Account removed",
		applog.FieldOperation, applog.OpDelete, applog.FieldAccount, name, applog.FieldCount, n)
	return n, nil
}

// List returns every account name in insertion order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	return r.store.ListAccountNames(ctx)
}
