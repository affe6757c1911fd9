package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request or task.
// This ensures proper isolation between concurrent workers.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a store transaction boundary.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository
}
