package dax

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals that a single-entity lookup matched no row.
	ErrNotFound = errors.New("repository: entity not found")

	// ErrNilEntity signals that a write operation received a nil entity.
	ErrNilEntity = errors.New("repository: entity cannot be nil")

	// ErrEmptyEntities signals that a bulk write received no entities.
	ErrEmptyEntities = errors.New("repository: entity slice cannot be empty")

	// ErrInvalidPage signals a page number below 1.
	ErrInvalidPage = errors.New("repository: page must be greater than or equal to 1")

	// ErrInvalidPageSize signals a page size below 1.
	ErrInvalidPageSize = errors.New("repository: page size must be greater than or equal to 1")
)

// Repo is the contract services depend on for entity storage. One repository
// and its underlying session serve one logical caller at a time; sharing a
// repository across concurrent operations is a caller error.
//
// Reads return detached values. Mutating a fetched entity has no effect until
// it is passed back through Update.
type Repo[T Identifiable] interface {
	// Query runs a caller-composed specification (filters, ordering,
	// limit/offset) and materializes the result.
	Query(ctx context.Context, q *Query) ([]T, error)

	// Find returns all rows matching the query's filters. Ordering and
	// limit/offset on the query are ignored.
	Find(ctx context.Context, q *Query) ([]T, error)

	// FindByID returns the entity with the given primary key, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (T, error)

	// FindAll returns every row. There is no implicit limit; avoid on large
	// tables.
	FindAll(ctx context.Context) ([]T, error)

	// Exists reports whether any row matches the query's filters, without
	// materializing rows.
	Exists(ctx context.Context, q *Query) (bool, error)

	// Count returns the number of rows matching the query's filters. A nil
	// query counts the whole table.
	Count(ctx context.Context, q *Query) (int64, error)

	// FindPaged returns one page of the filtered, ordered set together with
	// the total filtered count. Page numbering is 1-based; page and pageSize
	// must both be at least 1 and are validated before any query is issued.
	// Callers should supply an ordering on the query, otherwise page
	// boundaries follow database-default ordering and are unstable.
	FindPaged(ctx context.Context, page, pageSize int, q *Query) (Page[T], error)

	// Add inserts the entity and flushes immediately.
	Add(ctx context.Context, entity T) error

	// AddRange inserts the entities in a single flush.
	AddRange(ctx context.Context, entities []T) error

	// Update writes every column of the entity, whether or not it changed,
	// and flushes immediately.
	Update(ctx context.Context, entity T) error

	// UpdateRange updates the entities, flushing as it goes.
	UpdateRange(ctx context.Context, entities []T) error

	// Delete removes the row identified by the entity's primary key.
	Delete(ctx context.Context, entity T) error

	// SaveChanges reports the rows affected by writes issued through this
	// repository since the previous SaveChanges call, then resets the tally.
	// Writes flush as they happen, so there is never pending work to send.
	SaveChanges(ctx context.Context) (int64, error)

	// ExecuteInTransaction runs fn inside a transaction scoped to the call.
	// When ctx already carries a transaction the action runs inline in that
	// outer scope instead of nesting. On error the transaction is rolled back
	// and the original error is returned unchanged.
	ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// HasActiveTransaction reports whether ctx carries a live transaction.
	HasActiveTransaction(ctx context.Context) bool

	// Close releases the underlying database session. Safe to call once;
	// using the repository afterwards is undefined.
	Close() error
}
