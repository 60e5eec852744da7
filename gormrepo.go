package dax

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKeyType struct{}

var txKey txKeyType

// WithTx returns a context carrying the given transaction handle. Repository
// operations resolve their session from the context first, so reads and
// writes made with the returned context join the transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	if ctx == nil || tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// TxFrom extracts the transaction handle carried by ctx, if any.
func TxFrom(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// GormRepo is a generic entity repository backed by a GORM session. T is a
// pointer-to-struct type; hydration goes through the factory instead of
// requiring default-constructible entities.
//
// A GormRepo and its session represent one unit of work for one logical
// caller. No internal locking is performed and no failures are retried.
type GormRepo[T Identifiable] struct {
	db       *gorm.DB
	factory  func() T
	affected int64
}

// NewGormRepo constructs a repository over the provided GORM session.
func NewGormRepo[T Identifiable](db *gorm.DB, factory func() T) (*GormRepo[T], error) {
	if db == nil {
		return nil, errors.New("gorm session is required")
	}
	if factory == nil {
		return nil, errors.New("repository factory is required")
	}
	return &GormRepo[T]{db: db, factory: factory}, nil
}

// session resolves the handle all operations run against, preferring a
// transaction carried by ctx over the repository's own session.
func (r *GormRepo[T]) session(ctx context.Context) *gorm.DB {
	if tx := TxFrom(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *GormRepo[T]) Query(ctx context.Context, q *Query) ([]T, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	db := applySorts(applyFilters(r.session(ctx).Model(r.factory()), q), q)
	limit, offset := q.Window()
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	var out []T
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("gorm query: %w", err)
	}
	return out, nil
}

func (r *GormRepo[T]) Find(ctx context.Context, q *Query) ([]T, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []T
	if err := applyFilters(r.session(ctx).Model(r.factory()), q).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("gorm find: %w", err)
	}
	return out, nil
}

// FindByID looks up a single row by primary key. Unlike identity-map backed
// mappers, this always issues a query; there is no session-local cache that
// could return a stale in-memory instance.
func (r *GormRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	entity := r.factory()
	if err := r.session(ctx).First(entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("gorm find by id: %w", err)
	}
	return entity, nil
}

func (r *GormRepo[T]) FindAll(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.session(ctx).Model(r.factory()).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("gorm find all: %w", err)
	}
	return out, nil
}

func (r *GormRepo[T]) Exists(ctx context.Context, q *Query) (bool, error) {
	count, err := r.Count(ctx, q)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo[T]) Count(ctx context.Context, q *Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	var count int64
	if err := applyFilters(r.session(ctx).Model(r.factory()), q).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm count: %w", err)
	}
	return count, nil
}

// FindPaged runs a count over the filtered set followed by an offset/limit
// query. Two round trips, by design. Callers should order the query;
// otherwise page boundaries are unstable.
func (r *GormRepo[T]) FindPaged(ctx context.Context, page, pageSize int, q *Query) (Page[T], error) {
	if page < 1 {
		return Page[T]{}, ErrInvalidPage
	}
	if pageSize < 1 {
		return Page[T]{}, ErrInvalidPageSize
	}
	if err := q.Validate(); err != nil {
		return Page[T]{}, err
	}

	var total int64
	if err := applyFilters(r.session(ctx).Model(r.factory()), q).Count(&total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("gorm paged count: %w", err)
	}

	db := applySorts(applyFilters(r.session(ctx).Model(r.factory()), q), q)
	var items []T
	if err := db.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return Page[T]{}, fmt.Errorf("gorm paged find: %w", err)
	}

	return Page[T]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (r *GormRepo[T]) Add(ctx context.Context, entity T) error {
	if isNilEntity(entity) {
		return ErrNilEntity
	}
	res := r.session(ctx).Create(entity)
	if res.Error != nil {
		return fmt.Errorf("gorm add: %w", res.Error)
	}
	r.affected += res.RowsAffected
	return nil
}

func (r *GormRepo[T]) AddRange(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return ErrEmptyEntities
	}
	for _, entity := range entities {
		if isNilEntity(entity) {
			return ErrNilEntity
		}
	}
	res := r.session(ctx).Create(entities)
	if res.Error != nil {
		return fmt.Errorf("gorm add range: %w", res.Error)
	}
	r.affected += res.RowsAffected
	return nil
}

// Update writes the full row (every column) regardless of which fields
// changed in memory.
func (r *GormRepo[T]) Update(ctx context.Context, entity T) error {
	if isNilEntity(entity) {
		return ErrNilEntity
	}
	res := r.session(ctx).Save(entity)
	if res.Error != nil {
		return fmt.Errorf("gorm update: %w", res.Error)
	}
	r.affected += res.RowsAffected
	return nil
}

func (r *GormRepo[T]) UpdateRange(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return ErrEmptyEntities
	}
	for _, entity := range entities {
		if isNilEntity(entity) {
			return ErrNilEntity
		}
	}
	for _, entity := range entities {
		res := r.session(ctx).Save(entity)
		if res.Error != nil {
			return fmt.Errorf("gorm update range: %w", res.Error)
		}
		r.affected += res.RowsAffected
	}
	return nil
}

func (r *GormRepo[T]) Delete(ctx context.Context, entity T) error {
	if isNilEntity(entity) {
		return ErrNilEntity
	}
	res := r.session(ctx).Delete(entity)
	if res.Error != nil {
		return fmt.Errorf("gorm delete: %w", res.Error)
	}
	r.affected += res.RowsAffected
	return nil
}

// SaveChanges reports rows affected since the previous call and resets the
// tally. Writes flush as they execute, so nothing is sent here.
func (r *GormRepo[T]) SaveChanges(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := r.affected
	r.affected = 0
	return n, nil
}

// ExecuteInTransaction runs fn inside a transaction. A transaction already
// carried by ctx is joined rather than nested, so an inner failure rolls back
// everything staged since the outer transaction began. Otherwise a new
// transaction is begun; it commits when fn returns nil and rolls back
// otherwise, returning fn's error unchanged.
func (r *GormRepo[T]) ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("repository: transaction action is required")
	}
	if TxFrom(ctx) != nil {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

func (r *GormRepo[T]) HasActiveTransaction(ctx context.Context) bool {
	return TxFrom(ctx) != nil
}

// Close releases the pooled connections behind the session.
func (r *GormRepo[T]) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("gorm underlying db: %w", err)
	}
	return sqlDB.Close()
}

func isNilEntity(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// applyFilters translates the query's filter terms into clause expressions.
// Column names were validated against an identifier pattern, and values are
// always bound as parameters.
func applyFilters(db *gorm.DB, q *Query) *gorm.DB {
	for _, f := range q.Filters() {
		col := clause.Column{Name: f.Field}
		switch f.Op {
		case OpEq:
			db = db.Where(clause.Eq{Column: col, Value: f.Value})
		case OpNeq:
			db = db.Where(clause.Neq{Column: col, Value: f.Value})
		case OpGt:
			db = db.Where(clause.Gt{Column: col, Value: f.Value})
		case OpGte:
			db = db.Where(clause.Gte{Column: col, Value: f.Value})
		case OpLt:
			db = db.Where(clause.Lt{Column: col, Value: f.Value})
		case OpLte:
			db = db.Where(clause.Lte{Column: col, Value: f.Value})
		case OpLike:
			db = db.Where(clause.Like{Column: col, Value: f.Value})
		case OpIn:
			db = db.Where(clause.IN{Column: col, Values: valuesSlice(f.Value)})
		}
	}
	return db
}

func applySorts(db *gorm.DB, q *Query) *gorm.DB {
	for _, s := range q.Sorts() {
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: s.Field},
			Desc:   s.Desc,
		})
	}
	return db
}

func valuesSlice(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
