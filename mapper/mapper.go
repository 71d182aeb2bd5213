// Package mapper defines the storage collaborator the REST layer delegates
// persistence to, plus generic wrappers adding pagination, circuit breaking
// and tracing to any implementation.
package mapper

import (
	"context"
	"errors"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/schema/query"
)

var (
	// ErrNotImplemented is returned when a mapper does not support a given
	// query option (i.e.: grouping on an in-memory store).
	ErrNotImplemented = errors.New("not implemented")
	// ErrConflict is returned when inserting an entity whose id is already
	// used.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable is returned when the storage can't be reached, i.e.: when
	// the circuit breaker is open.
	ErrUnavailable = errors.New("storage unavailable")
)

// Order values.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// Options tunes a find operation. Zero values mean "not set".
type Options struct {
	// Sort is the name of the field to sort on.
	Sort string
	// Order is either OrderAsc or OrderDesc.
	Order string
	// Page is the 1-based page to return.
	Page int
	// Limit is the page size.
	Limit int
	// Offset skips the given number of items before pagination is applied.
	Offset int
	// Group lists the fields to group results by.
	Group []string
	// Having filters grouped results.
	Having query.Predicate
	// Fields restricts the attributes of the returned entities. The
	// identifier is always included.
	Fields []string
}

// Mapper gives access to the stored entities of a kind.
//
// Find operations return a nil entity and a nil error when nothing matches;
// Insert, Update and Delete return false when no row was affected. It is up
// to the caller to turn those into domain errors.
type Mapper interface {
	// Kind returns the kind of the entities handled by the mapper.
	Kind() *entity.Kind
	// FindBy returns a lazily loaded collection of the entities matching
	// where.
	FindBy(ctx context.Context, where query.Predicate, opts Options) (*entity.Collection, error)
	// FindOneBy returns the first entity matching where.
	FindOneBy(ctx context.Context, where query.Predicate, opts Options) (*entity.Entity, error)
	// FindByID returns the entity with the given id.
	FindByID(ctx context.Context, id interface{}, opts Options) (*entity.Entity, error)
	// Count returns the number of entities matching where.
	Count(ctx context.Context, where query.Predicate) (int, error)
	// Insert stores a new entity. When the entity has no id, the mapper
	// generates one and sets it on the entity.
	Insert(ctx context.Context, e *entity.Entity) (bool, error)
	// Update stores data as the new values of the given fields of e and
	// applies them to e.
	Update(ctx context.Context, data map[string]interface{}, e *entity.Entity) (bool, error)
	// Delete removes e from the storage.
	Delete(ctx context.Context, e *entity.Entity) (bool, error)
}

// ByID returns a predicate matching the entity with the given id.
func ByID(id interface{}) query.Predicate {
	return query.Predicate{&query.Equal{Field: entity.IDField, Value: id}}
}
