package mapper

import (
	"context"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/schema/query"
)

// Finder is implemented by mappers able to read a window of a result set.
type Finder interface {
	// Window returns at most limit entities matching where, starting at
	// offset. A negative limit means no limit. opts.Offset, opts.Page and
	// opts.Limit are ignored.
	Window(ctx context.Context, where query.Predicate, opts Options, offset, limit int) ([]*entity.Entity, error)
	// Total returns the number of entities (or groups when opts.Group is set)
	// matching where.
	Total(ctx context.Context, where query.Predicate, opts Options) (int, error)
}

type finderAdapter struct {
	f     Finder
	where query.Predicate
	opts  Options
}

// NewAdapter returns a collection adapter reading its items from f.
func NewAdapter(f Finder, where query.Predicate, opts Options) entity.Adapter {
	return finderAdapter{f: f, where: where, opts: opts}
}

func (a finderAdapter) Count(ctx context.Context) (int, error) {
	total, err := a.f.Total(ctx, a.where, a.opts)
	if err != nil {
		return 0, err
	}
	if total -= a.opts.Offset; total < 0 {
		total = 0
	}
	return total, nil
}

func (a finderAdapter) Items(ctx context.Context, offset, limit int) ([]*entity.Entity, error) {
	return a.f.Window(ctx, a.where, a.opts, a.opts.Offset+offset, limit)
}

// Paginate returns a collection over f positioned on the page and page size
// given by opts.
func Paginate(f Finder, where query.Predicate, opts Options) *entity.Collection {
	c := entity.NewCollection(NewAdapter(f, where, opts))
	c.SetItemCountPerPage(opts.Limit)
	c.SetCurrentPageNumber(opts.Page)
	return c
}

// rewrap returns a collection reading from a, with the same pagination as c.
func rewrap(c *entity.Collection, a entity.Adapter) *entity.Collection {
	nc := entity.NewCollection(a)
	nc.SetItemCountPerPage(c.ItemCountPerPage())
	nc.SetCurrentPageNumber(c.CurrentPageNumber())
	return nc
}
