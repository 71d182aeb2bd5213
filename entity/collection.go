package entity

import (
	"context"
	"math"
)

// DefaultItemCountPerPage is the page size of a new collection.
const DefaultItemCountPerPage = 10

// Adapter gives a collection access to its underlying items.
type Adapter interface {
	// Count returns the total number of items across all pages.
	Count(ctx context.Context) (int, error)
	// Items returns at most limit items starting at offset.
	Items(ctx context.Context, offset, limit int) ([]*Entity, error)
}

// SliceAdapter is an Adapter over an already materialized list.
type SliceAdapter []*Entity

// Count implements Adapter.
func (a SliceAdapter) Count(ctx context.Context) (int, error) {
	return len(a), nil
}

// Items implements Adapter.
func (a SliceAdapter) Items(ctx context.Context, offset, limit int) ([]*Entity, error) {
	if offset >= len(a) {
		return []*Entity{}, nil
	}
	end := offset + limit
	if limit < 0 || end > len(a) {
		end = len(a)
	}
	return a[offset:end], nil
}

// Collection is a paginated, lazily materialized list of entities. The page
// setters are meant to be called before the first read.
type Collection struct {
	adapter Adapter
	perPage int
	page    int
	total   int
	counted bool
	items   []*Entity
	loaded  bool
}

// NewCollection creates a collection on page 1 reading from adapter.
func NewCollection(adapter Adapter) *Collection {
	return &Collection{
		adapter: adapter,
		perPage: DefaultItemCountPerPage,
		page:    1,
	}
}

// SetItemCountPerPage sets the page size. Values lower than 1 are ignored.
func (c *Collection) SetItemCountPerPage(n int) {
	if n < 1 {
		return
	}
	c.perPage = n
	c.items, c.loaded = nil, false
}

// SetCurrentPageNumber sets the 1-based current page. Values lower than 1 are
// ignored. Pages past the last one are accepted and yield no items.
func (c *Collection) SetCurrentPageNumber(page int) {
	if page < 1 {
		return
	}
	c.page = page
	c.items, c.loaded = nil, false
}

// Adapter returns the adapter the collection reads from.
func (c *Collection) Adapter() Adapter {
	return c.adapter
}

// ItemCountPerPage returns the page size.
func (c *Collection) ItemCountPerPage() int {
	return c.perPage
}

// CurrentPageNumber returns the 1-based current page.
func (c *Collection) CurrentPageNumber() int {
	return c.page
}

// TotalItemCount returns the number of items across all pages.
func (c *Collection) TotalItemCount(ctx context.Context) (int, error) {
	if !c.counted {
		total, err := c.adapter.Count(ctx)
		if err != nil {
			return 0, err
		}
		c.total, c.counted = total, true
	}
	return c.total, nil
}

// PageCount returns the number of pages, always at least 1.
func (c *Collection) PageCount(ctx context.Context) (int, error) {
	total, err := c.TotalItemCount(ctx)
	if err != nil {
		return 0, err
	}
	return pageCount(total, c.perPage), nil
}

// CurrentItems returns the items of the current page.
func (c *Collection) CurrentItems(ctx context.Context) ([]*Entity, error) {
	if !c.loaded {
		items, err := c.adapter.Items(ctx, (c.page-1)*c.perPage, c.perPage)
		if err != nil {
			return nil, err
		}
		c.items, c.loaded = items, true
	}
	return c.items, nil
}

func pageCount(total, perPage int) int {
	return int(math.Ceil(math.Max(float64(total)/float64(perPage), 1)))
}
