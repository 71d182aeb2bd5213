package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAdapter struct {
	SliceAdapter
	counts, reads int
	err           error
}

func (a *countingAdapter) Count(ctx context.Context) (int, error) {
	a.counts++
	if a.err != nil {
		return 0, a.err
	}
	return a.SliceAdapter.Count(ctx)
}

func (a *countingAdapter) Items(ctx context.Context, offset, limit int) ([]*Entity, error) {
	a.reads++
	if a.err != nil {
		return nil, a.err
	}
	return a.SliceAdapter.Items(ctx, offset, limit)
}

func entities(k *Kind, n int) SliceAdapter {
	l := make(SliceAdapter, 0, n)
	for i := 0; i < n; i++ {
		e := New(k)
		e.Set(IDField, i)
		l = append(l, e)
	}
	return l
}

func TestCollectionPageCount(t *testing.T) {
	k := MustNewKind("things", nil)
	ctx := context.Background()
	cases := []struct {
		total, perPage, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{30, 10, 3},
		{31, 10, 4},
		{5, 1, 5},
	}
	for _, tc := range cases {
		c := NewCollection(entities(k, tc.total))
		c.SetItemCountPerPage(tc.perPage)
		got, err := c.PageCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "total=%d perPage=%d", tc.total, tc.perPage)
	}
}

func TestCollectionEmpty(t *testing.T) {
	c := NewCollection(SliceAdapter{})
	ctx := context.Background()
	total, err := c.TotalItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	pages, _ := c.PageCount(ctx)
	assert.Equal(t, 1, pages)
	items, err := c.CurrentItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollectionCurrentItems(t *testing.T) {
	k := MustNewKind("things", nil)
	ctx := context.Background()
	a := &countingAdapter{SliceAdapter: entities(k, 25)}
	c := NewCollection(a)
	assert.Equal(t, DefaultItemCountPerPage, c.ItemCountPerPage())
	assert.Equal(t, 1, c.CurrentPageNumber())

	c.SetItemCountPerPage(10)
	c.SetCurrentPageNumber(3)
	items, err := c.CurrentItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, 20, items[0].ID())

	// Memoized.
	c.CurrentItems(ctx)
	c.TotalItemCount(ctx)
	c.TotalItemCount(ctx)
	assert.Equal(t, 1, a.reads)
	assert.Equal(t, 1, a.counts)

	// Out of range pages are accepted and yield no items.
	c.SetCurrentPageNumber(9)
	items, err = c.CurrentItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 2, a.reads)

	// Invalid values are ignored.
	c.SetCurrentPageNumber(0)
	c.SetItemCountPerPage(-1)
	assert.Equal(t, 9, c.CurrentPageNumber())
	assert.Equal(t, 10, c.ItemCountPerPage())
}

func TestCollectionAdapterErrors(t *testing.T) {
	ctx := context.Background()
	c := NewCollection(&countingAdapter{err: errors.New("boom")})
	_, err := c.TotalItemCount(ctx)
	assert.EqualError(t, err, "boom")
	_, err = c.PageCount(ctx)
	assert.EqualError(t, err, "boom")
	_, err = c.CurrentItems(ctx)
	assert.EqualError(t, err, "boom")
}

func TestSliceAdapterItems(t *testing.T) {
	k := MustNewKind("things", nil)
	a := entities(k, 3)
	ctx := context.Background()
	items, _ := a.Items(ctx, 1, -1)
	assert.Len(t, items, 2)
	items, _ = a.Items(ctx, 0, 2)
	assert.Len(t, items, 2)
	items, _ = a.Items(ctx, 5, 2)
	assert.Empty(t, items)
}
