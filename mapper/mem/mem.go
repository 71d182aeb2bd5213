// Package mem is a mapper storing entities in memory. It is meant for tests
// and demos.
package mem

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema/query"
)

// Mapper stores gob encoded rows in memory, in insertion order.
type Mapper struct {
	sync.RWMutex

	// If Latency is set, the mapper will introduce an artificial latency on
	// all operations.
	Latency time.Duration

	kind *entity.Kind
	rows map[interface{}][]byte
	ids  []interface{}
}

func init() {
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
	gob.Register(time.Time{})
	gob.Register(json.Number(""))
}

// New creates an empty memory mapper for entities of kind k.
func New(k *entity.Kind) *Mapper {
	return &Mapper{
		kind: k,
		rows: map[interface{}][]byte{},
		ids:  []interface{}{},
	}
}

// NewSlow creates an empty memory mapper with the specified latency.
func NewSlow(k *entity.Kind, latency time.Duration) *Mapper {
	m := New(k)
	m.Latency = latency
	return m
}

// Kind implements mapper.Mapper.
func (m *Mapper) Kind() *entity.Kind {
	return m.kind
}

// store serializes the row using gob and stores it under id.
func (m *Mapper) store(id interface{}, row map[string]interface{}) error {
	var data bytes.Buffer
	if err := gob.NewEncoder(&data).Encode(row); err != nil {
		return err
	}
	m.rows[id] = data.Bytes()
	return nil
}

// fetch finds a row by id and returns a fresh copy of it.
func (m *Mapper) fetch(id interface{}) (map[string]interface{}, error) {
	data, found := m.rows[id]
	if !found {
		return nil, nil
	}
	var row map[string]interface{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}

// delete removes a row by id without locking.
func (m *Mapper) delete(id interface{}) {
	delete(m.rows, id)
	for i, _id := range m.ids {
		if _id == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
}

func (m *Mapper) newEntity(row map[string]interface{}, fields []string) *entity.Entity {
	e := entity.New(m.kind)
	e.Exchange(row)
	e.SetFields(fields)
	return e
}

// find returns the rows matching where, sorted as requested by opts.
func (m *Mapper) find(where query.Predicate, opts mapper.Options) ([]map[string]interface{}, error) {
	if len(opts.Group) > 0 || len(opts.Having) > 0 {
		return nil, mapper.ErrNotImplemented
	}
	rows := []map[string]interface{}{}
	for _, id := range m.ids {
		row, err := m.fetch(id)
		if err != nil {
			return nil, err
		}
		if !where.Match(row) {
			continue
		}
		rows = append(rows, row)
	}
	if opts.Sort != "" {
		sort.Stable(sortableRows{
			field:    opts.Sort,
			reversed: opts.Order == mapper.OrderDesc,
			less:     m.lessFunc(opts.Sort),
			rows:     rows,
		})
	}
	return rows, nil
}

// Window implements mapper.Finder.
func (m *Mapper) Window(ctx context.Context, where query.Predicate, opts mapper.Options, offset, limit int) (list []*entity.Entity, err error) {
	m.RLock()
	defer m.RUnlock()
	err = handleWithLatency(m.Latency, ctx, func() error {
		rows, err := m.find(where, opts)
		if err != nil {
			return err
		}
		list = []*entity.Entity{}
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
		if limit >= 0 && limit < len(rows) {
			rows = rows[:limit]
		}
		for _, row := range rows {
			list = append(list, m.newEntity(row, opts.Fields))
		}
		return nil
	})
	return list, err
}

// Total implements mapper.Finder.
func (m *Mapper) Total(ctx context.Context, where query.Predicate, opts mapper.Options) (total int, err error) {
	m.RLock()
	defer m.RUnlock()
	err = handleWithLatency(m.Latency, ctx, func() error {
		rows, err := m.find(where, mapper.Options{Group: opts.Group, Having: opts.Having})
		total = len(rows)
		return err
	})
	return total, err
}

// FindBy implements mapper.Mapper.
func (m *Mapper) FindBy(ctx context.Context, where query.Predicate, opts mapper.Options) (*entity.Collection, error) {
	if len(opts.Group) > 0 || len(opts.Having) > 0 {
		return nil, mapper.ErrNotImplemented
	}
	return mapper.Paginate(m, where, opts), nil
}

// FindOneBy implements mapper.Mapper.
func (m *Mapper) FindOneBy(ctx context.Context, where query.Predicate, opts mapper.Options) (*entity.Entity, error) {
	list, err := m.Window(ctx, where, opts, opts.Offset, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// FindByID implements mapper.Mapper.
func (m *Mapper) FindByID(ctx context.Context, id interface{}, opts mapper.Options) (e *entity.Entity, err error) {
	m.RLock()
	defer m.RUnlock()
	err = handleWithLatency(m.Latency, ctx, func() error {
		row, err := m.fetch(id)
		if row != nil {
			e = m.newEntity(row, opts.Fields)
		}
		return err
	})
	return e, err
}

// Count implements mapper.Mapper.
func (m *Mapper) Count(ctx context.Context, where query.Predicate) (int, error) {
	return m.Total(ctx, where, mapper.Options{})
}

// Insert implements mapper.Mapper.
func (m *Mapper) Insert(ctx context.Context, e *entity.Entity) (bool, error) {
	m.Lock()
	defer m.Unlock()
	err := handleWithLatency(m.Latency, ctx, func() error {
		row := e.PrepareForStorage(nil)
		id := row[entity.IDField]
		if id == nil {
			id = xid.New().String()
			row[entity.IDField] = id
		}
		if _, found := m.rows[id]; found {
			return mapper.ErrConflict
		}
		if err := m.store(id, row); err != nil {
			return err
		}
		m.ids = append(m.ids, id)
		return e.Set(entity.IDField, id)
	})
	return err == nil, err
}

// Update implements mapper.Mapper.
func (m *Mapper) Update(ctx context.Context, data map[string]interface{}, e *entity.Entity) (ok bool, err error) {
	m.Lock()
	defer m.Unlock()
	err = handleWithLatency(m.Latency, ctx, func() error {
		id := e.ID()
		row, err := m.fetch(id)
		if err != nil || row == nil {
			return err
		}
		for k, v := range data {
			if k != entity.IDField && m.kind.Declares(k) {
				row[k] = v
			}
		}
		if err := m.store(id, row); err != nil {
			return err
		}
		e.Exchange(row)
		ok = true
		return nil
	})
	return ok, err
}

// Delete implements mapper.Mapper.
func (m *Mapper) Delete(ctx context.Context, e *entity.Entity) (ok bool, err error) {
	m.Lock()
	defer m.Unlock()
	err = handleWithLatency(m.Latency, ctx, func() error {
		if _, found := m.rows[e.ID()]; found {
			m.delete(e.ID())
			ok = true
		}
		return nil
	})
	return ok, err
}
