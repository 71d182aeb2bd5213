package rest

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema/query"
)

// MapperResource is a resource storing its entities through a mapper.
//
// It implements Fetch, FetchAll, Create, Update, Patch, Delete, Head and
// Options. Operations on whole collections are not allowed.
type MapperResource struct {
	NotAllowed

	// Where is a predicate added to every read, i.e.: to restrict the
	// resource to the entities of a tenant.
	Where query.Predicate
	// ParseID converts the identifier found in the URL to the type stored by
	// the mapper. Identifiers are used as strings when not set.
	ParseID func(id string) (interface{}, error)

	name   string
	mapper mapper.Mapper
}

// NewMapperResource returns a resource named name over m. The name of the
// mapper kind is used when name is empty.
func NewMapperResource(name string, m mapper.Mapper) *MapperResource {
	if name == "" && m != nil && m.Kind() != nil {
		name = m.Kind().Name()
	}
	return &MapperResource{name: name, mapper: m}
}

// ResourceName derives a resource name from the type of v: its lower-cased
// name with any "Handler" removed. A UsersHandler is named "users".
func ResourceName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return strings.ToLower(strings.Replace(t.Name(), "Handler", "", -1))
}

// IntID is a ParseID function for numeric identifiers.
func IntID(id string) (interface{}, error) {
	i, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	return i, nil
}

// Name implements Resource.
func (m *MapperResource) Name() string {
	return m.name
}

// Kind implements Resource.
func (m *MapperResource) Kind() *entity.Kind {
	return m.mapper.Kind()
}

// Mapper returns the underlying mapper.
func (m *MapperResource) Mapper() mapper.Mapper {
	return m.mapper
}

// where returns the resource predicate and-ed with the member identifier
// when set.
func (m *MapperResource) where(r *Request, extra query.Predicate) (query.Predicate, error) {
	where := append(query.Predicate{}, m.Where...)
	where = append(where, extra...)
	if r.HasID() {
		id, err := m.id(r)
		if err != nil {
			return nil, err
		}
		where = append(where, mapper.ByID(id)...)
	}
	return where, nil
}

func (m *MapperResource) id(r *Request) (interface{}, error) {
	if m.ParseID == nil {
		return r.ID, nil
	}
	return m.ParseID(r.ID)
}

// find returns the entity targeted by r or ErrNotFound.
func (m *MapperResource) find(ctx context.Context, r *Request, fields []string) (*entity.Entity, error) {
	where, err := m.where(r, nil)
	if err != nil {
		return nil, err
	}
	e, err := m.mapper.FindOneBy(ctx, where, mapper.Options{Fields: fields})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// Fetch implements Resource.
func (m *MapperResource) Fetch(ctx context.Context, r *Request) (*entity.Entity, error) {
	e, err := m.find(ctx, r, r.Query.Fields)
	if err != nil {
		return nil, err
	}
	e.SetFields(r.Query.Fields)
	return e, nil
}

// FetchAll implements Resource.
func (m *MapperResource) FetchAll(ctx context.Context, r *Request) (*entity.Collection, error) {
	where, err := m.where(r, r.Query.Where)
	if err != nil {
		return nil, err
	}
	c, err := m.mapper.FindBy(ctx, where, r.Query.Options())
	if err != nil {
		return nil, err
	}
	c.SetItemCountPerPage(r.Query.ItemsPerPage)
	c.SetCurrentPageNumber(r.Query.Page)
	return c, nil
}

// Create implements Resource.
func (m *MapperResource) Create(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	k := m.Kind()
	if s := k.Schema(); s != nil {
		s.OnInit(ctx, data)
	}
	e := entity.New(k)
	e.Exchange(data)
	ok, err := m.mapper.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return e, nil
}

// Update implements Resource.
func (m *MapperResource) Update(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	return m.update(ctx, r, data)
}

// Patch implements Resource.
func (m *MapperResource) Patch(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	return m.update(ctx, r, data)
}

func (m *MapperResource) update(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	e, err := m.find(ctx, r, nil)
	if err != nil {
		return nil, err
	}
	k := m.Kind()
	if s := k.Schema(); s != nil {
		s.OnUpdate(ctx, data)
	}
	changes := make(map[string]interface{}, len(data))
	for name, value := range data {
		if name != entity.IDField && k.Declares(name) {
			changes[name] = value
		}
	}
	if len(changes) > 0 {
		ok, err := m.mapper.Update(ctx, e.PrepareForStorage(changes), e)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
	}
	e.SetFields(r.Query.Fields)
	return e, nil
}

// Delete implements Resource.
func (m *MapperResource) Delete(ctx context.Context, r *Request) error {
	e, err := m.find(ctx, r, nil)
	if err != nil {
		return err
	}
	ok, err := m.mapper.Delete(ctx, e)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Head implements Resource. On a member route it reports the existence of
// the entity, on a collection route the number of matching entities in the
// X-Total header.
func (m *MapperResource) Head(ctx context.Context, r *Request) (*Response, error) {
	if r.HasID() {
		if _, err := m.find(ctx, r, []string{entity.IDField}); err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK}, nil
	}
	where, err := m.where(r, r.Query.Where)
	if err != nil {
		return nil, err
	}
	total, err := m.mapper.Count(ctx, where)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("X-Total", strconv.Itoa(total))
	return &Response{Status: http.StatusOK, Header: h}, nil
}

// Options implements Resource. It lists the allowed verbs in the Allow
// header.
func (m *MapperResource) Options(ctx context.Context, r *Request) (*Response, error) {
	h := http.Header{}
	if r.HasID() {
		h.Set("Allow", "DELETE, GET, HEAD, OPTIONS, PATCH, PUT")
	} else {
		h.Set("Allow", "GET, HEAD, OPTIONS, POST")
	}
	return &Response{Status: http.StatusNoContent, Header: h}, nil
}
