package rest

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema/query"
)

const (
	// DefaultItemsPerPage is the page size used when items_per_page is not
	// provided.
	DefaultItemsPerPage = 25
	// DefaultMaxItemsPerPage caps items_per_page when the handler has no
	// maximum configured.
	DefaultMaxItemsPerPage = 100
)

// Request is the parsed form of an inbound HTTP request handed to the hooks
// of a Resource.
type Request struct {
	// Method is the upper-cased HTTP verb.
	Method string
	// ID is the member identifier taken from the route, empty on collection
	// routes.
	ID string
	// Query holds the parsed query-string parameters.
	Query QueryContext
	// Body is the raw request body.
	Body []byte
	// Header is the request header.
	Header http.Header

	route  Route
	values url.Values
}

// HasID tells if the request targets a member route.
func (r *Request) HasID() bool {
	return r.ID != ""
}

// Values returns a copy of the raw query-string parameters.
func (r *Request) Values() url.Values {
	v := make(url.Values, len(r.values))
	for key, values := range r.values {
		v[key] = append([]string(nil), values...)
	}
	return v
}

// URL returns the URL of the member identified by id (or of the collection
// when id is empty) with the given query-string.
func (r *Request) URL(id string, q url.Values) string {
	return r.route.URL(id, q)
}

// QueryContext holds the query-string parameters driving collection reads.
type QueryContext struct {
	// Sort is a declared field of the kind, the identifier by default.
	Sort string
	// Order is mapper.OrderAsc or mapper.OrderDesc.
	Order string
	// Page is the 1-based page number.
	Page int
	// ItemsPerPage is the page size, never above the handler maximum.
	ItemsPerPage int
	// Fields is the projection requested with fields.
	Fields []string
	// Where is the predicate carried by q.
	Where query.Predicate
	// Hint holds the options carried by h.
	Hint query.Hint
}

// Options returns the mapper options matching the query context.
func (q QueryContext) Options() mapper.Options {
	return mapper.Options{
		Sort:   q.Sort,
		Order:  q.Order,
		Page:   q.Page,
		Limit:  q.ItemsPerPage,
		Offset: q.Hint.Offset,
		Group:  q.Hint.Group,
		Having: q.Hint.Having,
		Fields: q.Fields,
	}
}

// newRequest reads r into a Request. The body is read entirely.
func newRequest(r *http.Request, route Route, id string, k *entity.Kind, maxPerPage int) (*Request, *Error) {
	values := r.URL.Query()
	qc, err := newQueryContext(values, k, maxPerPage)
	if err != nil {
		return nil, err
	}
	req := &Request{
		Method: strings.ToUpper(r.Method),
		ID:     id,
		Query:  qc,
		Header: r.Header,
		route:  route,
		values: values,
	}
	if r.Body != nil {
		defer r.Body.Close()
		b, rerr := io.ReadAll(r.Body)
		if rerr != nil {
			return nil, &Error{http.StatusBadRequest, fmt.Sprintf("Cannot read body: %s", rerr), nil}
		}
		req.Body = b
	}
	return req, nil
}

// newQueryContext parses the query-string parameters. Values given directly
// in the query-string take precedence over those of the h hint.
func newQueryContext(values url.Values, k *entity.Kind, maxPerPage int) (QueryContext, *Error) {
	qc := QueryContext{}
	if q := values.Get("q"); q != "" {
		p, err := query.ParsePredicate(q)
		if err != nil {
			return qc, &Error{http.StatusUnprocessableEntity, fmt.Sprintf("Invalid `q` parameter: %s", err), nil}
		}
		if s := k.Schema(); s != nil {
			if err = p.Validate(*s); err != nil {
				return qc, &Error{http.StatusUnprocessableEntity, fmt.Sprintf("Invalid `q` parameter: %s", err), nil}
			}
		}
		qc.Where = p
	}
	if h := values.Get("h"); h != "" {
		hint, err := query.ParseHint(h)
		if err != nil {
			return qc, &Error{http.StatusUnprocessableEntity, fmt.Sprintf("Invalid `h` parameter: %s", err), nil}
		}
		if err = validateHint(hint, k); err != nil {
			return qc, &Error{http.StatusUnprocessableEntity, fmt.Sprintf("Invalid `h` parameter: %s", err), nil}
		}
		qc.Hint = hint
	}

	qc.Sort = firstString(values.Get("sort"), qc.Hint.Sort)
	if !sortable(k, qc.Sort) {
		qc.Sort = entity.IDField
	}
	qc.Order = strings.ToUpper(firstString(values.Get("order"), qc.Hint.Order))
	if qc.Order != mapper.OrderDesc {
		qc.Order = mapper.OrderAsc
	}

	qc.Page = firstInt(values.Get("page"), qc.Hint.Page)
	if qc.Page < 1 {
		qc.Page = 1
	}
	qc.ItemsPerPage = firstInt(values.Get("items_per_page"), qc.Hint.ItemsPerPage, qc.Hint.Limit)
	if qc.ItemsPerPage < 1 {
		qc.ItemsPerPage = DefaultItemsPerPage
	}
	if maxPerPage < 1 {
		maxPerPage = DefaultMaxItemsPerPage
	}
	if qc.ItemsPerPage > maxPerPage {
		qc.ItemsPerPage = maxPerPage
	}

	fields := qc.Hint.Fields
	if f := values.Get("fields"); f != "" {
		fields = query.SplitList(f)
	}
	for _, f := range fields {
		if k.Declares(f) {
			qc.Fields = append(qc.Fields, f)
		}
	}
	return qc, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstInt returns the first positive value, parsing s when set. An
// unparsable s is ignored.
func firstInt(s string, fallbacks ...int) int {
	if s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			return i
		}
	}
	for _, i := range fallbacks {
		if i > 0 {
			return i
		}
	}
	return 0
}

// sortable tells if name is a declared field of k allowed as a sort key.
// Kinds without a schema accept any declared attribute.
func sortable(k *entity.Kind, name string) bool {
	if name == "" || !k.Declares(name) {
		return false
	}
	if s := k.Schema(); s != nil {
		f := s.GetField(name)
		return f != nil && f.Sortable
	}
	return true
}

// validateHint checks the group fields and the having predicate of hint
// against k.
func validateHint(hint query.Hint, k *entity.Kind) error {
	for _, name := range hint.Group {
		if !k.Declares(name) {
			return fmt.Errorf("%s: unknown group field", name)
		}
	}
	if hint.Having != nil {
		if s := k.Schema(); s != nil {
			return hint.Having.Validate(*s)
		}
	}
	return nil
}
