package rest

import (
	"context"
	"net/http"

	"github.com/rs/halrest/entity"
)

// Resource is a REST resource served by a Handler.
//
// Data passed to Create, Update, UpdateList, Patch and PatchList is the
// validated and coerced body of the request. Hooks report domain failures by
// returning one of the package errors (i.e.: ErrNotFound); any other error is
// translated with NewError.
type Resource interface {
	// Name is the key used to embed the items of a collection.
	Name() string
	// Kind describes the entities exposed by the resource.
	Kind() *entity.Kind

	Fetch(ctx context.Context, r *Request) (*entity.Entity, error)
	FetchAll(ctx context.Context, r *Request) (*entity.Collection, error)
	Create(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error)
	Update(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error)
	UpdateList(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Collection, error)
	Patch(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error)
	PatchList(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Collection, error)
	Delete(ctx context.Context, r *Request) error
	DeleteList(ctx context.Context, r *Request) error
	Head(ctx context.Context, r *Request) (*Response, error)
	Options(ctx context.Context, r *Request) (*Response, error)
}

// Response is a raw response returned by the Head and Options hooks.
type Response struct {
	Status int
	Header http.Header
	// Body is sent as is, nil means no body.
	Body interface{}
}

// NotAllowed implements every hook of Resource by failing with
// ErrMethodNotAllowed. Embed it and override the supported hooks.
type NotAllowed struct{}

// Fetch implements Resource.
func (NotAllowed) Fetch(ctx context.Context, r *Request) (*entity.Entity, error) {
	return nil, ErrMethodNotAllowed
}

// FetchAll implements Resource.
func (NotAllowed) FetchAll(ctx context.Context, r *Request) (*entity.Collection, error) {
	return nil, ErrMethodNotAllowed
}

// Create implements Resource.
func (NotAllowed) Create(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	return nil, ErrMethodNotAllowed
}

// Update implements Resource.
func (NotAllowed) Update(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	return nil, ErrMethodNotAllowed
}

// UpdateList implements Resource.
func (NotAllowed) UpdateList(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Collection, error) {
	return nil, ErrMethodNotAllowed
}

// Patch implements Resource.
func (NotAllowed) Patch(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Entity, error) {
	return nil, ErrMethodNotAllowed
}

// PatchList implements Resource.
func (NotAllowed) PatchList(ctx context.Context, r *Request, data map[string]interface{}) (*entity.Collection, error) {
	return nil, ErrMethodNotAllowed
}

// Delete implements Resource.
func (NotAllowed) Delete(ctx context.Context, r *Request) error {
	return ErrMethodNotAllowed
}

// DeleteList implements Resource.
func (NotAllowed) DeleteList(ctx context.Context, r *Request) error {
	return ErrMethodNotAllowed
}

// Head implements Resource.
func (NotAllowed) Head(ctx context.Context, r *Request) (*Response, error) {
	return nil, ErrMethodNotAllowed
}

// Options implements Resource.
func (NotAllowed) Options(ctx context.Context, r *Request) (*Response, error) {
	return nil, ErrMethodNotAllowed
}
