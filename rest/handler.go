package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/halrest/entity"
)

// Handler is a net/http compatible handler serving a single resource on its
// collection and member routes.
type Handler struct {
	// ResponseFormatter can be changed to extend the DefaultResponseFormatter.
	ResponseFormatter ResponseFormatter
	// ResponseSender can be changed to extend the DefaultResponseSender.
	ResponseSender ResponseSender
	// RequestTimeout is the default timeout for requests after which the
	// whole request is abandoned. The default value is no timeout.
	RequestTimeout time.Duration
	// MaxItemsPerPage caps the items_per_page parameter. DefaultMaxItemsPerPage
	// is used when not set.
	MaxItemsPerPage int
	// ID extracts the member identifier from the request. The chi "id" route
	// parameter is used by default.
	ID func(r *http.Request) string

	resource Resource
	name     string
	route    Route
}

// NewHandler creates a handler serving res with its collection at path. A
// resource returning an empty name is named after its type (see
// ResourceName).
func NewHandler(res Resource, path string) (*Handler, error) {
	if res == nil {
		return nil, errors.New("rest: nil resource")
	}
	name := res.Name()
	if name == "" {
		name = ResourceName(res)
	}
	if res.Kind() == nil {
		return nil, fmt.Errorf("rest: %s: resource has no kind", name)
	}
	if name == "" {
		return nil, errors.New("rest: resource has no name")
	}
	h := &Handler{
		ResponseFormatter: DefaultResponseFormatter{},
		ResponseSender:    DefaultResponseSender{},
		MaxItemsPerPage:   DefaultMaxItemsPerPage,
		ID:                chiID,
		resource:          res,
		name:              name,
		route:             NewRoute(path),
	}
	return h, nil
}

// Name returns the name of the served resource, used as the key of embedded
// collections.
func (h *Handler) Name() string {
	return h.name
}

// Route returns the route of the served resource.
func (h *Handler) Route() Route {
	return h.route
}

// getTimeout get request timeout info from request or server config
func (h *Handler) getTimeout(r *http.Request) (time.Duration, error) {
	// If timeout is passed as argument, use it's value over default timeout
	if t := r.URL.Query().Get("timeout"); t != "" {
		return time.ParseDuration(t)
	}
	// Fallback on default timeout
	return h.RequestTimeout, nil
}

// getContext derives the request context with the timeout given in the
// request or the handler configuration. The request context is canceled as
// soon as the client connection is closed.
func (h *Handler) getContext(r *http.Request) (context.Context, context.CancelFunc, *Error) {
	timeout, err := h.getTimeout(r)
	if err != nil {
		return nil, nil, &Error{422, fmt.Sprintf("Cannot parse timeout parameter: %s", err), nil}
	}
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithCancel(r.Context())
	return ctx, cancel, nil
}

// ServeHTTP handle requests as a http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Skip body if method is HEAD
	skipBody := r.Method == http.MethodHead
	headers := http.Header{}
	ctx, cancel, err := h.getContext(r)
	if err != nil {
		body := h.ResponseFormatter.FormatError(r.Context(), headers, err, skipBody)
		h.ResponseSender.Send(r.Context(), w, err.Code, headers, body)
		return
	}
	defer cancel()

	id := ""
	if h.ID != nil {
		id = h.ID(r)
	}
	req, err := newRequest(r, h.route, id, h.resource.Kind(), h.MaxItemsPerPage)
	if err != nil {
		body := h.ResponseFormatter.FormatError(ctx, headers, err, skipBody)
		h.ResponseSender.Send(ctx, w, err.Code, headers, body)
		return
	}

	status, res, derr := h.Dispatch(ctx, req)
	if derr != nil {
		res = derr
	} else if e, ok := res.(*entity.Entity); ok && e != nil && status == http.StatusCreated {
		headers.Set("Location", h.route.URL(idString(e.ID()), nil))
	}
	status, body := formatResponse(ctx, h.ResponseFormatter, headers, req, h.name, status, res, skipBody)
	h.ResponseSender.Send(ctx, w, status, headers, body)
}

// Dispatch selects the hook of the resource matching the verb of r and the
// presence of an identifier, and calls it. Bodies of POST, PUT and PATCH
// requests are validated first.
//
// The returned result is an *entity.Entity, an *entity.Collection, a
// *Response or nil, to be sent with status.
func (h *Handler) Dispatch(ctx context.Context, r *Request) (status int, result interface{}, err error) {
	res := h.resource
	switch r.Method {
	case http.MethodGet:
		if r.HasID() {
			return entityResult(http.StatusOK)(res.Fetch(ctx, r))
		}
		return collectionResult(res.FetchAll(ctx, r))
	case http.MethodPost:
		if r.HasID() {
			return 0, nil, ErrEntityMethodNotAllowed
		}
		data, err := validateBody(res.Kind(), r.Method, r.Body)
		if err != nil {
			return 0, nil, err
		}
		return entityResult(http.StatusCreated)(res.Create(ctx, r, data))
	case http.MethodPut, http.MethodPatch:
		data, err := validateBody(res.Kind(), r.Method, r.Body)
		if err != nil {
			return 0, nil, err
		}
		if r.Method == http.MethodPut {
			if r.HasID() {
				return entityResult(http.StatusOK)(res.Update(ctx, r, data))
			}
			return collectionResult(res.UpdateList(ctx, r, data))
		}
		if r.HasID() {
			return entityResult(http.StatusOK)(res.Patch(ctx, r, data))
		}
		return collectionResult(res.PatchList(ctx, r, data))
	case http.MethodDelete:
		if r.HasID() {
			err = res.Delete(ctx, r)
		} else {
			err = res.DeleteList(ctx, r)
		}
		if err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, nil
	case http.MethodHead:
		return responseResult(res.Head(ctx, r))
	case http.MethodOptions:
		return responseResult(res.Options(ctx, r))
	default:
		return 0, nil, ErrMethodNotAllowed
	}
}

func entityResult(status int) func(*entity.Entity, error) (int, interface{}, error) {
	return func(e *entity.Entity, err error) (int, interface{}, error) {
		if err != nil {
			return 0, nil, err
		}
		return status, e, nil
	}
}

func collectionResult(c *entity.Collection, err error) (int, interface{}, error) {
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, c, nil
}

func responseResult(resp *Response, err error) (int, interface{}, error) {
	if err != nil {
		return 0, nil, err
	}
	if resp == nil {
		return http.StatusOK, nil, nil
	}
	return http.StatusOK, resp, nil
}
