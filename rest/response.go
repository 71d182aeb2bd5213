package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rs/halrest/entity"
)

// Content types of the responses.
const (
	ContentTypeHAL     = "application/hal+json"
	ContentTypeProblem = "application/problem+json"
)

// ResponseFormatter defines an interface responsible for formatting the
// different types of response objects.
type ResponseFormatter interface {
	// FormatEntity formats a single entity in a format ready to be
	// serialized by the ResponseSender.
	FormatEntity(ctx context.Context, headers http.Header, r *Request, e *entity.Entity, skipBody bool) (interface{}, error)
	// FormatCollection formats the current page of a collection in a format
	// ready to be serialized by the ResponseSender. The items are embedded
	// under name.
	FormatCollection(ctx context.Context, headers http.Header, r *Request, name string, c *entity.Collection, skipBody bool) (interface{}, error)
	// FormatError formats a REST formated error or a simple error in a
	// format ready to be serialized by the ResponseSender.
	FormatError(ctx context.Context, headers http.Header, err error, skipBody bool) interface{}
}

// ResponseSender defines an interface responsible for serializing and sending
// the response to the http.ResponseWriter.
type ResponseSender interface {
	// Send serialize the body, sets the given headers and write everything to
	// the provided response writer.
	Send(ctx context.Context, w http.ResponseWriter, status int, headers http.Header, body interface{})
}

// DefaultResponseFormatter renders entities and collections as HAL documents
// and errors as problem details documents.
type DefaultResponseFormatter struct{}

// DefaultResponseSender provides a base response sender to be used by
// default. This sender can easily be extended or replaced by implementing
// ResponseSender interface and setting it on Handler.ResponseSender.
type DefaultResponseSender struct{}

// Document is a HAL document. It marshals as its attributes in order,
// followed by _links and _embedded.
type Document struct {
	Attributes entity.Attributes
	Links      Links
	// EmbeddedName is the key of the embedded documents, none are rendered
	// when empty.
	EmbeddedName string
	Embedded     []*Document
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	first := true
	write := func(key string, value interface{}) error {
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%s: %v", key, err)
		}
		k, _ := json.Marshal(key)
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	for _, a := range d.Attributes {
		if err := write(a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	if err := write("_links", d.Links); err != nil {
		return nil, err
	}
	if d.EmbeddedName != "" {
		embedded := d.Embedded
		if embedded == nil {
			embedded = []*Document{}
		}
		if err := write("_embedded", map[string][]*Document{d.EmbeddedName: embedded}); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Problem is a RFC 7807 problem details document. Validation failures carry
// their per field messages in Messages.
type Problem struct {
	Type     string                   `json:"type"`
	Title    string                   `json:"title"`
	Status   int                      `json:"status"`
	Detail   string                   `json:"detail,omitempty"`
	Messages map[string][]interface{} `json:"messages,omitempty"`
}

// Send sends headers with the given status and marshal the data in JSON.
func (s DefaultResponseSender) Send(ctx context.Context, w http.ResponseWriter, status int, headers http.Header, body interface{}) {
	if body != nil && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}
	// Apply headers to the response
	for key, values := range headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	if body == nil {
		w.WriteHeader(status)
		return
	}
	j, err := json.Marshal(body)
	if err != nil {
		logErrorf(ctx, "Can't build response: %v", err)
		w.Header().Set("Content-Type", ContentTypeProblem)
		w.WriteHeader(http.StatusInternalServerError)
		j, _ = json.Marshal(Problem{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusInternalServerError),
			Status: http.StatusInternalServerError,
			Detail: fmt.Sprintf("Can't build response: %s", err),
		})
		w.Write(j)
		return
	}
	w.WriteHeader(status)
	if _, err = w.Write(j); err != nil {
		logErrorf(ctx, "Can't send response: %v", err)
	}
}

// FormatEntity implements ResponseFormatter.
func (f DefaultResponseFormatter) FormatEntity(ctx context.Context, headers http.Header, r *Request, e *entity.Entity, skipBody bool) (interface{}, error) {
	headers.Set("Content-Type", ContentTypeHAL)
	if skipBody {
		return nil, nil
	}
	return entityDocument(r, e), nil
}

// FormatCollection implements ResponseFormatter.
func (f DefaultResponseFormatter) FormatCollection(ctx context.Context, headers http.Header, r *Request, name string, c *entity.Collection, skipBody bool) (interface{}, error) {
	total, err := c.TotalItemCount(ctx)
	if err != nil {
		return nil, err
	}
	pageCount, err := c.PageCount(ctx)
	if err != nil {
		return nil, err
	}
	var items []*entity.Entity
	if !skipBody {
		if items, err = c.CurrentItems(ctx); err != nil {
			return nil, err
		}
	}
	headers.Set("Content-Type", ContentTypeHAL)
	headers.Set("X-Total", strconv.Itoa(total))
	if skipBody {
		return nil, nil
	}
	page := c.CurrentPageNumber()
	d := &Document{
		Attributes: entity.Attributes{
			{Name: "page_count", Value: pageCount},
			{Name: "page_size", Value: c.ItemCountPerPage()},
			{Name: "total_items", Value: total},
			{Name: "page", Value: page},
		},
		Links:        collectionLinks(r, page, pageCount),
		EmbeddedName: name,
		Embedded:     make([]*Document, 0, len(items)),
	}
	for _, e := range items {
		d.Embedded = append(d.Embedded, entityDocument(r, e))
	}
	return d, nil
}

// FormatError implements ResponseFormatter.
func (f DefaultResponseFormatter) FormatError(ctx context.Context, headers http.Header, err error, skipBody bool) interface{} {
	e := NewError(err)
	if e == nil {
		e = ErrInternal
	}
	if e.Code >= 500 {
		logErrorf(ctx, "Server error: %v", err)
	}
	headers.Set("Content-Type", ContentTypeProblem)
	if skipBody {
		return nil
	}
	title := http.StatusText(e.Code)
	if title == "" {
		title = e.Message
	}
	return Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   e.Code,
		Detail:   e.Message,
		Messages: e.Issues,
	}
}

func entityDocument(r *Request, e *entity.Entity) *Document {
	return &Document{
		Attributes: e.Attributes(),
		Links:      entityLinks(r, e.ID()),
	}
}

// formatResponse routes the type of response on the right ResponseFormatter
// method. It returns the final status and body.
func formatResponse(ctx context.Context, f ResponseFormatter, headers http.Header, r *Request, name string, status int, res interface{}, skipBody bool) (int, interface{}) {
	var (
		body interface{}
		err  error
	)
	switch res := res.(type) {
	case *entity.Entity:
		if res == nil {
			err = fmt.Errorf("%w: nil entity", ErrInternal)
			break
		}
		body, err = f.FormatEntity(ctx, headers, r, res, skipBody)
	case *entity.Collection:
		if res == nil {
			err = fmt.Errorf("%w: nil collection", ErrInternal)
			break
		}
		body, err = f.FormatCollection(ctx, headers, r, name, res, skipBody)
	case *Response:
		for key, values := range res.Header {
			for _, value := range values {
				headers.Add(key, value)
			}
		}
		if res.Status != 0 {
			status = res.Status
		}
		if !skipBody {
			body = res.Body
		}
	case nil:
		// No content.
	case error:
		err = res
	default:
		err = fmt.Errorf("%w: cannot render %T", ErrInternal, res)
	}
	if err != nil {
		e := NewError(err)
		return e.Code, f.FormatError(ctx, headers, err, skipBody)
	}
	return status, body
}

// logErrorf logs an error message in the context logger.
func logErrorf(ctx context.Context, format string, a ...interface{}) {
	zerolog.Ctx(ctx).Error().Msgf(format, a...)
}
