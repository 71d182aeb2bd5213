package rest

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// IDParam is the name of the route parameter holding the member identifier.
const IDParam = "id"

// Route locates a resource: Path is the full path of its collection (i.e.:
// /api/users), members live under Path/{id}.
type Route struct {
	Path string
}

// NewRoute returns the route of the collection at path.
func NewRoute(path string) Route {
	path = "/" + strings.Trim(path, "/")
	return Route{Path: path}
}

// URL generates the URL of the member id, or of the collection when id is
// empty, with q as query-string.
func (rt Route) URL(id string, q url.Values) string {
	u := rt.Path
	if id != "" {
		u = strings.TrimSuffix(u, "/") + "/" + url.PathEscape(id)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Mount registers h on r for both the collection and the member routes of
// the handler resource.
func Mount(r chi.Router, h *Handler) {
	r.Handle(h.route.Path, h)
	r.Handle(strings.TrimSuffix(h.route.Path, "/")+"/{"+IDParam+"}", h)
}

// chiID reads the member identifier from the chi route context.
func chiID(r *http.Request) string {
	return chi.URLParam(r, IDParam)
}
