/*
Package rest is a net/http handler dispatching REST requests to the hooks of a
Resource and rendering their results as HAL documents.

A request is routed on its verb and on the presence of an identifier in the
URL:

	verb     /name/{id}    /name
	GET      Fetch         FetchAll
	POST     405           Create (201)
	PUT      Update        UpdateList
	PATCH    Patch         PatchList
	DELETE   Delete (204)  DeleteList (204)
	HEAD     Head          Head
	OPTIONS  Options       Options

Every hook of the NotAllowed type fails with ErrMethodNotAllowed so a resource
embedding it only implements the operations it supports:

	type users struct {
		rest.NotAllowed
		kind *entity.Kind
	}

	func (u users) Fetch(ctx context.Context, r *rest.Request) (*entity.Entity, error) {
		...
	}

MapperResource is a complete resource on top of a mapper.Mapper.

Bodies of POST, PUT and PATCH requests are validated against the kind schema
before reaching the hooks. PATCH bodies are validated partially: only the
submitted keys are checked.

Collections are rendered with their pagination metadata (page_count,
page_size, total_items and page) and first, previous, next and last links.
*/
package rest
