package rest

import (
	"fmt"
	"net/url"
	"strconv"
)

// Link is a HAL link.
type Link struct {
	Href string `json:"href"`
}

// Links are the navigation links of a document. Unset links are omitted.
type Links struct {
	Self     *Link `json:"self,omitempty"`
	First    *Link `json:"first,omitempty"`
	Previous *Link `json:"previous,omitempty"`
	Next     *Link `json:"next,omitempty"`
	Last     *Link `json:"last,omitempty"`
}

// collectionParams are the query-string parameters meaningless on a member.
var collectionParams = []string{"page", "sort", "order"}

// entityLinks returns the links of the member id: its self link keeps the
// request query-string minus the collection parameters.
func entityLinks(r *Request, id interface{}) Links {
	q := r.Values()
	for _, p := range collectionParams {
		q.Del(p)
	}
	return Links{Self: &Link{Href: r.URL(idString(id), q)}}
}

// collectionLinks returns the links of a collection page. The page parameter
// is omitted whenever it designates the first page, except on self which
// mirrors the request.
func collectionLinks(r *Request, page, pageCount int) Links {
	l := Links{Self: &Link{Href: r.URL("", r.Values())}}
	if page > 1 {
		l.First = &Link{Href: r.URL("", withPage(r.Values(), 1))}
		l.Previous = &Link{Href: r.URL("", withPage(r.Values(), page-1))}
	}
	if page < pageCount {
		l.Next = &Link{Href: r.URL("", withPage(r.Values(), page+1))}
	}
	if pageCount > 1 {
		l.Last = &Link{Href: r.URL("", withPage(r.Values(), pageCount))}
	}
	return l
}

func withPage(q url.Values, page int) url.Values {
	if page <= 1 {
		q.Del("page")
		return q
	}
	q.Set("page", strconv.Itoa(page))
	return q
}

func idString(id interface{}) string {
	switch id := id.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
