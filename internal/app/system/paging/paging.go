// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps a client-supplied ?limit.
const MaxPageSize = 200

// Page is a keyset window over records ordered by ascending id: the rows
// after id After, at most Limit of them.
type Page struct {
	After ident.ID
	Limit int
}

// First is the first page at the default size.
func First() Page { return Page{Limit: PageSize} }

// Parse reads ?after= and ?limit= from the query string. Missing or invalid
// values fall back to the first page and PageSize.
func Parse(r *http.Request) Page {
	p := First()
	if id, ok := ident.Parse(query.Get(r, "after")); ok {
		p.After = id
	}
	if n, err := strconv.Atoi(query.Get(r, "limit")); err == nil && n > 0 {
		p.Limit = min(n, MaxPageSize)
	}
	return p
}

// LimitPlusOne returns Limit+1 for look-ahead pagination (fetch one extra
// document to detect a next page).
func (p Page) LimitPlusOne() int64 {
	if p.Limit <= 0 {
		return int64(PageSize + 1)
	}
	return int64(p.Limit + 1)
}

// Apply adds the keyset window to filter and returns find options sorted by
// _id with the look-ahead limit.
func (p Page) Apply(filter bson.M) (bson.M, *options.FindOptions) {
	if filter == nil {
		filter = bson.M{}
	}
	if !p.After.IsZero() {
		filter["_id"] = bson.M{"$gt": int64(p.After)}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(p.LimitPlusOne())
	return filter, opts
}

// Result describes a trimmed page.
type Result struct {
	HasNext bool     `json:"has_next"`
	Next    ident.ID `json:"next_after,omitempty"`
}

// Trim cuts rows fetched with LimitPlusOne down to the page size and reports
// whether another page exists. idFn returns a row's id for the next cursor.
func Trim[T any](rows *[]T, p Page, idFn func(T) ident.ID) Result {
	limit := p.Limit
	if limit <= 0 {
		limit = PageSize
	}
	if len(*rows) <= limit {
		return Result{}
	}
	*rows = (*rows)[:limit]
	return Result{HasNext: true, Next: idFn((*rows)[limit-1])}
}
