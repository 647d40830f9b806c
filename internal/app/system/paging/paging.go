// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the default number of rows returned by paged lists.
const PageSize = 50

// MaxPageSize caps the limit a client may ask for.
const MaxPageSize = 200

// ParseLimit reads the "limit" query parameter, defaulting to PageSize and
// clamping to 1..MaxPageSize.
func ParseLimit(r *http.Request) int {
	s := query.Get(r, "limit")
	if s == "" {
		return PageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ParseBefore reads the "before" keyset cursor, an ObjectID hex string.
// ok is false when absent; err is set when present but malformed.
func ParseBefore(r *http.Request) (id primitive.ObjectID, ok bool, err error) {
	s := query.Get(r, "before")
	if s == "" {
		return primitive.NilObjectID, false, nil
	}
	id, err = primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return id, true, nil
}

// LimitPlusOne returns limit+1 for look-ahead paging (fetch one extra row to
// learn whether another page exists).
func LimitPlusOne(limit int) int64 { return int64(limit + 1) }

// Result describes the page after trimming.
type Result struct {
	HasNext bool   `json:"has_next"`
	Next    string `json:"next,omitempty"` // pass as ?before= for the next page
}

// TrimPage trims rows fetched with LimitPlusOne back to limit and builds the
// cursor for the next (older) page from the last kept row.
func TrimPage[T any](rows *[]T, limit int, idFn func(T) primitive.ObjectID) Result {
	if len(*rows) <= limit {
		return Result{}
	}
	*rows = (*rows)[:limit]
	last := (*rows)[limit-1]
	return Result{HasNext: true, Next: idFn(last).Hex()}
}
