package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-wrapped-backend/internal/utils"
)

// SortDirection orders a page by its timestamp key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Page size bounds.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest selects one page of a timestamp-ordered listing.
//
// Cursor is the opaque value returned as NextCursor by the previous page. An
// empty or malformed cursor starts from the beginning; it is never an error.
type PageRequest struct {
	Limit  int
	Cursor string
	Sort   SortDirection
}

// Page is one slice of a listing plus the token for the next slice.
type Page[T any] struct {
	Items       []T     `json:"items"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// normalize clamps Limit into [1, MaxPageLimit] and defaults Sort to desc.
func (r PageRequest) normalize() PageRequest {
	switch {
	case r.Limit <= 0:
		r.Limit = DefaultPageLimit
	case r.Limit > MaxPageLimit:
		r.Limit = MaxPageLimit
	}
	if r.Sort != SortAsc {
		r.Sort = SortDesc
	}
	return r
}

// Paginate reads one page of T from q ordered by column, using keyset
// pagination on that timestamp column.
//
// Algorithm:
//  1. If req.Cursor decodes to a timestamp, filter column > cursor (asc) or
//     column < cursor (desc).
//  2. Fetch Limit+1 rows ordered by column in the requested direction.
//  3. If more than Limit rows came back, truncate to Limit and emit the key
//     of the last kept row as NextCursor.
//
// key extracts the ordering value from a row; it must read the same field
// as column. Rows sharing an identical timestamp have no defined relative
// order, and a page boundary falling inside such a group can skip rows.
// Timestamps are stored at millisecond precision, which keeps this rare.
func Paginate[T any](ctx context.Context, q *gorm.DB, column string, key func(T) time.Time, req PageRequest) (Page[T], error) {
	req = req.normalize()
	col := clause.Column{Name: column}

	tx := q.WithContext(ctx)
	if ts, ok := utils.DecodeCursor(req.Cursor); ok {
		if req.Sort == SortAsc {
			tx = tx.Where(clause.Gt{Column: col, Value: ts})
		} else {
			tx = tx.Where(clause.Lt{Column: col, Value: ts})
		}
	}

	var rows []T
	err := tx.
		Order(clause.OrderByColumn{Column: col, Desc: req.Sort == SortDesc}).
		Limit(req.Limit + 1).
		Find(&rows).Error
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{Items: rows}
	if len(rows) > req.Limit {
		page.Items = rows[:req.Limit]
		page.HasNextPage = true
		next := utils.EncodeCursor(key(page.Items[len(page.Items)-1]))
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}
