package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/domain"
	"github.com/tbourn/go-wrapped-backend/internal/utils"
)

var paginateBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// seedWrapped inserts n records with strictly increasing created_at (one
// second apart) and returns their slugs in ascending order.
func seedWrapped(t *testing.T, db *gorm.DB, n int) []string {
	t.Helper()
	slugs := make([]string, n)
	for i := 0; i < n; i++ {
		w := newWrapped(fmt.Sprintf("w_%03d", i))
		w.CreatedAt = paginateBase.Add(time.Duration(i) * time.Second)
		require.NoError(t, CreateWrapped(context.Background(), db, w))
		slugs[i] = w.Slug
	}
	return slugs
}

func slugsOf(items []domain.Wrapped) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.Slug
	}
	return out
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func TestPaginate_FirstPageDescending(t *testing.T) {
	db := newTestDB(t)
	asc := seedWrapped(t, db, 7)

	for _, limit := range []int{1, 3, 7, 10} {
		page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: limit, Sort: SortDesc})
		require.NoError(t, err)

		want := min(limit, len(asc))
		require.Len(t, page.Items, want, "limit=%d", limit)
		assert.Equal(t, reversed(asc)[:want], slugsOf(page.Items))
		assert.Equal(t, len(asc) > limit, page.HasNextPage, "limit=%d", limit)
		if page.HasNextPage {
			require.NotNil(t, page.NextCursor)
		} else {
			assert.Nil(t, page.NextCursor)
		}
	}
}

func TestPaginate_RoundTripCoversEverythingOnce(t *testing.T) {
	db := newTestDB(t)
	asc := seedWrapped(t, db, 23)

	for _, dir := range []SortDirection{SortAsc, SortDesc} {
		for _, limit := range []int{1, 4, 5, 22, 23, 100} {
			var got []string
			cursor := ""
			for pages := 0; ; pages++ {
				require.Less(t, pages, 100, "runaway pagination")
				page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: limit, Cursor: cursor, Sort: dir})
				require.NoError(t, err)
				got = append(got, slugsOf(page.Items)...)
				if page.NextCursor == nil {
					assert.False(t, page.HasNextPage)
					break
				}
				assert.True(t, page.HasNextPage)
				cursor = *page.NextCursor
			}

			want := asc
			if dir == SortDesc {
				want = reversed(asc)
			}
			assert.Equal(t, want, got, "dir=%s limit=%d", dir, limit)
		}
	}
}

func TestPaginate_LimitClampAndDefaults(t *testing.T) {
	db := newTestDB(t)
	seedWrapped(t, db, 25)

	page, err := ListWrappedPage(context.Background(), db, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Items, DefaultPageLimit)
	assert.Equal(t, "w_024", page.Items[0].Slug, "default sort is descending")

	page, err = ListWrappedPage(context.Background(), db, PageRequest{Limit: 1000, Sort: "sideways"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 25)
	assert.False(t, page.HasNextPage)
}

func TestPaginate_InvalidCursorIsIgnored(t *testing.T) {
	db := newTestDB(t)
	seedWrapped(t, db, 3)

	page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: 10, Cursor: "definitely-not-a-cursor", Sort: SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"w_000", "w_001", "w_002"}, slugsOf(page.Items))
}

func TestPaginate_CursorIsExclusive(t *testing.T) {
	db := newTestDB(t)
	seedWrapped(t, db, 5)

	cursor := utils.EncodeCursor(paginateBase.Add(2 * time.Second))
	page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: 10, Cursor: cursor, Sort: SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"w_003", "w_004"}, slugsOf(page.Items))

	page, err = ListWrappedPage(context.Background(), db, PageRequest{Limit: 10, Cursor: cursor, Sort: SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"w_001", "w_000"}, slugsOf(page.Items))
}

func TestPaginate_EmptyCollection(t *testing.T) {
	db := newTestDB(t)
	page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNextPage)
	assert.Nil(t, page.NextCursor)
}

func TestPaginate_MillisecondKeysStayDistinct(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 6; i++ {
		w := newWrapped(fmt.Sprintf("w_ms%d", i))
		w.CreatedAt = paginateBase.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, CreateWrapped(context.Background(), db, w))
	}

	var got []string
	cursor := ""
	for {
		page, err := ListWrappedPage(context.Background(), db, PageRequest{Limit: 2, Cursor: cursor, Sort: SortAsc})
		require.NoError(t, err)
		got = append(got, slugsOf(page.Items)...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Equal(t, []string{"w_ms0", "w_ms1", "w_ms2", "w_ms3", "w_ms4", "w_ms5"}, got)
}
