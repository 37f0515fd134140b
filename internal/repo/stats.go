// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the admin
// statistics endpoint. Independent aggregates run concurrently through an
// errgroup sharing one context; the first failure cancels the rest.
package repo

import (
	"context"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/domain"
)

// StatsTopN caps the "top" lists.
const StatsTopN = 10

// StatsDays is the length of the daily creation series.
const StatsDays = 30

// KeyCount is one bucket of a grouped count.
type KeyCount struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int64  `json:"count"`
}

// DayCount is one day of the creation time series (UTC date, YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// WrappedStats aggregates all wrapped records.
type WrappedStats struct {
	Total          int64      `json:"total"`
	Premium        int64      `json:"premium"`
	Last24h        int64      `json:"last24h"`
	Last7d         int64      `json:"last7d"`
	ByRelationship []KeyCount `json:"byRelationship"`
	TopThemes      []KeyCount `json:"topThemes"`
	TopMusic       []KeyCount `json:"topMusic"`
	TopEmotions    []KeyCount `json:"topEmotions"`
	ByYear         []KeyCount `json:"byYear"`
	Daily          []DayCount `json:"daily"`
}

// ComputeWrappedStats runs every aggregate against db. now anchors the
// relative windows (last 24h, last 7d, daily series).
func ComputeWrappedStats(ctx context.Context, db *gorm.DB, now time.Time) (*WrappedStats, error) {
	now = now.UTC()
	out := &WrappedStats{}
	g, gctx := errgroup.WithContext(ctx)

	model := func() *gorm.DB { return db.WithContext(gctx).Model(&domain.Wrapped{}) }

	g.Go(func() error { return model().Count(&out.Total).Error })
	g.Go(func() error { return model().Where("is_premium = ?", true).Count(&out.Premium).Error })
	g.Go(func() error {
		return model().Where("created_at >= ?", now.Add(-24*time.Hour)).Count(&out.Last24h).Error
	})
	g.Go(func() error {
		return model().Where("created_at >= ?", now.Add(-7*24*time.Hour)).Count(&out.Last7d).Error
	})
	g.Go(func() (err error) {
		out.ByRelationship, err = groupCount(model(), "relationship", 0)
		return err
	})
	g.Go(func() (err error) {
		out.TopThemes, err = groupCount(model(), "accent_theme", StatsTopN)
		return err
	})
	g.Go(func() (err error) {
		out.TopMusic, err = groupCount(model(), "bg_music", StatsTopN)
		return err
	})
	g.Go(func() (err error) {
		out.ByYear, err = countByYear(model())
		return err
	})
	g.Go(func() (err error) {
		out.TopEmotions, err = topEmotions(model(), StatsTopN)
		return err
	})
	g.Go(func() (err error) {
		out.Daily, err = dailySeries(model(), now, StatsDays)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type groupRow struct {
	K string `gorm:"column:k"`
	N int64  `gorm:"column:n"`
}

// groupCount groups by a trusted column name, largest first. limit <= 0
// returns every group.
func groupCount(q *gorm.DB, column string, limit int) ([]KeyCount, error) {
	var rows []groupRow
	q = q.Select(column + " AS k, COUNT(*) AS n").Group(column).Order("n DESC").Order(column)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, KeyCount{Key: r.K, Count: r.N})
	}
	return out, nil
}

func countByYear(q *gorm.DB) ([]KeyCount, error) {
	var rows []struct {
		Year int   `gorm:"column:year"`
		N    int64 `gorm:"column:n"`
	}
	if err := q.Select("year, COUNT(*) AS n").Group("year").Order("year DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, KeyCount{Key: strconv.Itoa(r.Year), Count: r.N})
	}
	return out, nil
}

// topEmotions tallies emotion ids across the JSON top_emotions column. The
// column is decoded in Go so the query stays portable across SQLite and
// PostgreSQL.
func topEmotions(q *gorm.DB, limit int) ([]KeyCount, error) {
	counts := map[string]int64{}
	var batch []domain.Wrapped
	res := q.Select("id", "top_emotions").
		Where("top_emotions IS NOT NULL").
		FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
			for _, w := range batch {
				for _, e := range w.TopEmotions {
					if e.ID != "" {
						counts[e.ID]++
					}
				}
			}
			return nil
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return topCounts(counts, limit), nil
}

func topCounts(counts map[string]int64, limit int) []KeyCount {
	out := make([]KeyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeyCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dailySeries counts creations per UTC day for the last days days, oldest
// first, including empty days.
func dailySeries(q *gorm.DB, now time.Time, days int) ([]DayCount, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	var stamps []time.Time
	if err := q.Where("created_at >= ?", start).Pluck("created_at", &stamps).Error; err != nil {
		return nil, err
	}

	index := make(map[string]int, days)
	out := make([]DayCount, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DayCount{Date: d}
		index[d] = i
	}
	for _, ts := range stamps {
		if i, ok := index[ts.UTC().Format(time.DateOnly)]; ok {
			out[i].Count++
		}
	}
	return out, nil
}
