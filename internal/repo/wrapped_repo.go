// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Wrapped
// model.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no validation or defaults, only persistence
// and query composition.
//
// Error semantics:
//   - A missing wrapped yields ErrNotFound (gorm.ErrRecordNotFound).
//   - A slug collision on insert yields ErrDuplicate.
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/domain"
)

// CreateWrapped inserts w. ID is assigned when empty and timestamps are set
// to the current UTC time at millisecond precision when zero.
func CreateWrapped(ctx context.Context, db *gorm.DB, w *domain.Wrapped) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	} else {
		w.CreatedAt = w.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = w.CreatedAt
	}
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetWrappedBySlug fetches a wrapped by its public slug.
func GetWrappedBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Wrapped, error) {
	var w domain.Wrapped
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWrappedPage returns one created_at-ordered page of all wrapped.
func ListWrappedPage(ctx context.Context, db *gorm.DB, req PageRequest) (Page[domain.Wrapped], error) {
	return Paginate(ctx, db.Model(&domain.Wrapped{}), "created_at",
		func(w domain.Wrapped) time.Time { return w.CreatedAt }, req)
}

// GetWrappedByID fetches a wrapped by its primary key.
func GetWrappedByID(ctx context.Context, db *gorm.DB, id string) (*domain.Wrapped, error) {
	var w domain.Wrapped
	err := db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
