package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/domain"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
	"github.com/tbourn/go-wrapped-backend/internal/utils"
)

// IdempotencyScope namespaces idempotency keys of the create operation.
const IdempotencyScope = "wrapped:create"

// DefaultSlugAttempts bounds slug regeneration after a collision.
const DefaultSlugAttempts = 3

// CreateParams carries a validated create request.
type CreateParams struct {
	// OwnerID is the creator's anonymous tracking id.
	OwnerID string
	// IdempotencyKey, when set, makes retries return the first result.
	IdempotencyKey string
	// Wrapped holds the client-supplied fields. Identity, slug, owner and
	// timestamps are assigned by Create.
	Wrapped domain.Wrapped
}

// WrappedService implements create, read, list and stats for wrapped records.
type WrappedService struct {
	DB *gorm.DB

	// IdempotencyTTL is how long a create can be replayed by key.
	IdempotencyTTL time.Duration
	// SlugAttempts bounds retries after a slug collision.
	SlugAttempts int

	now     func() time.Time
	newSlug func() (string, error)
}

// NewWrappedService returns a service with default slug generation.
func NewWrappedService(db *gorm.DB, idemTTL time.Duration) *WrappedService {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &WrappedService{
		DB:             db,
		IdempotencyTTL: idemTTL,
		SlugAttempts:   DefaultSlugAttempts,
		now:            time.Now,
		newSlug:        utils.NewSlug,
	}
}

// Create stores a new wrapped and reports whether the result is a replay of
// an earlier request with the same idempotency key.
//
// Missing accent theme and background music fall back to their defaults and
// a zero year becomes the current year. A slug collision is retried with a
// fresh slug; when every attempt collides the request fails with Conflict.
func (s *WrappedService) Create(ctx context.Context, p CreateParams) (*domain.Wrapped, bool, error) {
	ctx, span := otel.Tracer("services/WrappedService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("owner.id", p.OwnerID),
			attribute.Bool("idempotent", p.IdempotencyKey != ""),
		),
	)
	defer span.End()

	if p.IdempotencyKey != "" {
		if w, err := s.replay(ctx, p.OwnerID, p.IdempotencyKey); err != nil || w != nil {
			return w, w != nil, fail(span, err)
		}
	}

	w := p.Wrapped
	s.applyDefaults(&w)
	w.UserID = p.OwnerID

	attempts := s.SlugAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		slug, err := s.newSlug()
		if err != nil {
			return nil, false, fail(span, classify(err, ""))
		}
		w.ID, w.Slug = "", slug
		w.CreatedAt, w.UpdatedAt = time.Time{}, time.Time{}

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.CreateWrapped(ctx, tx, &w); err != nil {
				return err
			}
			if p.IdempotencyKey == "" {
				return nil
			}
			_, err := repo.CreateIdempotency(ctx, tx, p.OwnerID, IdempotencyScope, p.IdempotencyKey, w.ID, 201, s.IdempotencyTTL)
			if errors.Is(err, repo.ErrDuplicate) {
				return errIdempotencyRace
			}
			return err
		})
		switch {
		case err == nil:
			span.SetAttributes(attribute.String("wrapped.slug", w.Slug))
			return &w, false, nil
		case errors.Is(err, errIdempotencyRace):
			// A concurrent request with the same key won; serve its result.
			prev, rerr := s.replay(ctx, p.OwnerID, p.IdempotencyKey)
			if rerr == nil && prev != nil {
				return prev, true, nil
			}
			return nil, false, fail(span, classify(err, ""))
		case errors.Is(err, repo.ErrDuplicate):
			log.Ctx(ctx).Warn().Str("slug", slug).Int("attempt", i+1).Msg("slug collision, regenerating")
			continue
		default:
			return nil, false, fail(span, classify(err, ""))
		}
	}
	return nil, false, fail(span, apperr.Conflict(MsgSlugConflict).CausedBy(repo.ErrDuplicate))
}

var errIdempotencyRace = errors.New("idempotency key claimed concurrently")

// replay returns the record created under key, or nil when there is none.
func (s *WrappedService) replay(ctx context.Context, ownerID, key string) (*domain.Wrapped, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, ownerID, IdempotencyScope, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "")
	}
	w, err := repo.GetWrappedByID(ctx, s.DB, rec.ResourceID)
	if err != nil {
		return nil, classify(err, MsgWrappedNotFound)
	}
	return w, nil
}

// HasReplay reports whether ownerID already completed a create under key.
// Lookup failures report false.
func (s *WrappedService) HasReplay(ctx context.Context, ownerID, key string, now time.Time) bool {
	_, err := repo.GetIdempotency(ctx, s.DB, ownerID, IdempotencyScope, key, now)
	return err == nil
}

func (s *WrappedService) applyDefaults(w *domain.Wrapped) {
	w.RecipientName = strings.TrimSpace(w.RecipientName)
	if strings.TrimSpace(w.AccentTheme) == "" {
		w.AccentTheme = domain.DefaultAccentTheme
	}
	if strings.TrimSpace(w.BgMusic) == "" {
		w.BgMusic = domain.DefaultBgMusic
	}
	if w.Year == 0 {
		w.Year = s.now().UTC().Year()
	}
}

// GetBySlug returns the wrapped with slug or a NotFound error.
func (s *WrappedService) GetBySlug(ctx context.Context, slug string) (*domain.Wrapped, error) {
	ctx, span := otel.Tracer("services/WrappedService").Start(ctx, "GetBySlug",
		trace.WithAttributes(attribute.String("wrapped.slug", slug)),
	)
	defer span.End()

	w, err := repo.GetWrappedBySlug(ctx, s.DB, slug)
	if err != nil {
		return nil, fail(span, classify(err, MsgWrappedNotFound))
	}
	return w, nil
}

// List returns one page of wrapped records ordered by creation time.
func (s *WrappedService) List(ctx context.Context, req repo.PageRequest) (repo.Page[domain.Wrapped], error) {
	ctx, span := otel.Tracer("services/WrappedService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page.limit", req.Limit),
			attribute.String("page.sort", string(req.Sort)),
			attribute.Bool("page.cursor", req.Cursor != ""),
		),
	)
	defer span.End()

	page, err := repo.ListWrappedPage(ctx, s.DB, req)
	if err != nil {
		return repo.Page[domain.Wrapped]{}, fail(span, classify(err, ""))
	}
	span.SetAttributes(attribute.Int("page.items", len(page.Items)), attribute.Bool("page.has_next", page.HasNextPage))
	return page, nil
}

// Stats aggregates every wrapped record and attaches display labels to the
// grouped keys ("best-friend" becomes "Best Friend").
func (s *WrappedService) Stats(ctx context.Context) (*repo.WrappedStats, error) {
	ctx, span := otel.Tracer("services/WrappedService").Start(ctx, "Stats")
	defer span.End()

	st, err := repo.ComputeWrappedStats(ctx, s.DB, s.now())
	if err != nil {
		return nil, fail(span, classify(err, ""))
	}
	title := cases.Title(language.English)
	for _, group := range [][]repo.KeyCount{st.ByRelationship, st.TopThemes, st.TopMusic, st.TopEmotions} {
		for i := range group {
			group[i].Label = Humanize(title, group[i].Key)
		}
	}
	return st, nil
}

// Humanize turns a slug-like key into a title-cased label.
func Humanize(c cases.Caser, key string) string {
	key = strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(key))
	return c.String(strings.Join(strings.Fields(key), " "))
}

// PurgeIdempotency removes expired idempotency records until ctx is done,
// once per interval.
func (s *WrappedService) PurgeIdempotency(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged expired idempotency keys")
			}
		}
	}
}

// fail records err on span and returns it.
func fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
