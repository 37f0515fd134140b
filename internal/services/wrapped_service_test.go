package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/domain"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
)

var fixedNow = time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC)

func newWrappedService(t *testing.T) *WrappedService {
	t.Helper()
	s := NewWrappedService(newTestDB(t), time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s
}

// slugSeq returns the given slugs in order, then fails.
func slugSeq(slugs ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(slugs) {
			return "", errors.New("slug sequence exhausted")
		}
		i++
		return slugs[i-1], nil
	}
}

func wantStatus(t *testing.T, err error, status int) *apperr.Error {
	t.Helper()
	ae, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	if ae.Status != status {
		t.Fatalf("status=%d want %d (%v)", ae.Status, status, err)
	}
	if ae.Catastrophic {
		t.Fatalf("service errors must be request scoped: %v", err)
	}
	return ae
}

func TestWrappedService_CreateAppliesDefaults(t *testing.T) {
	s := newWrappedService(t)

	w, replay, err := s.Create(context.Background(), CreateParams{
		OwnerID: "anon-1",
		Wrapped: domain.Wrapped{RecipientName: "  Sam ", Relationship: domain.RelationshipFriend},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if replay {
		t.Fatal("first create is not a replay")
	}
	if !strings.HasPrefix(w.Slug, "w_") || len(w.Slug) != 20 {
		t.Fatalf("slug=%q", w.Slug)
	}
	if w.RecipientName != "Sam" || w.AccentTheme != "default" || w.BgMusic != "none" || w.Year != 2025 {
		t.Fatalf("defaults not applied: %+v", w)
	}
	if w.UserID != "anon-1" || w.IsPremium {
		t.Fatalf("owner/premium: %+v", w)
	}

	got, err := s.GetBySlug(context.Background(), w.Slug)
	if err != nil || got.ID != w.ID {
		t.Fatalf("GetBySlug: %+v %v", got, err)
	}
}

func TestWrappedService_CreateKeepsExplicitValues(t *testing.T) {
	s := newWrappedService(t)
	w, _, err := s.Create(context.Background(), CreateParams{
		Wrapped: domain.Wrapped{
			RecipientName: "Ana",
			Relationship:  domain.RelationshipPartner,
			AccentTheme:   "sunset",
			BgMusic:       "lofi",
			Year:          2024,
			IsPremium:     true,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.AccentTheme != "sunset" || w.BgMusic != "lofi" || w.Year != 2024 || !w.IsPremium {
		t.Fatalf("explicit values overwritten: %+v", w)
	}
}

func TestWrappedService_SlugCollisionRetries(t *testing.T) {
	s := newWrappedService(t)
	ctx := context.Background()

	s.newSlug = slugSeq("w_taken")
	if _, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{RecipientName: "A", Relationship: "friend"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s.newSlug = slugSeq("w_taken", "w_taken", "w_fresh")
	w, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{RecipientName: "B", Relationship: "friend"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.Slug != "w_fresh" {
		t.Fatalf("slug=%q", w.Slug)
	}
}

func TestWrappedService_SlugCollisionExhausted(t *testing.T) {
	s := newWrappedService(t)
	ctx := context.Background()

	s.newSlug = slugSeq("w_taken")
	if _, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{RecipientName: "A", Relationship: "friend"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s.newSlug = slugSeq("w_taken", "w_taken", "w_taken")
	_, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{RecipientName: "B", Relationship: "friend"}})
	ae := wantStatus(t, err, http.StatusConflict)
	if ae.Kind != apperr.KindConflict || ae.Message != MsgSlugConflict {
		t.Fatalf("unexpected error: %+v", ae)
	}
}

func TestWrappedService_IdempotentReplay(t *testing.T) {
	s := newWrappedService(t)
	ctx := context.Background()
	p := CreateParams{
		OwnerID:        "anon-1",
		IdempotencyKey: "key-123",
		Wrapped:        domain.Wrapped{RecipientName: "Sam", Relationship: domain.RelationshipFriend},
	}

	first, replay, err := s.Create(ctx, p)
	if err != nil || replay {
		t.Fatalf("first: replay=%v err=%v", replay, err)
	}
	if !s.HasReplay(ctx, "anon-1", "key-123", fixedNow) {
		t.Fatal("HasReplay should see the stored key")
	}

	second, replay, err := s.Create(ctx, p)
	if err != nil || !replay {
		t.Fatalf("second: replay=%v err=%v", replay, err)
	}
	if second.ID != first.ID || second.Slug != first.Slug {
		t.Fatalf("replay returned a different record: %s vs %s", second.Slug, first.Slug)
	}

	p.OwnerID = "anon-2"
	third, replay, err := s.Create(ctx, p)
	if err != nil || replay || third.ID == first.ID {
		t.Fatalf("keys are scoped per owner: replay=%v err=%v", replay, err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if s.HasReplay(ctx, "anon-1", "key-123", s.now()) {
		t.Fatal("expired keys must not replay")
	}
}

func TestWrappedService_GetBySlugNotFound(t *testing.T) {
	s := newWrappedService(t)
	_, err := s.GetBySlug(context.Background(), "w_nope")
	ae := wantStatus(t, err, http.StatusNotFound)
	if ae.Message != MsgWrappedNotFound {
		t.Fatalf("message=%q", ae.Message)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatal("cause should be kept")
	}
}

func TestWrappedService_List(t *testing.T) {
	s := newWrappedService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{RecipientName: "X", Relationship: "friend"}}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	page, err := s.List(ctx, repo.PageRequest{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 || !page.HasNextPage || page.NextCursor == nil {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestWrappedService_StatsLabels(t *testing.T) {
	s := newWrappedService(t)
	ctx := context.Background()
	if _, _, err := s.Create(ctx, CreateParams{Wrapped: domain.Wrapped{
		RecipientName: "X",
		Relationship:  domain.RelationshipBestFriend,
		TopEmotions:   []domain.Emotion{{ID: "quiet_joy"}},
	}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 1 || st.ByRelationship[0].Label != "Best Friend" || st.TopEmotions[0].Label != "Quiet Joy" {
		t.Fatalf("labels: %+v %+v", st.ByRelationship, st.TopEmotions)
	}
}

func TestWrappedService_ClosedDBIsRequestScoped(t *testing.T) {
	s := newWrappedService(t)
	_ = repo.Closer(s.DB)(context.Background())

	_, err := s.GetBySlug(context.Background(), "w_x")
	wantStatus(t, err, http.StatusInternalServerError)
}

func TestHumanize(t *testing.T) {
	c := cases.Title(language.English)
	tests := []struct{ in, want string }{
		{"best-friend", "Best Friend"},
		{"none", "None"},
		{"  lo_fi  beats ", "Lo Fi Beats"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Humanize(c, tc.in); got != tc.want {
			t.Errorf("Humanize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if classify(nil, "") != nil {
		t.Fatal("nil stays nil")
	}
	wantStatus(t, classify(repo.ErrDuplicate, ""), http.StatusConflict)
	wantStatus(t, classify(context.Canceled, ""), 499)
	wantStatus(t, classify(errors.New("boom"), ""), http.StatusInternalServerError)
}
