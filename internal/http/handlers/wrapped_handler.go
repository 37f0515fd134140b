package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/auth"
	"github.com/tbourn/go-wrapped-backend/internal/domain"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
	"github.com/tbourn/go-wrapped-backend/internal/services"
)

// HeaderReplayed marks a create response served from an earlier request with
// the same Idempotency-Key.
const HeaderReplayed = "Idempotent-Replayed"

// CreateWrappedRequest is the payload of POST /api/wrapped.
//
// accentTheme and bgMusic may be omitted but not sent empty. year defaults
// to the current year.
type CreateWrappedRequest struct {
	RecipientName string  `json:"recipientName" binding:"required" example:"Sam"`
	Relationship  string  `json:"relationship" binding:"required,oneof=partner other best-friend friend sibling parent child enemy" example:"friend"`
	AccentTheme   *string `json:"accentTheme,omitempty" binding:"omitempty,min=1" example:"sunset"`
	BgMusic       *string `json:"bgMusic,omitempty" binding:"omitempty,min=1" example:"lofi"`
	Year          *int    `json:"year,omitempty" binding:"omitempty,min=1900,max=2100" example:"2024"`

	MainCharacterEra   string           `json:"mainCharacterEra,omitempty"`
	EraVariant         string           `json:"eraVariant,omitempty"`
	TopPhrase          string           `json:"topPhrase,omitempty"`
	PhraseVariant      string           `json:"phraseVariant,omitempty"`
	TopEmotions        []domain.Emotion `json:"topEmotions,omitempty"`
	EmotionsVariant    string           `json:"emotionsVariant,omitempty"`
	Obsessions         []string         `json:"obsessions,omitempty"`
	ObsessionsVariant  string           `json:"obsessionsVariant,omitempty"`
	Favorites          []string         `json:"favorites,omitempty"`
	FavoritesVariant   string           `json:"favoritesVariant,omitempty"`
	QuietImprovement   []string         `json:"quietImprovement,omitempty"`
	ImprovementVariant string           `json:"improvementVariant,omitempty"`
	OutroMessage       string           `json:"outroMessage,omitempty"`
	OutroVariant       string           `json:"outroVariant,omitempty"`
	CreatorName        string           `json:"creatorName,omitempty"`
	CreatorVariant     string           `json:"creatorVariant,omitempty"`
	Memories           []string         `json:"memories,omitempty"`
	MemoriesVariant    string           `json:"memoriesVariant,omitempty"`
	PreviewID          string           `json:"previewId,omitempty"`

	IsPremium         *bool  `json:"isPremium,omitempty"`
	PremiumUnlockedAt *int64 `json:"premiumUnlockedAt,omitempty"`
}

func (r CreateWrappedRequest) toDomain() domain.Wrapped {
	w := domain.Wrapped{
		RecipientName:      r.RecipientName,
		Relationship:       domain.Relationship(r.Relationship),
		MainCharacterEra:   r.MainCharacterEra,
		EraVariant:         r.EraVariant,
		TopPhrase:          r.TopPhrase,
		PhraseVariant:      r.PhraseVariant,
		TopEmotions:        r.TopEmotions,
		EmotionsVariant:    r.EmotionsVariant,
		Obsessions:         r.Obsessions,
		ObsessionsVariant:  r.ObsessionsVariant,
		Favorites:          r.Favorites,
		FavoritesVariant:   r.FavoritesVariant,
		QuietImprovement:   r.QuietImprovement,
		ImprovementVariant: r.ImprovementVariant,
		OutroMessage:       r.OutroMessage,
		OutroVariant:       r.OutroVariant,
		CreatorName:        r.CreatorName,
		CreatorVariant:     r.CreatorVariant,
		Memories:           r.Memories,
		MemoriesVariant:    r.MemoriesVariant,
		PreviewID:          r.PreviewID,
		PremiumUnlockedAt:  r.PremiumUnlockedAt,
	}
	if r.AccentTheme != nil {
		w.AccentTheme = *r.AccentTheme
	}
	if r.BgMusic != nil {
		w.BgMusic = *r.BgMusic
	}
	if r.Year != nil {
		w.Year = *r.Year
	}
	if r.IsPremium != nil {
		w.IsPremium = *r.IsPremium
	}
	return w
}

// ListWrappedQuery holds the query parameters of GET /api/wrapped/list.
type ListWrappedQuery struct {
	Limit  *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor"`
	Sort   string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

func (q ListWrappedQuery) pageRequest() repo.PageRequest {
	req := repo.PageRequest{
		Limit:  repo.DefaultPageLimit,
		Cursor: q.Cursor,
		Sort:   repo.SortDesc,
	}
	if q.Limit != nil {
		req.Limit = *q.Limit
	}
	if q.Sort != "" {
		req.Sort = repo.SortDirection(q.Sort)
	}
	return req
}

// CreateWrapped godoc
// @ID          createWrapped
// @Summary     Create a wrapped
// @Description Stores a new wrapped and returns it with its generated slug. Sets the
// @Description anonymous tracking cookie when absent. Retries carrying the same
// @Description Idempotency-Key return the original record.
// @Tags        Wrapped
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                            false  "Client-generated retry key"  example(2b6f0cc9-1c2e-4bde-9f62-0d3e4f2a9a71)
// @Param       body             body    handlers.CreateWrappedRequest     true   "Wrapped payload"
// @Success     201  {object}  domain.Wrapped
// @Header      201  {string}  Location             "Path of the new wrapped"
// @Header      201  {string}  Idempotent-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse  "Slug conflict"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/wrapped [post]
func (h *Handlers) CreateWrapped(c *gin.Context) error {
	var req CreateWrappedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	owner := auth.EnsureAnonID(c, h.cookies)
	key, _ := middleware.GetIdempotencyKey(c)

	w, replayed, err := h.wrapped.Create(c.Request.Context(), services.CreateParams{
		OwnerID:        owner,
		IdempotencyKey: key,
		Wrapped:        req.toDomain(),
	})
	if err != nil {
		return err
	}

	if replayed {
		c.Header(HeaderReplayed, "true")
		middleware.CountEvent(middleware.EventWrappedReplayed)
	} else {
		middleware.CountEvent(middleware.EventWrappedCreated)
	}
	c.Header("Location", "/api/wrapped/"+w.Slug)
	return ok(c, http.StatusCreated, w)
}

// GetWrapped godoc
// @ID          getWrapped
// @Summary     Get a wrapped by slug
// @Tags        Wrapped
// @Produce     json
// @Param       slug  path      string  true  "Public slug"  example(w_m5x2k9a1Q7fTz0LbVw)
// @Success     200   {object}  domain.Wrapped
// @Failure     404   {object}  handlers.ErrorResponse  "Wrapped not found"
// @Router      /api/wrapped/{slug} [get]
func (h *Handlers) GetWrapped(c *gin.Context) error {
	w, err := h.wrapped.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, w)
}

// ListWrapped godoc
// @ID          listWrapped
// @Summary     List wrapped records (cursor paginated)
// @Description Requires an admin session. Pass nextCursor back as cursor to continue.
// @Tags        Wrapped
// @Produce     json
// @Param       limit   query     int     false  "Page size"        minimum(1) maximum(100) default(20)
// @Param       cursor  query     string  false  "Opaque cursor from the previous page"
// @Param       sort    query     string  false  "Creation order"   Enums(asc, desc) default(desc)
// @Success     200     {object}  repo.Page[domain.Wrapped]
// @Failure     400     {object}  handlers.ErrorResponse  "Invalid limit or sort"
// @Failure     401     {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /api/wrapped/list [get]
func (h *Handlers) ListWrapped(c *gin.Context) error {
	var q ListWrappedQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	page, err := h.wrapped.List(c.Request.Context(), q.pageRequest())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, page)
}

// WrappedStats godoc
// @ID          wrappedStats
// @Summary     Aggregate statistics
// @Description Requires an admin session. Totals, top values, per-year counts and a
// @Description 30-day daily creation series.
// @Tags        Wrapped
// @Produce     json
// @Success     200  {object}  repo.WrappedStats
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/wrapped/stats [get]
func (h *Handlers) WrappedStats(c *gin.Context) error {
	stats, err := h.wrapped.Stats(c.Request.Context())
	if err != nil {
		return err
	}
	if who, ok := middleware.SessionIdentity(c); ok {
		middleware.LoggerFrom(c).Debug().Str("identity", who).Int64("total", stats.Total).Msg("stats served")
	}
	return ok(c, http.StatusOK, stats)
}
