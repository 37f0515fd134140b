// Package domain defines the persistence models of the wrapped service.
// These types are mapped with GORM and serialized as-is in API responses.
package domain

import (
	"time"
)

// Relationship is the recipient's relation to the creator of a wrapped.
type Relationship string

const (
	RelationshipPartner    Relationship = "partner"
	RelationshipOther      Relationship = "other"
	RelationshipBestFriend Relationship = "best-friend"
	RelationshipFriend     Relationship = "friend"
	RelationshipSibling    Relationship = "sibling"
	RelationshipParent     Relationship = "parent"
	RelationshipChild      Relationship = "child"
	RelationshipEnemy      Relationship = "enemy"
)

// Relationships lists every accepted relationship, in display order.
var Relationships = []Relationship{
	RelationshipPartner,
	RelationshipOther,
	RelationshipBestFriend,
	RelationshipFriend,
	RelationshipSibling,
	RelationshipParent,
	RelationshipChild,
	RelationshipEnemy,
}

// Valid reports whether r is one of Relationships.
func (r Relationship) Valid() bool {
	for _, v := range Relationships {
		if r == v {
			return true
		}
	}
	return false
}

// Defaults applied to a wrapped when the creator leaves a field out.
const (
	DefaultAccentTheme = "default"
	DefaultBgMusic     = "none"
)

// Emotion is one entry of a wrapped's "top emotions" slide.
type Emotion struct {
	ID         string   `json:"id"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// Wrapped is a personalised year-in-review recap addressed to one recipient.
//
// Fields:
//   - ID: UUID primary key, internal only.
//   - Slug: public, unguessable identifier ("w_..."); unique and never
//     regenerated after creation.
//   - UserID: anonymous tracking id of the creator (anon_id cookie).
//   - CreatedAt: UTC, millisecond precision; the pagination ordering key.
//
// List-valued fields are stored as JSON text columns.
type Wrapped struct {
	ID   string `json:"id"   gorm:"type:char(36);primaryKey"`
	Slug string `json:"slug" gorm:"type:varchar(64);not null;uniqueIndex:ux_wrapped_slug"`

	RecipientName string       `json:"recipientName" gorm:"type:varchar(255);not null"`
	Relationship  Relationship `json:"relationship"  gorm:"type:varchar(32);not null;index"`
	AccentTheme   string       `json:"accentTheme"   gorm:"type:varchar(64);not null"`
	BgMusic       string       `json:"bgMusic"       gorm:"type:varchar(64);not null"`
	Year          int          `json:"year"          gorm:"not null;index"`

	MainCharacterEra   string    `json:"mainCharacterEra,omitempty"`
	EraVariant         string    `json:"eraVariant,omitempty"`
	TopPhrase          string    `json:"topPhrase,omitempty"`
	PhraseVariant      string    `json:"phraseVariant,omitempty"`
	TopEmotions        []Emotion `json:"topEmotions,omitempty"      gorm:"serializer:json"`
	EmotionsVariant    string    `json:"emotionsVariant,omitempty"`
	Obsessions         []string  `json:"obsessions,omitempty"       gorm:"serializer:json"`
	ObsessionsVariant  string    `json:"obsessionsVariant,omitempty"`
	Favorites          []string  `json:"favorites,omitempty"        gorm:"serializer:json"`
	FavoritesVariant   string    `json:"favoritesVariant,omitempty"`
	QuietImprovement   []string  `json:"quietImprovement,omitempty" gorm:"serializer:json"`
	ImprovementVariant string    `json:"improvementVariant,omitempty"`
	OutroMessage       string    `json:"outroMessage,omitempty"`
	OutroVariant       string    `json:"outroVariant,omitempty"`
	CreatorName        string    `json:"creatorName,omitempty"`
	CreatorVariant     string    `json:"creatorVariant,omitempty"`
	Memories           []string  `json:"memories,omitempty"         gorm:"serializer:json"`
	MemoriesVariant    string    `json:"memoriesVariant,omitempty"`
	PreviewID          string    `json:"previewId,omitempty"`

	UserID string `json:"userId,omitempty" gorm:"type:varchar(64);index"`

	IsPremium         bool   `json:"isPremium"                   gorm:"not null;index"`
	PremiumUnlockedAt *int64 `json:"premiumUnlockedAt,omitempty"` // unix seconds

	CreatedAt time.Time `json:"createdAt" gorm:"not null;index:idx_wrapped_created"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Wrapped.
func (Wrapped) TableName() string { return "wrapped" }
