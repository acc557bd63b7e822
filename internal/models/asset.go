package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryBuilt   Category = "built"
	CategoryUnbuilt Category = "unbuilt"
	CategorySecret  Category = "secret"
)

// NormalizeCategory coerces unrecognized input to the default category.
func NormalizeCategory(s string) Category {
	switch Category(s) {
	case CategoryBuilt, CategoryUnbuilt, CategorySecret:
		return Category(s)
	default:
		return CategoryUnbuilt
	}
}

// AccessState is the tagged view over the category + nullable token columns.
// The flat representation only exists at the store boundary.
type AccessState int

const (
	// AccessPublic: non-secret, no token involved.
	AccessPublic AccessState = iota
	// AccessSecret: secret with a configured capability token.
	AccessSecret
	// AccessRevoked: secret whose token was revoked; sealed until a rotate
	// issues a replacement.
	AccessRevoked
)

// Asset represents one stored binary file plus its metadata row
type Asset struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1000" json:"description"`
	Category    Category  `gorm:"size:32;not null;default:'unbuilt';index" json:"category"`
	ProjectID   *int      `gorm:"index" json:"project_id,omitempty"`
	ContentType string    `gorm:"size:120" json:"content_type"`
	Filename    string    `gorm:"size:255" json:"filename"`
	Filepath    string    `gorm:"size:512" json:"filepath"`
	ImageData   []byte    `json:"-"`
	AccessToken *string   `gorm:"size:128" json:"access_token,omitempty"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`

	UploadDate time.Time `gorm:"autoCreateTime" json:"upload_date"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AccessState derives the tagged access variant for this asset.
func (a *Asset) AccessState() AccessState {
	if a.Category != CategorySecret {
		return AccessPublic
	}
	if a.AccessToken == nil || *a.AccessToken == "" {
		return AccessRevoked
	}
	return AccessSecret
}

// Token returns the stored capability token, empty when none is configured.
func (a *Asset) Token() string {
	if a.AccessToken == nil {
		return ""
	}
	return *a.AccessToken
}
