package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seller is the persisted content entry for one wholesale seller. It is
// keyed by Slug for reconciliation: every sync run looks the slug up and
// updates the row in place rather than inserting a duplicate.
type Seller struct {
	ID          string         `json:"id" gorm:"type:uuid;primary_key"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;not null"`
	Name        string         `json:"name" gorm:"not null"`
	Status      string         `json:"status" gorm:"default:publish"`
	Excerpt     string         `json:"excerpt"`
	Content     string         `json:"content"`
	City        *string        `json:"city"`
	Website     *string        `json:"website"`
	ProfileURL  *string        `json:"profile_url"`
	Raw         datatypes.JSON `json:"raw"`
	StateTermID *string        `json:"state_term_id" gorm:"type:uuid;index"`
	StateTerm   *StateTerm     `json:"state_term,omitempty" gorm:"foreignKey:StateTermID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// StateTerm is the taxonomy term grouping sellers by state.
type StateTerm struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogoAsset is a downloaded seller logo. A seller has at most one;
// replacing it deletes the prior row and file.
type LogoAsset struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	SellerID  string    `json:"seller_id" gorm:"type:uuid;uniqueIndex;not null"`
	SourceURL string    `json:"source_url"`
	Path      string    `json:"path" gorm:"not null"`
	Checksum  string    `json:"checksum" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Seller) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (t *StateTerm) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (a *LogoAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
