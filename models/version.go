package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContributionType describes what kind of change a ledger entry records.
type ContributionType string

const (
	ContributionInitial          ContributionType = "initial"
	ContributionExampleAdded     ContributionType = "example_added"
	ContributionContextAdded     ContributionType = "context_added"
	ContributionHarmDocumented   ContributionType = "harm_documented"
	ContributionVariantAdded     ContributionType = "variant_added"
	ContributionRelatedTermAdded ContributionType = "related_term_added"
	ContributionEdit             ContributionType = "edit"
	ContributionRollback         ContributionType = "rollback"
)

// ContributionTypes lists every accepted contribution type.
var ContributionTypes = []ContributionType{
	ContributionInitial,
	ContributionExampleAdded,
	ContributionContextAdded,
	ContributionHarmDocumented,
	ContributionVariantAdded,
	ContributionRelatedTermAdded,
	ContributionEdit,
	ContributionRollback,
}

// Valid reports whether c is one of ContributionTypes.
func (c ContributionType) Valid() bool {
	for _, known := range ContributionTypes {
		if c == known {
			return true
		}
	}
	return false
}

// Version is one immutable entry in a term's history ledger.
// Numbers are contiguous per term, starting at 1.
type Version struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TermID           string           `json:"term_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_versions_term_number,priority:1"`
	Number           int              `json:"version_number" gorm:"not null;uniqueIndex:idx_versions_term_number,priority:2"`
	ContributionType ContributionType `json:"contribution_type" gorm:"type:varchar(32);not null"`
	Contributor      string           `json:"contributor" gorm:"not null"`
	Summary          string           `json:"summary" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Version model.
func (Version) TableName() string {
	return "versions"
}

// BeforeCreate assigns an opaque identifier when none is set.
func (v *Version) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
