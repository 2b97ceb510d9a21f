package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category classifies the kind of harm a term carries.
type Category string

const (
	CategoryDerogatory   Category = "Derogatory"
	CategoryExclusionary Category = "Exclusionary"
	CategoryDangerous    Category = "Dangerous"
	CategoryCoded        Category = "Coded"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryDerogatory, CategoryExclusionary, CategoryDangerous, CategoryCoded}

// RiskLevel is the assessed risk of a term being used to cause harm.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// RiskLevels lists the accepted risk levels in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// Language is the language a term is used in.
type Language string

const (
	LanguageSwahili Language = "Swahili"
	LanguageEnglish Language = "English"
	LanguageSheng   Language = "Sheng"
	LanguageMixed   Language = "Mixed"
)

// Languages lists the accepted languages in display order.
var Languages = []Language{LanguageSwahili, LanguageEnglish, LanguageSheng, LanguageMixed}

// ModerationStatus is shared by terms and examples.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// IsTerminal reports whether no further moderation transition is allowed.
func (s ModerationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// HarmType identifies one documented way a term causes harm.
type HarmType string

const (
	HarmNormalizesContempt HarmType = "normalizes_contempt"
	HarmPrimesExclusion    HarmType = "primes_exclusion"
	HarmCuesViolence       HarmType = "cues_violence"
	HarmHarasses           HarmType = "harasses"
	HarmOther              HarmType = "other"
)

// HarmTypes lists the accepted harm keys.
var HarmTypes = []HarmType{HarmNormalizesContempt, HarmPrimesExclusion, HarmCuesViolence, HarmHarasses, HarmOther}

// HarmAnnotations maps each selected harm type to an optional detail.
// A missing key makes no claim either way.
type HarmAnnotations map[HarmType]string

// Term is a documented word or phrase together with its moderation state.
type Term struct {
	ID           string                              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Term         string                              `json:"term" gorm:"not null;index"`
	LiteralGloss string                              `json:"literal_gloss,omitempty"`
	Meaning      string                              `json:"meaning" gorm:"type:text;not null"`
	Category     Category                            `json:"category" gorm:"type:varchar(32);not null;index"`
	Risk         RiskLevel                           `json:"risk" gorm:"type:varchar(32);not null;index"`
	Language     Language                            `json:"language" gorm:"type:varchar(32);not null;index"`
	Registers    string                              `json:"registers,omitempty"`
	Markers      string                              `json:"markers,omitempty"`
	TargetGroup  string                              `json:"target_group,omitempty"`
	Origin       string                              `json:"origin,omitempty"`
	Notes        string                              `json:"notes,omitempty" gorm:"type:text"`
	Harms        datatypes.JSONType[HarmAnnotations] `json:"harms"`
	VariantOfID  *string                             `json:"variant_of,omitempty" gorm:"type:varchar(36);index"`
	Status       ModerationStatus                    `json:"status" gorm:"type:varchar(16);default:'pending';not null;index"`
	SubmittedBy  string                              `json:"submitted_by"`
	ReviewedBy   string                              `json:"reviewed_by,omitempty"`
	ReviewNote   string                              `json:"review_note,omitempty" gorm:"type:text"`
	ReviewedAt   *time.Time                          `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time                           `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time                           `json:"updated_at" gorm:"autoUpdateTime"`
	Examples     []Example                           `json:"examples" gorm:"foreignKey:TermID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Versions     []Version                           `json:"versions,omitempty" gorm:"foreignKey:TermID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName specifies the table name for the Term model.
func (Term) TableName() string {
	return "terms"
}

// Example is an observed usage of a term. Its status is moderated
// independently of the parent term.
type Example struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TermID    string           `json:"term_id" gorm:"type:varchar(36);index;not null"`
	Quote     string           `json:"quote" gorm:"type:text;not null"`
	Platform  string           `json:"platform" gorm:"not null"`
	Date      string           `json:"date,omitempty"`
	URL       string           `json:"url,omitempty"`
	Context   string           `json:"context,omitempty" gorm:"type:text"`
	Position  int              `json:"position" gorm:"default:0"`
	Status    ModerationStatus `json:"status" gorm:"type:varchar(16);default:'pending';not null;index"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Example model.
func (Example) TableName() string {
	return "examples"
}

// TermFilter narrows term listings. Empty fields match everything.
type TermFilter struct {
	Status   ModerationStatus
	Category Category
	Language Language
	Risk     RiskLevel

	// ExampleStatus restricts preloaded examples; empty loads all of them.
	ExampleStatus ModerationStatus
	Limit         int
	Offset        int
	// OldestFirst flips the default newest-first ordering.
	OldestFirst bool
}

// TermSummary is the projection used for variant matching.
type TermSummary struct {
	ID        string    `json:"id"`
	Term      string    `json:"term"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns an opaque identifier when none is set.
func (t *Term) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns an opaque identifier when none is set.
func (e *Example) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
