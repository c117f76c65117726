package model

import "time"

// Tombstone marks a unique key that ingestion must never re-insert.
type Tombstone struct {
	UniqueKey string
	DeletedAt time.Time
}

// IgnoredDuplicate is an audit record for a row rejected at ingestion.
type IgnoredDuplicate struct {
	ID        int64
	UniqueKey string
	Payload   string // JSON snapshot of the rejected Transaction
	CreatedAt time.Time
}

// CategoryMapEntry maps a normalized description to a learned category.
type CategoryMapEntry struct {
	DescriptionNorm string
	Category        string
}

// CategoryCount is one bucket of the category history for a description.
type CategoryCount struct {
	DescriptionNorm string
	Category        string
	Count           int64
}

// SuggestionSource identifies where a suggested category came from.
type SuggestionSource string

const (
	SourceExact           SuggestionSource = "exact"
	SourceDominantHistory SuggestionSource = "dominant-history"
	SourceNone            SuggestionSource = "none"
)

// Suggestion is a proposed category for an uncategorized transaction.
type Suggestion struct {
	UniqueKey       string
	Description     string
	DescriptionNorm string
	Category        string
	Source          SuggestionSource
	Confidence      float64
}

// AutoApply reports whether the suggestion may be accepted without asking.
func (s Suggestion) AutoApply(threshold float64) bool {
	return s.Source != SourceNone && s.Confidence >= threshold
}
