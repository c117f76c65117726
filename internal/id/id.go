package id

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	statementPrefix = "k:"
	manualPrefix    = "m:"
	hexLen          = 16
	dateFormat      = "2006-01-02"
)

// dateLayouts are the unambiguous layouts resolved to a calendar date.
// Locale formats (02/01/2006 vs 01/02/2006) are the importer's job.
var dateLayouts = []string{
	dateFormat,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// CanonicalDate returns raw as "YYYY-MM-DD" when it resolves to a calendar
// date, discarding any time of day. Anything else comes back trimmed but
// otherwise untouched, so keys stay deterministic for unparseable input.
func CanonicalDate(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateFormat)
		}
	}
	return s
}

// FormatDate returns the canonical form of t.
func FormatDate(t time.Time) string {
	return t.Format(dateFormat)
}

// ParseDate parses a canonical date. ok is false for passthrough dates.
func ParseDate(date string) (t time.Time, ok bool) {
	t, err := time.Parse(dateFormat, date)
	return t, err == nil
}

// StatementAmount returns |amount| rounded to 2 decimals.
func StatementAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Round(2)
}

// UniqueKey returns a statement row key like "k:1f0c6a4e9b2d7c53".
// The amount is made absolute and rounded here so every caller agrees.
func UniqueKey(date, descriptionNorm string, amountStatement decimal.Decimal) string {
	return statementPrefix + digest(date, descriptionNorm, StatementAmount(amountStatement).StringFixed(2))
}

// ManualKey returns a key like "m:1f0c6a4e9b2d7c53" for a hand-entered row.
func ManualKey(date, descriptionNorm string, amount decimal.Decimal) string {
	return manualPrefix + digest(date, StatementAmount(amount).StringFixed(2), descriptionNorm)
}

// IsStatementKey reports whether key was produced by UniqueKey.
func IsStatementKey(key string) bool {
	return strings.HasPrefix(key, statementPrefix) && len(key) == len(statementPrefix)+hexLen
}

// IsManualKey reports whether key was produced by ManualKey.
func IsManualKey(key string) bool {
	return strings.HasPrefix(key, manualPrefix) && len(key) == len(manualPrefix)+hexLen
}

// digest must stay seed-free: keys are compared across processes and hosts.
func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:hexLen]
}
