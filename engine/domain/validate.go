package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// datasetIDRegex mirrors the slug engine/router and engine/catalog key
// their per-tenant state by: lowercase alphanumerics, dash, underscore.
var datasetIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// injectionPatterns are prompt/query-injection fragments that should
// never reach a graph query or an LLM prompt unescaped: Cypher/SQL
// control keywords, template interpolation, and instruction-override
// phrasing aimed at an LLM gateway rather than at the user's own data.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|DETACH|MERGE|CREATE)\b.*\b(NODE|RELATIONSHIP|TABLE|DATABASE)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`),               // template injection
	regexp.MustCompile(`(?i)\{\s*"\$[a-z]+"\s*:`),    // NoSQL operator injection
	regexp.MustCompile(`(?i)ignore (all )?previous instructions`),
	regexp.MustCompile(`(?i)you are now (in )?(developer|debug|jailbreak) mode`),
}

const (
	minQueryLength = 3
	maxQueryLength = 4096
	// MaxIngestBytes bounds a single Add call's text payload; larger
	// documents should be split by the caller before ingestion.
	MaxIngestBytes = 10 * 1024 * 1024
)

// ValidateDatasetRef checks a (owner_id, dataset_id) pair before it is
// used as a router or catalog key.
func ValidateDatasetRef(ref DatasetRef) error {
	if strings.TrimSpace(ref.OwnerID) == "" {
		return NewValidationError("owner_id", ref.OwnerID, ErrOwnerIDEmpty)
	}
	if ref.DatasetID == "" {
		return NewValidationError("dataset_id", ref.DatasetID, ErrDatasetIDEmpty)
	}
	if !datasetIDRegex.MatchString(ref.DatasetID) {
		return NewValidationError("dataset_id", ref.DatasetID, ErrDatasetIDInvalid)
	}
	return nil
}

// ValidateIngestText checks a document body before it reaches chunking.
func ValidateIngestText(text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("text", "", ErrTextEmpty)
	}
	if len(text) > MaxIngestBytes {
		return NewValidationError("text", "", ErrTextTooLarge)
	}
	return nil
}

// ValidateQueryText checks a search query before it is embedded or
// interpolated into an LLM prompt.
func ValidateQueryText(text string) error {
	trimmed := strings.TrimSpace(text)
	runes := utf8.RuneCountInString(trimmed)
	if runes < minQueryLength {
		return NewValidationError("query", trimmed, ErrQueryTooShort)
	}
	if runes > maxQueryLength {
		return NewValidationError("query", trimmed, ErrQueryTooLong)
	}
	for _, pat := range injectionPatterns {
		if pat.MatchString(trimmed) {
			return NewValidationError("query", trimmed, ErrQueryInjection)
		}
	}
	return nil
}
