// Package source implements citation handling for assistant answers.
//
// A Source is a cited document excerpt with a calibration confidence score.
// The Registry deduplicates sources across a conversation's messages and
// tracks which messages cite each source, so a UI can show cross-message
// citation counts without duplicate entries.
//
// Registry computation is pure and side-effect-free: it is always rebuilt
// from the message log and never independently authoritative.
package source

import "time"

// Confidence band thresholds. Confidence is a calibration score in [0, 1],
// not a probability guarantee.
const (
	// HighConfidenceThreshold is the minimum confidence for the High band.
	HighConfidenceThreshold = 0.8

	// MediumConfidenceThreshold is the minimum confidence for the Medium band.
	MediumConfidenceThreshold = 0.6
)

// Band classifies a confidence score.
type Band string

// Confidence bands, highest first.
const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandFor returns the confidence band for a score.
func BandFor(confidence float64) Band {
	switch {
	case confidence >= HighConfidenceThreshold:
		return BandHigh
	case confidence >= MediumConfidenceThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Source is a cited excerpt attached to an assistant message.
type Source struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Excerpt    string  `json:"excerpt"`
	Page       int     `json:"page"`
	Confidence float64 `json:"confidence"`

	// RetrievedAt is when the excerpt was produced by retrieval.
	// Zero when the backing store does not record it.
	RetrievedAt time.Time `json:"retrievedAt,omitzero"`
}

// Band returns the confidence band of the source.
func (s Source) Band() Band {
	return BandFor(s.Confidence)
}
