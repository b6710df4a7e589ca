package compose

import (
	"github.com/rivo/uniseg"
)

// Tier classifies how close a composition is to a platform's limit.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierWarning Tier = "warning"
	TierOver    Tier = "over"
)

const warningFraction = 0.9

// PlatformCheck is the per-platform result of validating a composition.
type PlatformCheck struct {
	PlatformID string  `json:"id"`
	Count      int     `json:"count"`
	Limit      int     `json:"limit"`
	OverLimit  bool    `json:"overLimit"`
	Fraction   float64 `json:"fraction"`
	Tier       Tier    `json:"tier"`
}

// CountChars counts user-perceived characters (grapheme clusters), which is
// what every platform's composer UI shows. Byte and rune counts both
// overcount emoji and combining sequences.
func CountChars(content string) int {
	return uniseg.GraphemeClusterCount(content)
}

// Check evaluates the composition against every selected platform in the
// set. An unknown selected platform fails with ErrUnknownPlatform rather
// than being skipped.
func Check(content string, sels Selections, reg *Registry) ([]PlatformCheck, error) {
	count := CountChars(content)

	var checks []PlatformCheck
	for _, entry := range sels {
		if !entry.IsSelected {
			continue
		}
		limit, err := reg.LimitFor(entry.ID)
		if err != nil {
			return nil, err
		}

		fraction := float64(count) / float64(limit)
		if fraction > 1.0 {
			fraction = 1.0
		}

		over := count > limit
		tier := TierNormal
		switch {
		case over:
			tier = TierOver
		case fraction >= warningFraction:
			// count == limit lands here: full but still postable
			tier = TierWarning
		}

		checks = append(checks, PlatformCheck{
			PlatformID: entry.ID,
			Count:      count,
			Limit:      limit,
			OverLimit:  over,
			Fraction:   fraction,
			Tier:       tier,
		})
	}
	return checks, nil
}

// CanSubmit is the submit gate: at least one platform selected, non-empty
// content, and no selected platform over its limit. It is a pure function
// of its inputs and is evaluated identically here and in the client.
func CanSubmit(content string, sels Selections, reg *Registry) bool {
	if content == "" || !sels.HasSelection() {
		return false
	}
	checks, err := Check(content, sels, reg)
	if err != nil {
		return false
	}
	for _, c := range checks {
		if c.OverLimit {
			return false
		}
	}
	return true
}
