package compose

import (
	"encoding/json"
	"fmt"
)

// SelectionEntry is one platform's inclusion flag plus the accounts chosen
// for it. The JSON shape is part of the wire contract with the web client
// and must stay exactly {id, isSelected, accounts?}.
type SelectionEntry struct {
	ID         string  `json:"id"`
	IsSelected bool    `json:"isSelected"`
	Accounts   []int64 `json:"accounts,omitempty"`
}

// Selections is the ordered selection set stored on drafts and posts.
type Selections []SelectionEntry

// ParseSelections decodes a serialized selection set and validates it
// against the registry: platform ids must be unique within the set and
// every selected id must be registered. Parse failures and invalid sets
// never make it past this boundary.
func ParseSelections(data []byte, reg *Registry) (Selections, error) {
	var sels Selections
	if err := json.Unmarshal(data, &sels); err != nil {
		return nil, NewValidationError("selections", "malformed selection set")
	}
	seen := make(map[string]struct{}, len(sels))
	for _, entry := range sels {
		if entry.ID == "" {
			return nil, NewValidationError("selections", "entry missing platform id")
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, NewValidationError("selections", fmt.Sprintf("duplicate platform %s", entry.ID))
		}
		seen[entry.ID] = struct{}{}
		if entry.IsSelected && !reg.Known(entry.ID) {
			return nil, NewValidationError("selections", fmt.Sprintf("unknown platform %s", entry.ID))
		}
	}
	return sels, nil
}

// Encode serializes the set back to its persisted shape, preserving order.
func (s Selections) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Selected returns the entries with the selection flag on, in set order.
func (s Selections) Selected() []SelectionEntry {
	var out []SelectionEntry
	for _, entry := range s {
		if entry.IsSelected {
			out = append(out, entry)
		}
	}
	return out
}

// HasSelection reports whether at least one platform is selected.
func (s Selections) HasSelection() bool {
	for _, entry := range s {
		if entry.IsSelected {
			return true
		}
	}
	return false
}

// AccountIDs collects the account ids across all selected entries.
func (s Selections) AccountIDs() []int64 {
	var ids []int64
	for _, entry := range s {
		if entry.IsSelected {
			ids = append(ids, entry.Accounts...)
		}
	}
	return ids
}
