package compose

import (
	"reflect"
	"testing"
)

func TestParseSelections(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "valid set",
			data: `[{"id":"bluesky","isSelected":true,"accounts":[1,2]},{"id":"mastodon","isSelected":false}]`,
		},
		{
			name:    "malformed json",
			data:    `[{"id":"bluesky"`,
			wantErr: true,
		},
		{
			name:    "duplicate platform id",
			data:    `[{"id":"bluesky","isSelected":true},{"id":"bluesky","isSelected":false}]`,
			wantErr: true,
		},
		{
			name:    "missing platform id",
			data:    `[{"isSelected":true}]`,
			wantErr: true,
		},
		{
			name:    "selected platform not in registry",
			data:    `[{"id":"myspace","isSelected":true}]`,
			wantErr: true,
		},
		{
			name: "unknown platform tolerated while unselected",
			data: `[{"id":"myspace","isSelected":false}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelections([]byte(tt.data), reg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSelections error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestSelectionsRoundTrip(t *testing.T) {
	reg := NewRegistry()
	original := Selections{
		{ID: PlatformMastodon, IsSelected: true, Accounts: []int64{4}},
		{ID: PlatformBluesky, IsSelected: true, Accounts: []int64{1, 2}},
		{ID: PlatformThreads, IsSelected: false},
	}

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parsed, err := ParseSelections(data, reg)
	if err != nil {
		t.Fatalf("ParseSelections: %v", err)
	}

	if !reflect.DeepEqual(original, parsed) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, original)
	}

	// order must survive the trip
	if parsed[0].ID != PlatformMastodon || parsed[1].ID != PlatformBluesky {
		t.Errorf("platform order not preserved: %+v", parsed)
	}
}

func TestSelectionsAccountIDs(t *testing.T) {
	sels := Selections{
		{ID: PlatformBluesky, IsSelected: true, Accounts: []int64{1, 2}},
		{ID: PlatformMastodon, IsSelected: false, Accounts: []int64{3}},
		{ID: PlatformThreads, IsSelected: true, Accounts: []int64{4}},
	}

	got := sels.AccountIDs()
	want := []int64{1, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AccountIDs = %v, want %v", got, want)
	}
}
