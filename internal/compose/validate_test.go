package compose

import (
	"strings"
	"testing"
)

func selected(ids ...string) Selections {
	var sels Selections
	for _, id := range ids {
		sels = append(sels, SelectionEntry{ID: id, IsSelected: true})
	}
	return sels
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{
			name:     "empty",
			content:  "",
			expected: 0,
		},
		{
			name:     "ascii",
			content:  "hello",
			expected: 5,
		},
		{
			name:     "astral emoji counts as one",
			content:  "hi 😀",
			expected: 4,
		},
		{
			name:     "family emoji zwj sequence counts as one",
			content:  "👨‍👩‍👧‍👦",
			expected: 1,
		},
		{
			name:     "combining accent counts as one",
			content:  "é",
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountChars(tt.content); got != tt.expected {
				t.Errorf("CountChars(%q) = %d, want %d", tt.content, got, tt.expected)
			}
		})
	}
}

func TestCheckTiers(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name         string
		content      string
		platform     string
		wantOver     bool
		wantFraction float64
		wantTier     Tier
	}{
		{
			name:         "well under limit",
			content:      strings.Repeat("a", 100),
			platform:     PlatformBluesky,
			wantOver:     false,
			wantFraction: 100.0 / 300.0,
			wantTier:     TierNormal,
		},
		{
			name:         "at ninety percent",
			content:      strings.Repeat("a", 270),
			platform:     PlatformBluesky,
			wantOver:     false,
			wantFraction: 0.9,
			wantTier:     TierWarning,
		},
		{
			name:         "exactly at limit is warning not over",
			content:      strings.Repeat("a", 300),
			platform:     PlatformBluesky,
			wantOver:     false,
			wantFraction: 1.0,
			wantTier:     TierWarning,
		},
		{
			name:         "one over limit",
			content:      strings.Repeat("a", 301),
			platform:     PlatformBluesky,
			wantOver:     true,
			wantFraction: 1.0,
			wantTier:     TierOver,
		},
		{
			name:         "mastodon has a longer limit",
			content:      strings.Repeat("a", 301),
			platform:     PlatformMastodon,
			wantOver:     false,
			wantFraction: 301.0 / 500.0,
			wantTier:     TierNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks, err := Check(tt.content, selected(tt.platform), reg)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if len(checks) != 1 {
				t.Fatalf("expected 1 check, got %d", len(checks))
			}
			c := checks[0]
			if c.OverLimit != tt.wantOver {
				t.Errorf("OverLimit = %v, want %v", c.OverLimit, tt.wantOver)
			}
			if c.Fraction != tt.wantFraction {
				t.Errorf("Fraction = %v, want %v", c.Fraction, tt.wantFraction)
			}
			if c.Tier != tt.wantTier {
				t.Errorf("Tier = %q, want %q", c.Tier, tt.wantTier)
			}
		})
	}
}

func TestCheckSkipsUnselected(t *testing.T) {
	reg := NewRegistry()
	sels := Selections{
		{ID: PlatformBluesky, IsSelected: true},
		{ID: PlatformMastodon, IsSelected: false},
	}

	checks, err := Check("hello", sels, reg)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(checks) != 1 || checks[0].PlatformID != PlatformBluesky {
		t.Errorf("expected a single bluesky check, got %+v", checks)
	}
}

func TestCheckUnknownPlatform(t *testing.T) {
	reg := NewRegistry()
	if _, err := Check("hello", selected("myspace"), reg); err != ErrUnknownPlatform {
		t.Errorf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestCanSubmit(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name     string
		content  string
		sels     Selections
		expected bool
	}{
		{
			name:     "empty selection set",
			content:  "hello",
			sels:     nil,
			expected: false,
		},
		{
			name:     "nothing selected",
			content:  "hello",
			sels:     Selections{{ID: PlatformBluesky, IsSelected: false}},
			expected: false,
		},
		{
			name:     "empty content",
			content:  "",
			sels:     selected(PlatformBluesky),
			expected: false,
		},
		{
			name:     "content at limit submits",
			content:  strings.Repeat("a", 300),
			sels:     selected(PlatformBluesky),
			expected: true,
		},
		{
			name:     "content over limit blocks",
			content:  strings.Repeat("a", 301),
			sels:     selected(PlatformBluesky),
			expected: false,
		},
		{
			name:     "one platform over blocks all",
			content:  strings.Repeat("a", 400),
			sels:     selected(PlatformBluesky, PlatformMastodon),
			expected: false,
		},
		{
			name:     "all platforms within limit",
			content:  strings.Repeat("a", 400),
			sels:     selected(PlatformMastodon, PlatformThreads),
			expected: true,
		},
		{
			name:     "unknown selected platform blocks",
			content:  "hello",
			sels:     selected("myspace"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSubmit(tt.content, tt.sels, reg); got != tt.expected {
				t.Errorf("CanSubmit = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRegistryReseed(t *testing.T) {
	reg := NewRegistry()

	reg.Reseed("x", 280)
	limit, err := reg.LimitFor("x")
	if err != nil || limit != 280 {
		t.Fatalf("LimitFor(x) = %d, %v", limit, err)
	}

	// idempotent by id, keeps position
	before := len(reg.Platforms())
	reg.Reseed("x", 280)
	if got := len(reg.Platforms()); got != before {
		t.Errorf("reseed duplicated platform: %d entries, want %d", got, before)
	}

	if _, err := reg.LimitFor("friendster"); err != ErrUnknownPlatform {
		t.Errorf("expected ErrUnknownPlatform, got %v", err)
	}
}
