package splitter

import (
	"context"
	"strings"
	"testing"

	"github.com/openpost/composer/internal/compose"
)

func TestSplitShortContentUntouched(t *testing.T) {
	s := New(compose.NewRegistry())

	got, err := s.Split(context.Background(), "short post", compose.PlatformBluesky, []compose.Strategy{compose.StrategySentence})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 1 || got[0] != "short post" {
		t.Errorf("expected single untouched fragment, got %q", got)
	}
}

func TestSplitUnknownPlatform(t *testing.T) {
	s := New(compose.NewRegistry())

	if _, err := s.Split(context.Background(), "hello", "myspace", nil); err != compose.ErrUnknownPlatform {
		t.Errorf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestSplitFragmentsFitLimit(t *testing.T) {
	reg := compose.NewRegistry()
	s := New(reg)

	sentence := "This is a fairly ordinary sentence that takes up some room."
	content := strings.TrimSpace(strings.Repeat(sentence+" ", 20))

	tests := []struct {
		name       string
		strategies []compose.Strategy
	}{
		{name: "sentence", strategies: []compose.Strategy{compose.StrategySentence}},
		{name: "semantic", strategies: []compose.Strategy{compose.StrategySemantic}},
		{name: "no strategy falls back to words", strategies: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, err := s.Split(context.Background(), content, compose.PlatformBluesky, tt.strategies)
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(fragments) < 2 {
				t.Fatalf("expected multiple fragments, got %d", len(fragments))
			}
			limit, _ := reg.LimitFor(compose.PlatformBluesky)
			for i, frag := range fragments {
				if n := compose.CountChars(frag); n > limit {
					t.Errorf("fragment %d has %d chars, limit %d", i, n, limit)
				}
			}
			// nothing dropped
			joined := strings.Join(fragments, " ")
			if !strings.Contains(joined, "ordinary sentence") {
				t.Error("fragment text lost content")
			}
		})
	}
}

func TestSplitRetainsTrailingHashtags(t *testing.T) {
	s := New(compose.NewRegistry())

	content := strings.TrimSpace(strings.Repeat("Plenty of words to push this over the bluesky limit. ", 12)) + " #golang #fediverse"
	fragments, err := s.Split(context.Background(), content, compose.PlatformBluesky,
		[]compose.Strategy{compose.StrategySentence, compose.StrategyRetainHashtags})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(fragments))
	}
	for i, frag := range fragments {
		if !strings.Contains(frag, "#golang #fediverse") {
			t.Errorf("fragment %d lost hashtags: %q", i, frag)
		}
	}
}

func TestSplitPreservesLeadingMentions(t *testing.T) {
	s := New(compose.NewRegistry())

	content := "@alice @bob " + strings.TrimSpace(strings.Repeat("Updates on the thing we talked about, in detail. ", 14))
	fragments, err := s.Split(context.Background(), content, compose.PlatformBluesky,
		[]compose.Strategy{compose.StrategySentence, compose.StrategyPreserveMentions})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(fragments))
	}
	for i, frag := range fragments {
		if !strings.Contains(frag, "@alice @bob") {
			t.Errorf("fragment %d lost mentions: %q", i, frag)
		}
	}
}
