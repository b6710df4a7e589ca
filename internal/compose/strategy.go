package compose

import "fmt"

// Strategy is a text-splitting strategy tag. The vocabulary is fixed; a
// splitting configuration stores an ordered, non-empty list of these.
type Strategy string

const (
	StrategySemantic         Strategy = "semantic"
	StrategySentence         Strategy = "sentence"
	StrategyRetainHashtags   Strategy = "retain_hashtags"
	StrategyPreserveMentions Strategy = "preserve_mentions"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategySemantic, StrategySentence, StrategyRetainHashtags, StrategyPreserveMentions:
		return true
	}
	return false
}

// ParseStrategies validates a list of strategy tags: non-empty, every tag
// drawn from the fixed vocabulary. Order is preserved.
func ParseStrategies(tags []string) ([]Strategy, error) {
	if len(tags) == 0 {
		return nil, NewValidationError("strategies", "strategy list is empty")
	}
	out := make([]Strategy, 0, len(tags))
	for _, tag := range tags {
		s := Strategy(tag)
		if !s.Valid() {
			return nil, NewValidationError("strategies", fmt.Sprintf("unknown strategy %q", tag))
		}
		out = append(out, s)
	}
	return out, nil
}

// HasStrategy reports whether the list contains the given strategy.
func HasStrategy(strategies []Strategy, want Strategy) bool {
	for _, s := range strategies {
		if s == want {
			return true
		}
	}
	return false
}
