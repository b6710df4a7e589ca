package splitter

import (
	"context"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/openpost/composer/internal/compose"
)

// Splitter breaks long content into fragments that fit a platform's
// character limit. The interface mirrors the external collaborator
// contract so a smarter backend can replace the built-in one.
type Splitter interface {
	Split(ctx context.Context, content, platformID string, strategies []compose.Strategy) ([]string, error)
}

type textSplitter struct {
	reg *compose.Registry
}

func New(reg *compose.Registry) Splitter {
	return &textSplitter{reg: reg}
}

func (s *textSplitter) Split(ctx context.Context, content, platformID string, strategies []compose.Strategy) ([]string, error) {
	limit, err := s.reg.LimitFor(platformID)
	if err != nil {
		return nil, err
	}

	if compose.CountChars(content) <= limit {
		return []string{content}, nil
	}

	body := content
	suffix := ""
	if compose.HasStrategy(strategies, compose.StrategyRetainHashtags) {
		body, suffix = splitTrailingHashtags(content)
	}

	prefix := ""
	if compose.HasStrategy(strategies, compose.StrategyPreserveMentions) {
		prefix = leadingMentions(body)
	}

	// room left for actual text once the carried prefix/suffix are placed
	room := limit
	if suffix != "" {
		room -= compose.CountChars(suffix) + 1
	}
	if prefix != "" {
		room -= compose.CountChars(prefix) + 1
	}
	if room < 1 {
		room = limit
		prefix, suffix = "", ""
	}

	var segments []string
	switch {
	case compose.HasStrategy(strategies, compose.StrategySemantic):
		segments = splitSemantic(body, room)
	case compose.HasStrategy(strategies, compose.StrategySentence):
		segments = splitSentences(body)
	default:
		segments = strings.Fields(body)
	}

	fragments := pack(segments, room)

	for i, frag := range fragments {
		if prefix != "" && i > 0 && !strings.HasPrefix(frag, prefix) {
			frag = prefix + " " + frag
		}
		if suffix != "" {
			frag = frag + "\n" + suffix
		}
		fragments[i] = frag
	}
	return fragments, nil
}

// splitTrailingHashtags peels a trailing hashtag block off the content so
// it can be re-attached to every fragment.
func splitTrailingHashtags(content string) (body, tags string) {
	words := strings.Fields(content)
	i := len(words)
	for i > 0 && strings.HasPrefix(words[i-1], "#") {
		i--
	}
	if i == len(words) {
		return content, ""
	}
	return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
}

// leadingMentions collects the run of @mentions the content opens with.
func leadingMentions(content string) string {
	words := strings.Fields(content)
	i := 0
	for i < len(words) && strings.HasPrefix(words[i], "@") {
		i++
	}
	return strings.Join(words[:i], " ")
}

func splitSemantic(content string, room int) []string {
	var segments []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if compose.CountChars(para) <= room {
			segments = append(segments, para)
			continue
		}
		segments = append(segments, splitSentences(para)...)
	}
	return segments
}

func splitSentences(content string) []string {
	var sentences []string
	var b strings.Builder
	rest := content
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, _ = uniseg.FirstGraphemeClusterInString(rest, -1)
		b.WriteString(cluster)
		if cluster == "." || cluster == "!" || cluster == "?" {
			if rest == "" || strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\n") {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// pack greedily joins segments into fragments no longer than room
// characters. Oversized segments fall back to word wrapping, then to a
// hard grapheme cut for single tokens longer than the room itself.
func pack(segments []string, room int) []string {
	var fragments []string
	var b strings.Builder
	count := 0

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			fragments = append(fragments, s)
		}
		b.Reset()
		count = 0
	}

	var place func(seg string)
	place = func(seg string) {
		n := compose.CountChars(seg)
		if n > room {
			if words := strings.Fields(seg); len(words) > 1 {
				for _, w := range words {
					place(w)
				}
				return
			}
			flush()
			for _, piece := range hardCut(seg, room) {
				fragments = append(fragments, piece)
			}
			return
		}
		sep := 0
		if count > 0 {
			sep = 1
		}
		if count+sep+n > room {
			flush()
			sep = 0
		}
		if sep == 1 {
			b.WriteString(" ")
		}
		b.WriteString(seg)
		count += sep + n
	}

	for _, seg := range segments {
		place(seg)
	}
	flush()
	return fragments
}

func hardCut(s string, room int) []string {
	var pieces []string
	var b strings.Builder
	count := 0
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, _ = uniseg.FirstGraphemeClusterInString(rest, -1)
		if count == room {
			pieces = append(pieces, b.String())
			b.Reset()
			count = 0
		}
		b.WriteString(cluster)
		count++
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}
