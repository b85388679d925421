package chunker

import (
	"strings"
	"unicode/utf8"
)

// Splitter recursively splits text on a priority list of separators until
// every segment fits the target size. Lengths are counted in runes.
//
// Each separator stays attached to the start of the piece that follows it.
// Segments are whitespace-trimmed and overlap is produced by carrying the
// trailing pieces of one segment into the next.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter. The last separator should be "" so any
// text can be split down to single characters.
func NewSplitter(chunkSize, overlap int, separators []string) *Splitter {
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: separators,
	}
}

// Split returns the segments of text in order.
func (s *Splitter) Split(text string) []string {
	if len(s.separators) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	// Use the first separator present in the text; finer ones are kept for
	// pieces that are still too long.
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var out, fitting []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				out = append(out, t)
			}
			continue
		}
		out = append(out, s.split(piece, finer)...)
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting)...)
	}
	return out
}

// merge packs pieces into segments no longer than chunkSize, starting each
// new segment with up to overlap runes of trailing pieces.
func (s *Splitter) merge(pieces []string) []string {
	var segments, current []string
	total := 0

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if seg := strings.TrimSpace(strings.Join(current, "")); seg != "" {
				segments = append(segments, seg)
			}
			for len(current) > 0 && (total > s.overlap || total+n > s.chunkSize) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if seg := strings.TrimSpace(strings.Join(current, "")); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

// splitKeepingSeparator splits text on sep, prefixing every piece after the
// first with the separator. An empty separator splits into runes.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
