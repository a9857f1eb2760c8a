// Package timeline maps a playback position onto a lyric line for the
// karaoke display. The synthesis provider returns no word- or line-level
// timing, so every line is assumed to occupy an equal slice of the track.
// That approximation is the product's visible behavior and is kept as is.
package timeline

import (
	"math"
	"strings"
)

// SplitLines splits raw lyric text into trimmed, non-empty lines. The
// result is fixed for the life of a playback session; recompute only when
// the lyric text itself changes.
func SplitLines(lyrics string) []string {
	raw := strings.Split(lyrics, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// LineAt returns the index of the line considered current at the given
// playback position. lead is added to the position first so the highlight
// slightly precedes the audio. ok is false when no line can be current:
// no lines, or duration not yet known (zero, negative, NaN or Inf).
func LineAt(lines []string, duration, position, lead float64) (int, bool) {
	n := len(lines)
	if n == 0 {
		return 0, false
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, false
	}
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return 0, false
	}

	perLine := duration / float64(n)
	idx := int(math.Floor((position + lead) / perLine))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx, true
}

// Session tracks the highlighted line across position updates so callers
// can fire scroll or push side effects only when the index actually moves
// while playback is active.
type Session struct {
	lines []string
	lead  float64
	index int
	known bool
}

// NewSession builds a session for one lyric text. lead is the fixed
// highlight lead time in seconds; pass 0 to disable it.
func NewSession(lyrics string, lead float64) *Session {
	return &Session{
		lines: SplitLines(lyrics),
		lead:  lead,
		index: -1,
	}
}

// Lines returns the session's lyric lines.
func (s *Session) Lines() []string {
	return s.lines
}

// Advance recomputes the current line for a position update. changed is
// true only when playback is active and the index moved, which is the
// only condition under which the caller should scroll; paused updates and
// repeats must not cause jitter.
func (s *Session) Advance(duration, position float64, playing bool) (index int, changed, ok bool) {
	idx, ok := LineAt(s.lines, duration, position, s.lead)
	if !ok {
		s.known = false
		return 0, false, false
	}

	changed = playing && (!s.known || idx != s.index)
	s.index = idx
	s.known = true
	return idx, changed, true
}
