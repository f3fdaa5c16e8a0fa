// Package lyrics parses time-tagged lyric text and tracks the active
// line against a moving playback position.
package lyrics

import (
	"hash/fnv"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is a single timestamped lyric line.
type Line struct {
	Time time.Duration
	Text string
}

// Timeline is an ordered sequence of timestamped lines. An empty
// timeline means the text was absent or carried no timestamps; such
// text is rendered as plain prose without active-line tracking.
type Timeline struct {
	Lines []Line
}

// Empty reports whether the timeline has no timed lines.
func (t Timeline) Empty() bool {
	return len(t.Lines) == 0
}

// Matches tags like [01:23] and [01:23.45].
var tagRe = regexp.MustCompile(`\[(\d{2}):(\d{2}(?:\.\d{2})?)\](.*)`)

// Parse converts raw lyric text into a timeline. Lines without a
// timestamp tag are dropped; a tag with no trailing text keeps a single
// space so rendered layout does not collapse. Text with no tags at all
// yields an empty timeline.
func Parse(raw string) Timeline {
	var tl Timeline
	for line := range strings.SplitSeq(raw, "\n") {
		m := tagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		min, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		sec, err := time.ParseDuration(m[2] + "s")
		if err != nil {
			continue
		}
		text := strings.TrimSpace(m[3])
		if text == "" {
			text = " "
		}
		tl.Lines = append(tl.Lines, Line{
			Time: time.Duration(min)*time.Minute + sec,
			Text: text,
		})
	}
	sort.SliceStable(tl.Lines, func(i, j int) bool {
		return tl.Lines[i].Time < tl.Lines[j].Time
	})
	return tl
}

// Fingerprint hashes raw lyric text so consumers can detect identical
// deliveries and skip rebuilding their view.
func Fingerprint(raw string) uint64 {
	h := fnv.New64a()
	io.WriteString(h, raw) //nolint:errcheck // fnv writes never fail
	return h.Sum64()
}
