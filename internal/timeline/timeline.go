// Package timeline turns a room's messages into render-ready thread entries.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/saravenpi/bazaar/internal/models"
)

type Side string

const (
	SideMine   Side = "mine"
	SideTheirs Side = "theirs"
)

// Anchor selects which message of a calendar day carries the day marker.
type Anchor int

const (
	// AnchorOldest marks the chronologically earliest message of each day.
	// On an inverted (bottom-up) surface the marker renders directly above it.
	AnchorOldest Anchor = iota
	// AnchorNewest marks the first message of each day in newest-first
	// reading order, i.e. the chronologically latest one.
	AnchorNewest
)

// ParseAnchor accepts "oldest" or "newest".
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "", "oldest":
		return AnchorOldest, nil
	case "newest":
		return AnchorNewest, nil
	default:
		return AnchorOldest, fmt.Errorf("unknown timeline anchor %q", s)
	}
}

func (a Anchor) String() string {
	if a == AnchorNewest {
		return "newest"
	}
	return "oldest"
}

type Options struct {
	Location *time.Location // viewer time zone, defaults to time.Local
	Anchor   Anchor
}

type Entry struct {
	Message       models.Message
	ShowDayMarker bool
	Side          Side
	TimeLabel     string
}

// DayMarker words the entry's day marker relative to now, or returns "" when
// the entry carries none.
func (e Entry) DayMarker(now time.Time, loc *time.Location) string {
	if !e.ShowDayMarker {
		return ""
	}
	return DayLabel(e.Message.CreatedAt, now, loc)
}

// Build orders msgs newest-first and annotates each position. The result
// depends only on msgs and opts; the input slice is not modified.
func Build(msgs []models.Message, opts Options) []Entry {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	sorted := append([]models.Message(nil), msgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	out := make([]Entry, len(sorted))
	for i, msg := range sorted {
		var neighbor *models.Message
		switch opts.Anchor {
		case AnchorNewest:
			if i > 0 {
				neighbor = &sorted[i-1]
			}
		default:
			if i+1 < len(sorted) {
				neighbor = &sorted[i+1]
			}
		}

		out[i] = Entry{
			Message:       msg,
			ShowDayMarker: neighbor == nil || !SameDay(msg.CreatedAt, neighbor.CreatedAt, loc),
			Side:          SideFor(msg),
			TimeLabel:     TimeLabel(msg.CreatedAt, loc),
		}
	}
	return out
}

// Chronological returns a reversed copy of entries, oldest first.
func Chronological(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

func SideFor(msg models.Message) Side {
	if msg.Mine {
		return SideMine
	}
	return SideTheirs
}

// TimeLabel formats ms as a zero-padded 24-hour "HH:MM" in loc.
func TimeLabel(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format("15:04")
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b int64, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := time.UnixMilli(a).In(loc).Date()
	by, bm, bd := time.UnixMilli(b).In(loc).Date()
	return ay == by && am == bm && ad == bd
}
