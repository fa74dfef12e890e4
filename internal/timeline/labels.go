package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saravenpi/bazaar/internal/models"
)

// DayLabel names the calendar day of ms relative to now, both in loc.
func DayLabel(ms int64, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(ms).In(loc)
	days := calendarDays(t, now.In(loc))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return t.Weekday().String()
	default:
		return t.Format("January 2, 2006")
	}
}

// calendarDays counts midnights between t and now; negative when t is later.
func calendarDays(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// RelativeLabel is the chat list's "time ago" wording.
func RelativeLabel(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	}
	if duration < time.Hour {
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	}
	if duration < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
	return t.Format("Jan 2")
}

// NewMessage builds an outgoing message stamped at now.
func NewMessage(roomID, text string, now time.Time) models.Message {
	read := false
	return models.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Text:      strings.TrimSpace(text),
		Mine:      true,
		CreatedAt: now.UnixMilli(),
		Read:      &read,
	}
}
