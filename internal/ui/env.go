package ui

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/saravenpi/bazaar/internal/chatstore"
	"github.com/saravenpi/bazaar/internal/timeline"
)

// Env carries what every screen needs. Screens are rebuilt on navigation,
// so everything here must be safe to share.
type Env struct {
	Store      *chatstore.Store
	Location   *time.Location
	Anchor     timeline.Anchor
	Now        func() time.Time
	Log        zerolog.Logger
	UnreadOnly bool
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

func (e Env) timelineOptions() timeline.Options {
	return timeline.Options{
		Location: e.Location,
		Anchor:   e.Anchor,
	}
}
