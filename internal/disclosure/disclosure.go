// Package disclosure keeps at most one swipeable list row open at a time.
//
// A Tracker belongs to a single list instance. Rows report their own
// open/close transitions; the tracker answers with close instructions for
// whichever other row has to give up the open slot. All methods are total:
// unknown or stale row ids are ignored rather than treated as errors.
package disclosure

import "github.com/rs/zerolog"

// CloseFunc receives a "close row" instruction for the rendering surface.
type CloseFunc func(rowID string)

type Option func(*Tracker)

// WithLogger attaches a logger for state transitions (debug level).
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

type Tracker struct {
	open    string
	hasOpen bool
	onClose CloseFunc
	log     zerolog.Logger
}

// New returns a tracker with no row open. onClose may be nil when the
// caller only consumes return values.
func New(onClose CloseFunc, opts ...Option) *Tracker {
	t := &Tracker{onClose: onClose, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NotifyOpened records rowID as the open row. A different previously open
// row is closed first and returned.
func (t *Tracker) NotifyOpened(rowID string) (string, bool) {
	var closed string
	var ok bool
	if t.hasOpen && t.open != rowID {
		closed, ok = t.open, true
		t.emitClose(closed)
	}
	t.open, t.hasOpen = rowID, true
	t.log.Debug().Str("row", rowID).Str("closed", closed).Msg("row opened")
	return closed, ok
}

// NotifyClosed clears the open slot only if rowID still holds it. Late
// close notifications from a superseded row are ignored.
func (t *Tracker) NotifyClosed(rowID string) bool {
	if !t.hasOpen || t.open != rowID {
		return false
	}
	t.clear()
	t.log.Debug().Str("row", rowID).Msg("row closed")
	return true
}

// Activate handles a press on rowID. While any row is open the press only
// closes it and the primary action is suppressed.
func (t *Tracker) Activate(rowID string) (navigate bool) {
	if !t.hasOpen {
		return true
	}
	open := t.open
	t.clear()
	t.emitClose(open)
	t.log.Debug().Str("row", rowID).Str("closed", open).Msg("activation suppressed")
	return false
}

// ActivateOutside handles a press outside every row.
func (t *Tracker) ActivateOutside() bool {
	if !t.hasOpen {
		return false
	}
	open := t.open
	t.clear()
	t.emitClose(open)
	t.log.Debug().Str("closed", open).Msg("outside activation")
	return true
}

// Forget drops rowID without emitting a close, for rows that left the list.
func (t *Tracker) Forget(rowID string) {
	if t.hasOpen && t.open == rowID {
		t.clear()
	}
}

func (t *Tracker) IsOpen(rowID string) bool {
	return t.hasOpen && t.open == rowID
}

// Open returns the currently open row, if any.
func (t *Tracker) Open() (string, bool) {
	return t.open, t.hasOpen
}

func (t *Tracker) clear() {
	t.open, t.hasOpen = "", false
}

func (t *Tracker) emitClose(rowID string) {
	if t.onClose != nil {
		t.onClose(rowID)
	}
}
