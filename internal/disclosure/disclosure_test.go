package disclosure

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type closeLog struct {
	rows []string
}

func (c *closeLog) record(rowID string) { c.rows = append(c.rows, rowID) }

func newTracker() (*Tracker, *closeLog) {
	log := &closeLog{}
	return New(log.record), log
}

func TestOpenAThenBClosesA(t *testing.T) {
	tr, log := newTracker()

	_, closed := tr.NotifyOpened("a")
	require.False(t, closed)

	prev, closed := tr.NotifyOpened("b")
	require.True(t, closed)
	require.Equal(t, "a", prev)
	require.Equal(t, []string{"a"}, log.rows)

	open, ok := tr.Open()
	require.True(t, ok)
	require.Equal(t, "b", open)
	require.True(t, tr.IsOpen("b"))
	require.False(t, tr.IsOpen("a"))
}

func TestReopenSameRowEmitsNothing(t *testing.T) {
	tr, log := newTracker()
	tr.NotifyOpened("a")
	tr.NotifyOpened("a")
	require.Empty(t, log.rows)
	require.True(t, tr.IsOpen("a"))
}

func TestActivateOpenRowSuppressesAndCloses(t *testing.T) {
	tr, log := newTracker()
	tr.NotifyOpened("b")

	require.False(t, tr.Activate("b"))
	require.Equal(t, []string{"b"}, log.rows)
	_, ok := tr.Open()
	require.False(t, ok)

	// The row's own close callback arrives afterwards and is harmless.
	require.False(t, tr.NotifyClosed("b"))
	require.Equal(t, []string{"b"}, log.rows)
}

func TestActivateOtherRowWhileOneIsOpen(t *testing.T) {
	tr, log := newTracker()
	tr.NotifyOpened("a")

	require.False(t, tr.Activate("c"))
	require.Equal(t, []string{"a"}, log.rows)
	require.False(t, tr.IsOpen("a"))
	require.False(t, tr.IsOpen("c"))
}

func TestActivateWithNothingOpenNavigates(t *testing.T) {
	tr, log := newTracker()
	require.True(t, tr.Activate("a"))
	require.True(t, tr.Activate("unknown-row"))
	require.Empty(t, log.rows)
}

func TestOutsideActivation(t *testing.T) {
	tr, log := newTracker()

	require.False(t, tr.ActivateOutside())
	require.Empty(t, log.rows)

	tr.NotifyOpened("a")
	require.True(t, tr.ActivateOutside())
	require.Equal(t, []string{"a"}, log.rows)
	_, ok := tr.Open()
	require.False(t, ok)

	require.False(t, tr.ActivateOutside())
	require.Len(t, log.rows, 1)
}

func TestNotifyClosedIsIdempotent(t *testing.T) {
	tr, _ := newTracker()
	tr.NotifyOpened("a")

	require.True(t, tr.NotifyClosed("a"))
	require.False(t, tr.NotifyClosed("a"))
	_, ok := tr.Open()
	require.False(t, ok)
}

func TestStaleCloseDoesNotClearNewerOpen(t *testing.T) {
	tr, log := newTracker()
	tr.NotifyOpened("a")
	tr.NotifyOpened("b")

	// a's close animation finishes after b claimed the slot.
	require.False(t, tr.NotifyClosed("a"))
	require.True(t, tr.IsOpen("b"))
	require.Equal(t, []string{"a"}, log.rows)
}

func TestAtMostOneRowOpen(t *testing.T) {
	tr, _ := newTracker()
	rows := []string{"r1", "r2", "r3", "r4"}
	events := []func(){
		func() { tr.NotifyOpened("r1") },
		func() { tr.NotifyOpened("r3") },
		func() { tr.NotifyClosed("r1") },
		func() { tr.NotifyOpened("r2") },
		func() { tr.Activate("r4") },
		func() { tr.NotifyOpened("r4") },
		func() { tr.ActivateOutside() },
		func() { tr.NotifyOpened("r1") },
	}
	for _, ev := range events {
		ev()
		open := 0
		for _, r := range rows {
			if tr.IsOpen(r) {
				open++
			}
		}
		require.LessOrEqual(t, open, 1)
		if id, ok := tr.Open(); ok {
			require.True(t, tr.IsOpen(id))
		} else {
			require.Equal(t, 0, open)
		}
	}
}

func TestForgetDropsWithoutClose(t *testing.T) {
	tr, log := newTracker()
	tr.NotifyOpened("a")
	tr.Forget("b")
	require.True(t, tr.IsOpen("a"))
	tr.Forget("a")
	require.False(t, tr.IsOpen("a"))
	require.Empty(t, log.rows)
}

func TestNilCloseFuncAndLogger(t *testing.T) {
	var buf bytes.Buffer
	tr := New(nil, WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	tr.NotifyOpened("a")
	prev, ok := tr.NotifyOpened("b")
	require.True(t, ok)
	require.Equal(t, "a", prev)
	require.Contains(t, buf.String(), `"row":"b"`)
}
