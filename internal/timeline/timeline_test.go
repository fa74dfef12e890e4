package timeline

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saravenpi/bazaar/internal/models"
)

var seoul = time.FixedZone("KST", 9*60*60)

func at(year int, month time.Month, day, hour, min int) int64 {
	return time.Date(year, month, day, hour, min, 0, 0, seoul).UnixMilli()
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message.ID
	}
	return out
}

func markers(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		if e.ShowDayMarker {
			out = append(out, e.Message.ID)
		}
	}
	return out
}

func scenario() []models.Message {
	return []models.Message{
		{ID: "d1-1000", Text: "hi", Mine: true, CreatedAt: at(2024, 1, 14, 10, 0)},
		{ID: "d1-1005", Text: "hello", Mine: false, CreatedAt: at(2024, 1, 14, 10, 5)},
		{ID: "d2-0900", Text: "still available?", Mine: true, CreatedAt: at(2024, 1, 15, 9, 0)},
	}
}

func TestBuild_OrdersNewestFirst(t *testing.T) {
	entries := Build(scenario(), Options{Location: seoul})
	require.Equal(t, []string{"d2-0900", "d1-1005", "d1-1000"}, ids(entries))
	require.Equal(t, SideMine, entries[0].Side)
	require.Equal(t, SideTheirs, entries[1].Side)
	require.Equal(t, "09:00", entries[0].TimeLabel)
	require.Equal(t, "10:05", entries[1].TimeLabel)
}

func TestBuild_AnchorOldestMarksEarliestOfDay(t *testing.T) {
	entries := Build(scenario(), Options{Location: seoul})
	require.Equal(t, []string{"d2-0900", "d1-1000"}, markers(entries))
}

func TestBuild_AnchorNewestMarksLatestOfDay(t *testing.T) {
	entries := Build(scenario(), Options{Location: seoul, Anchor: AnchorNewest})
	require.Equal(t, []string{"d2-0900", "d1-1005"}, markers(entries))
}

func TestBuild_EmptyAndSingle(t *testing.T) {
	empty := Build(nil, Options{})
	require.NotNil(t, empty)
	require.Len(t, empty, 0)

	single := Build([]models.Message{{ID: "only", CreatedAt: at(2024, 1, 15, 21, 0)}}, Options{Location: seoul})
	require.Len(t, single, 1)
	require.True(t, single[0].ShowDayMarker)
	require.NotEmpty(t, single[0].DayMarker(time.Date(2024, 1, 15, 22, 0, 0, 0, seoul), seoul))

	single = Build([]models.Message{{ID: "only", CreatedAt: at(2024, 1, 15, 21, 0)}}, Options{Location: seoul, Anchor: AnchorNewest})
	require.True(t, single[0].ShowDayMarker)
}

func TestBuild_TiesKeepInputOrder(t *testing.T) {
	ts := at(2024, 1, 15, 12, 0)
	msgs := []models.Message{
		{ID: "a", CreatedAt: ts},
		{ID: "b", CreatedAt: ts},
		{ID: "newer", CreatedAt: ts + 1000},
		{ID: "c", CreatedAt: ts},
	}
	entries := Build(msgs, Options{Location: seoul})
	require.Equal(t, []string{"newer", "a", "b", "c"}, ids(entries))
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	msgs := scenario()
	Build(msgs, Options{Location: seoul})
	require.Equal(t, "d1-1000", msgs[0].ID)
	require.Equal(t, "d2-0900", msgs[2].ID)
}

func TestBuild_OneMarkerPerDay(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, seoul)

	seen := map[int64]bool{}
	var msgs []models.Message
	for len(msgs) < 200 {
		ts := base.Add(time.Duration(rng.Int63n(int64(10 * 24 * time.Hour)))).Truncate(time.Second).UnixMilli()
		if seen[ts] {
			continue
		}
		seen[ts] = true
		msgs = append(msgs, models.Message{ID: time.UnixMilli(ts).String(), CreatedAt: ts, Mine: rng.Intn(2) == 0})
	}

	for _, anchor := range []Anchor{AnchorOldest, AnchorNewest} {
		entries := Build(msgs, Options{Location: seoul, Anchor: anchor})
		require.Len(t, entries, len(msgs))

		dayKey := func(ms int64) string { return time.UnixMilli(ms).In(seoul).Format("2006-01-02") }
		earliest := map[string]int64{}
		latest := map[string]int64{}
		for _, m := range msgs {
			k := dayKey(m.CreatedAt)
			if v, ok := earliest[k]; !ok || m.CreatedAt < v {
				earliest[k] = m.CreatedAt
			}
			if m.CreatedAt > latest[k] {
				latest[k] = m.CreatedAt
			}
		}

		marked := map[string]int{}
		for i, e := range entries {
			if i > 0 {
				require.Greater(t, entries[i-1].Message.CreatedAt, e.Message.CreatedAt)
			}
			if !e.ShowDayMarker {
				require.Empty(t, e.DayMarker(time.Now(), time.UTC))
				continue
			}
			k := dayKey(e.Message.CreatedAt)
			marked[k]++
			if anchor == AnchorOldest {
				require.Equal(t, earliest[k], e.Message.CreatedAt)
			} else {
				require.Equal(t, latest[k], e.Message.CreatedAt)
			}
		}
		require.Len(t, marked, len(earliest))
		for _, n := range marked {
			require.Equal(t, 1, n)
		}
	}
}

func TestBuild_DayBoundaryFollowsLocation(t *testing.T) {
	// 23:30 and 00:30 UTC are the same day in Seoul but not in UTC.
	msgs := []models.Message{
		{ID: "late", CreatedAt: time.Date(2024, 1, 14, 23, 30, 0, 0, time.UTC).UnixMilli()},
		{ID: "early", CreatedAt: time.Date(2024, 1, 15, 0, 30, 0, 0, time.UTC).UnixMilli()},
	}
	require.Len(t, markers(Build(msgs, Options{Location: time.UTC})), 2)
	require.Len(t, markers(Build(msgs, Options{Location: seoul})), 1)
}

func TestChronological(t *testing.T) {
	entries := Chronological(Build(scenario(), Options{Location: seoul}))
	require.Equal(t, []string{"d1-1000", "d1-1005", "d2-0900"}, ids(entries))
}

func TestTimeLabel(t *testing.T) {
	require.Equal(t, "09:05", TimeLabel(at(2024, 1, 15, 9, 5), seoul))
	require.Equal(t, "21:00", TimeLabel(at(2024, 1, 15, 21, 0), seoul))
	require.Equal(t, "00:00", TimeLabel(at(2024, 1, 15, 0, 0), seoul))
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, seoul)
	tests := []struct {
		ms   int64
		want string
	}{
		{at(2024, 1, 15, 0, 30), "Today"},
		{at(2024, 1, 14, 23, 59), "Yesterday"},
		{at(2024, 1, 12, 8, 0), "Friday"},
		{at(2024, 1, 8, 8, 0), "January 8, 2024"},
		{at(2023, 12, 31, 8, 0), "December 31, 2023"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DayLabel(tt.ms, now, seoul))
	}
}

func TestEntry_DayMarkerUsesCallerClock(t *testing.T) {
	now := time.Date(2024, 1, 15, 18, 0, 0, 0, seoul)
	entries := Build(scenario(), Options{Location: seoul})
	require.Equal(t, "Today", entries[0].DayMarker(now, seoul))
	require.Equal(t, "", entries[1].DayMarker(now, seoul))
	require.Equal(t, "Yesterday", entries[2].DayMarker(now, seoul))
}

func TestBuild_IndependentOfWallClock(t *testing.T) {
	msgs := []models.Message{{ID: "late", Text: "night", CreatedAt: at(2024, 1, 15, 23, 59)}}

	before := Build(msgs, Options{Location: seoul})
	// Same input on the other side of midnight must not change.
	after := Build(append([]models.Message(nil), msgs...), Options{Location: seoul})
	require.Equal(t, before, after)

	beforeMidnight := time.Date(2024, 1, 15, 23, 59, 59, 0, seoul)
	afterMidnight := time.Date(2024, 1, 16, 0, 0, 1, 0, seoul)
	require.Equal(t, "Today", before[0].DayMarker(beforeMidnight, seoul))
	require.Equal(t, "Yesterday", after[0].DayMarker(afterMidnight, seoul))
}

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2024, 1, 15, 21, 28, 0, 0, seoul)
	require.Equal(t, "just now", RelativeLabel(now.Add(-30*time.Second), now))
	require.Equal(t, "5m ago", RelativeLabel(now.Add(-5*time.Minute), now))
	require.Equal(t, "3h ago", RelativeLabel(now.Add(-3*time.Hour), now))
	require.Equal(t, "2d ago", RelativeLabel(now.Add(-50*time.Hour), now))
	require.Equal(t, "Jan 1", RelativeLabel(time.Date(2024, 1, 1, 9, 0, 0, 0, seoul), now))
	require.Equal(t, "unknown", RelativeLabel(time.Time{}, now))
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, seoul)
	a := NewMessage("room-1", "  hello  ", now)
	b := NewMessage("room-1", "again", now)

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, "hello", a.Text)
	require.True(t, a.Mine)
	require.Equal(t, now.UnixMilli(), a.CreatedAt)
	require.Equal(t, "room-1", a.RoomID)
	require.Equal(t, SideMine, SideFor(a))
}

func TestParseAnchor(t *testing.T) {
	a, err := ParseAnchor("newest")
	require.NoError(t, err)
	require.Equal(t, AnchorNewest, a)

	a, err = ParseAnchor("")
	require.NoError(t, err)
	require.Equal(t, AnchorOldest, a)

	_, err = ParseAnchor("sideways")
	require.Error(t, err)
}
