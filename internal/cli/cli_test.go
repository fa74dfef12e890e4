package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saravenpi/bazaar/internal/models"
	"github.com/saravenpi/bazaar/internal/timeline"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "timezone: UTC\n" +
		"logging:\n" +
		"  level: debug\n" +
		"  file: " + filepath.Join(dir, "bazaar.log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "Bazaar vtest\n", out)
}

func TestTimelineCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "timeline", "1", "--config", cfg)
	require.NoError(t, err)

	require.Contains(t, out, "-- ")
	require.Contains(t, out, "m4")
	require.Contains(t, out, "theirs")
	require.Contains(t, out, "mine")
	require.Less(t, strings.Index(out, "m4"), strings.Index(out, "m1"), "newest first")
}

func TestTimelineCommand_UnknownRoom(t *testing.T) {
	_, err := run(t, "timeline", "nope", "--config", writeConfig(t))
	require.Error(t, err)
}

func TestTimelineCommand_BadAnchorFlag(t *testing.T) {
	_, err := run(t, "timeline", "1", "--config", writeConfig(t), "--anchor", "sideways")
	require.ErrorContains(t, err, "timeline.anchor")
}

func TestTimelineCommand_ByParticipant(t *testing.T) {
	out, err := run(t, "timeline", "USER1", "--config", writeConfig(t))
	require.NoError(t, err)
	require.Contains(t, out, "m4")
}

func TestTimelineCommand_SellerWithoutRoom(t *testing.T) {
	_, err := run(t, "timeline", "user5", "--config", writeConfig(t))
	require.ErrorContains(t, err, "chat room not found")
}

func TestTimelineCommand_EmptyRoom(t *testing.T) {
	out, err := run(t, "timeline", "4", "--config", writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "no messages\n", out)
}

func TestWriteTimeline(t *testing.T) {
	base := time.Date(2024, 1, 15, 9, 5, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: "a", Text: "morning", CreatedAt: base.UnixMilli()},
		{ID: "b", Text: "evening", Mine: true, CreatedAt: base.Add(12 * time.Hour).UnixMilli()},
		{ID: "c", Text: "last night", CreatedAt: base.Add(-12 * time.Hour).UnixMilli()},
	}
	entries := timeline.Build(msgs, timeline.Options{Location: time.UTC})

	var out bytes.Buffer
	require.NoError(t, writeTimeline(&out, entries, base.Add(13*time.Hour), time.UTC))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "21:05"), lines[0])
	require.Contains(t, lines[0], "mine")
	require.Contains(t, lines[1], "-- Today --")
	require.Contains(t, lines[2], "morning")
	require.Contains(t, lines[3], "-- Yesterday --")
	require.Contains(t, lines[4], "last night")
}
