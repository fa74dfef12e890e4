package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/saravenpi/bazaar/internal/chatstore"
	"github.com/saravenpi/bazaar/internal/logging"
	"github.com/saravenpi/bazaar/internal/timeline"
)

func newTimelineCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <room-id|participant-id>",
		Short: "Print a chat room's render-ready timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup()
			if err != nil {
				return err
			}
			defer a.closer.Close()

			roomID, err := a.resolveRoom(args[0])
			if err != nil {
				return err
			}
			msgs, err := a.env.Store.Messages(roomID)
			if err != nil {
				return err
			}
			log := logging.WithRoom(roomID)
			log.Debug().Int("messages", len(msgs)).Msg("building timeline")

			entries := timeline.Build(msgs, timeline.Options{
				Location: a.env.Location,
				Anchor:   a.env.Anchor,
			})
			return writeTimeline(cmd.OutOrStdout(), entries, time.Now(), a.env.Location)
		},
	}
}

// resolveRoom accepts a room id, or a participant id when exactly one room is
// held with that participant.
func (a *app) resolveRoom(arg string) (string, error) {
	_, err := a.env.Store.Room(arg)
	if err == nil || !errors.Is(err, chatstore.ErrRoomNotFound) {
		return arg, err
	}

	p, ok := a.catalog.FindParticipant(arg)
	if !ok {
		return "", err
	}
	rooms, roomsErr := a.env.Store.Rooms(chatstore.FilterAll)
	if roomsErr != nil {
		return "", roomsErr
	}
	var matches []string
	for _, room := range rooms {
		if room.Participant.ID == p.ID {
			matches = append(matches, room.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", err
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s has %d chat rooms, pass a room id: %v", p.Name, len(matches), matches)
	}
}

// writeTimeline prints entries newest first, one row per message, with day
// markers worded relative to now on their own line above the anchored message.
func writeTimeline(out io.Writer, entries []timeline.Entry, now time.Time, loc *time.Location) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no messages")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		if e.ShowDayMarker {
			fmt.Fprintf(tw, "-- %s --\t\t\t\n", e.DayMarker(now, loc))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.TimeLabel, e.Side, e.Message.ID, e.Message.Text)
	}
	return tw.Flush()
}
