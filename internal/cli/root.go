// Package cli wires configuration, logging and the data store into the
// bazaar commands.
package cli

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/saravenpi/bazaar/internal/catalog"
	"github.com/saravenpi/bazaar/internal/chatstore"
	"github.com/saravenpi/bazaar/internal/config"
	"github.com/saravenpi/bazaar/internal/logging"
	"github.com/saravenpi/bazaar/internal/ui"
)

type options struct {
	configFile string
	loader     *config.Loader
}

// app is everything a command needs once configuration has been resolved.
type app struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	env     ui.Env
	closer  io.Closer
}

// NewRootCommand builds the bazaar command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "bazaar",
		Short: "Terminal storefront chat client",
		Long: `Bazaar - a terminal storefront with buyer/seller chat.

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Select/Open item
  ESC               Go back (closes an open chat row first)
  q                 Quit from current view

Chats:
  →/l               Reveal the row's delete action
  ←/h               Hide it again
  d                 Delete the chat (while its action is shown)
  f                 Toggle unread-only
  n                 Compose (inside a chat), ctrl+s to send`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup()
			if err != nil {
				return err
			}
			defer a.closer.Close()

			log := logging.Component("cli")
			log.Info().Str("version", version).Msg("starting tui")
			p := tea.NewProgram(ui.NewMenuModel(a.env), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui exited: %w", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ~/.config/bazaar/config.yaml)")
	flags.String("fixtures", "", "directory of *.yml fixture files")
	flags.String("tz", "", "viewer time zone, e.g. Asia/Seoul")
	flags.String("anchor", "", "day marker anchor: oldest or newest")
	flags.Bool("unread", false, "start with the unread-only chat filter")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "log file path")

	bindings := map[string]string{
		"fixtures_dir":    "fixtures",
		"timezone":        "tz",
		"timeline.anchor": "anchor",
		"ui.unread_only":  "unread",
		"logging.level":   "log-level",
		"logging.file":    "log-file",
	}
	for key, flag := range bindings {
		// Only fails for a missing flag, which the table above rules out.
		_ = opts.loader.BindFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newVersionCommand(version))
	root.AddCommand(newTimelineCommand(opts))
	return root
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

func (o *options) setup() (*app, error) {
	if o.configFile != "" {
		o.loader.SetConfigFile(o.configFile)
	}
	cfg, err := o.loader.Load()
	if err != nil {
		return nil, err
	}

	closer, err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		closer.Close()
		return nil, err
	}

	cat, err := catalog.Load(cfg.FixturesDir, time.Now())
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	store, err := chatstore.New(cat, chatstore.WithLogger(logging.Component("chatstore")))
	if err != nil {
		closer.Close()
		return nil, err
	}
	log := logging.Component("cli")
	log.Debug().
		Str("config", o.loader.ConfigFileUsed()).
		Int("rooms", len(cat.Rooms)).
		Msg("configuration loaded")

	return &app{
		cfg:     cfg,
		catalog: cat,
		env:     ui.Env{
			Store:      store,
			Location:   loc,
			Anchor:     cfg.Anchor(),
			Log:        logging.Component("ui"),
			UnreadOnly: cfg.UI.UnreadOnly,
		},
		closer: closers{store, closer},
	}, nil
}

// closers closes each member in order and returns the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Bazaar v%s\n", version)
		},
	}
}
