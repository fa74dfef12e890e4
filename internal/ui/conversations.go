package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/bazaar/internal/chatstore"
	"github.com/saravenpi/bazaar/internal/disclosure"
	"github.com/saravenpi/bazaar/internal/models"
	"github.com/saravenpi/bazaar/internal/timeline"
)

type chatItem struct {
	chat models.ChatRoom
	open bool
	now  time.Time
}

type chatsFetchedMsg struct {
	chats []models.ChatRoom
	err   error
}

func (i chatItem) Title() string {
	title := i.chat.Participant.Name
	if badge := models.UnreadBadge(i.chat.UnreadCount); badge != "" {
		title += " " + badgeStyle.Render(badge)
	}
	return title
}

func (i chatItem) Description() string {
	preview := i.chat.LastMessage.Content
	if preview == "" {
		preview = "No messages yet"
	}
	if len([]rune(preview)) > 50 {
		preview = string([]rune(preview)[:47]) + "..."
	}
	desc := fmt.Sprintf("%s • %s", timeline.RelativeLabel(i.chat.LastMessage.Timestamp, i.now), preview)
	if i.open {
		desc += "  " + deleteTrayStyle.Render("d: delete")
	}
	return desc
}

func (i chatItem) FilterValue() string {
	return i.chat.Participant.Name
}

// closeQueue collects close instructions from the disclosure tracker until
// the model applies them to its rows.
type closeQueue struct {
	rows []string
}

func (q *closeQueue) push(rowID string) { q.rows = append(q.rows, rowID) }

func (q *closeQueue) drain() []string {
	rows := q.rows
	q.rows = nil
	return rows
}

type ConversationsModel struct {
	env          Env
	chats        []models.ChatRoom
	list         list.Model
	rows         *disclosure.Tracker
	closes       *closeQueue
	filter       chatstore.Filter
	loading      bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewConversationsModel(env Env) ConversationsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	l := list.New([]list.Item{}, newDelegate(), 80, 20)
	l.Title = "Chats"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	filter := chatstore.FilterAll
	if env.UnreadOnly {
		filter = chatstore.FilterUnread
	}

	closes := &closeQueue{}
	return ConversationsModel{
		env:          env,
		list:         l,
		rows:         disclosure.New(closes.push, disclosure.WithLogger(env.Log)),
		closes:       closes,
		filter:       filter,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ConversationsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchChatsCmd())
}

func (m ConversationsModel) fetchChatsCmd() tea.Cmd {
	store, filter := m.env.Store, m.filter
	return func() tea.Msg {
		chats, err := store.Rooms(filter)
		return chatsFetchedMsg{chats: chats, err: err}
	}
}

func (m ConversationsModel) selectedID() (string, bool) {
	item, ok := m.list.SelectedItem().(chatItem)
	if !ok {
		return "", false
	}
	return item.chat.ID, true
}

// drainCloses consumes pending close instructions and reports whether any
// row was closed.
func (m *ConversationsModel) drainCloses() bool {
	closed := m.closes.drain()
	if len(closed) == 0 {
		return false
	}
	m.env.Log.Debug().Strs("rows", closed).Msg("closing rows")
	return true
}

// applyCloses re-renders the rows when close instructions were pending.
func (m *ConversationsModel) applyCloses() {
	if m.drainCloses() {
		m.syncRows()
	}
}

// syncRows rebuilds list items so each row's open flag mirrors the tracker.
func (m *ConversationsModel) syncRows() {
	now := m.env.now()
	items := make([]list.Item, len(m.chats))
	for i, chat := range m.chats {
		items[i] = chatItem{chat: chat, open: m.rows.IsOpen(chat.ID), now: now}
	}
	m.list.SetItems(items)
}

func (m ConversationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case chatsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.chats = msg.chats
		if open, ok := m.rows.Open(); ok && !m.hasChat(open) {
			m.rows.Forget(open)
		}
		m.syncRows()
		m.list.Title = fmt.Sprintf("%s - %d", m.filter, len(m.chats))
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "esc":
			// Outside tap: close an open row, otherwise leave the screen.
			if m.rows.ActivateOutside() {
				m.applyCloses()
				return m, nil
			}
			if m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}
			return navigate(NewMenuModel(m.env), m.windowWidth, m.windowHeight)
		}

		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "right", "l":
			if id, ok := m.selectedID(); ok {
				m.rows.NotifyOpened(id)
				m.drainCloses()
				m.syncRows()
			}
			return m, nil

		case "left", "h":
			if id, ok := m.selectedID(); ok && m.rows.NotifyClosed(id) {
				m.syncRows()
			}
			return m, nil

		case "enter":
			id, ok := m.selectedID()
			if !ok {
				return m, nil
			}
			if !m.rows.Activate(id) {
				m.applyCloses()
				return m, nil
			}
			item := m.list.SelectedItem().(chatItem)
			m.env.Log.Info().Str("room", id).Msg("opening chat")
			return navigate(NewMessagesModel(m.env, item.chat), m.windowWidth, m.windowHeight)

		case "d":
			id, ok := m.selectedID()
			if !ok || !m.rows.IsOpen(id) {
				return m, nil
			}
			if err := m.env.Store.Delete(id); err != nil {
				m.err = err
				return m, nil
			}
			m.rows.Forget(id)
			return m, m.fetchChatsCmd()

		case "f":
			if m.rows.ActivateOutside() {
				m.applyCloses()
			}
			m.filter = m.filter.Toggle()
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchChatsCmd())

		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchChatsCmd())
		}

		// Moving the cursor off an open row counts as touching outside it.
		before, _ := m.selectedID()
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if after, _ := m.selectedID(); after != before && m.rows.ActivateOutside() {
			m.applyCloses()
		}
		return m, cmd
	}

	return m, nil
}

func (m ConversationsModel) hasChat(id string) bool {
	for _, c := range m.chats {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (m ConversationsModel) View() string {
	if m.loading && len(m.chats) == 0 {
		return fmt.Sprintf("\n  %s Loading chats...\n", m.spinner.View())
	}

	if m.err != nil {
		s := titleStyle.Render("Chats") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("r: refresh • esc: back • q: quit")
		return s
	}

	if len(m.chats) == 0 {
		s := titleStyle.Render(m.filter.String()) + "\n\n"
		s += normalStyle.Render("  No chats yet. Open a product listing and press enter to start one.") + "\n"
		s += "\n" + helpStyle.Render("f: toggle unread • r: refresh • esc: back • q: quit")
		return s
	}

	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: open • →/l: actions • ←/h: close • f: unread only • /: search • esc: back")

	return s
}
