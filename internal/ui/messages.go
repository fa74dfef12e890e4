package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saravenpi/bazaar/internal/models"
	"github.com/saravenpi/bazaar/internal/timeline"
)

type messagesFetchedMsg struct {
	messages []models.Message
	err      error
}

type messageSentMsg struct {
	message models.Message
	err     error
}

type MessagesModel struct {
	env           Env
	chat          models.ChatRoom
	messages      []models.Message
	entries       []timeline.Entry
	viewport      viewport.Model
	textarea      textarea.Model
	loading       bool
	composing     bool
	err           error
	spinner       spinner.Model
	windowWidth   int
	windowHeight  int
	viewportReady bool
}

func NewMessagesModel(env Env, chat models.ChatRoom) MessagesModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	return MessagesModel{
		env:           env,
		chat:          chat,
		viewport:      vp,
		textarea:      ta,
		loading:       true,
		spinner:       s,
		windowWidth:   80,
		windowHeight:  30,
		viewportReady: true,
	}
}

func (m MessagesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchMessagesCmd())
}

func (m MessagesModel) fetchMessagesCmd() tea.Cmd {
	store, roomID, log := m.env.Store, m.chat.ID, m.env.Log
	return func() tea.Msg {
		messages, err := store.Messages(roomID)
		if err != nil {
			return messagesFetchedMsg{err: err}
		}

		if err := store.MarkRead(roomID); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("failed to mark chat as read")
		}

		return messagesFetchedMsg{messages: messages}
	}
}

func (m MessagesModel) sendMessageCmd(text string) tea.Cmd {
	store, roomID := m.env.Store, m.chat.ID
	return func() tea.Msg {
		msg, err := store.Send(roomID, text)
		return messageSentMsg{message: msg, err: err}
	}
}

func (m MessagesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.layout()
		m.updateViewportContent()
		return m, nil

	case messagesFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.messages = msg.messages
		m.updateViewportContent()
		m.scrollToNewest()
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.env.Log.Debug().Str("room", m.chat.ID).Str("message", msg.message.ID).Msg("message sent")
		m.textarea.Reset()
		return m, m.fetchMessagesCmd()

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

		if msg.String() == "esc" {
			if m.composing {
				m.composing = false
				m.textarea.Reset()
				m.textarea.Blur()
				m.err = nil
				m.layout()
				return m, nil
			}
			return navigate(NewConversationsModel(m.env), m.windowWidth, m.windowHeight)
		}

		if m.composing {
			switch msg.String() {
			case "ctrl+s":
				text := strings.TrimSpace(m.textarea.Value())
				if text == "" {
					return m, nil
				}
				return m, m.sendMessageCmd(text)
			default:
				var cmd tea.Cmd
				m.textarea, cmd = m.textarea.Update(msg)
				return m, cmd
			}
		}

		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "n", "c":
			m.composing = true
			m.layout()
			cmd := m.textarea.Focus()
			return m, cmd

		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchMessagesCmd())

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *MessagesModel) layout() {
	headerHeight := 8
	textareaHeight := 5
	helpHeight := 2
	availableHeight := m.windowHeight - headerHeight - helpHeight

	m.viewport.Width = m.windowWidth - 4
	m.viewport.Height = availableHeight
	if m.composing {
		m.viewport.Height = availableHeight - textareaHeight
		m.textarea.SetWidth(m.windowWidth - 4)
	}
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

// renderOrder returns entries in on-screen order. Markers anchored to the
// oldest message of a day read top-down chronologically; markers anchored
// to the newest read newest-first.
func (m MessagesModel) renderOrder() []timeline.Entry {
	if m.env.Anchor == timeline.AnchorNewest {
		return m.entries
	}
	return timeline.Chronological(m.entries)
}

func (m *MessagesModel) scrollToNewest() {
	if m.env.Anchor == timeline.AnchorNewest {
		m.viewport.GotoTop()
		return
	}
	m.viewport.GotoBottom()
}

// updateViewportContent recomputes the timeline from scratch and renders it.
func (m *MessagesModel) updateViewportContent() {
	m.entries = timeline.Build(m.messages, m.env.timelineOptions())
	if !m.viewportReady || len(m.entries) == 0 {
		return
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	now, loc := m.env.now(), m.env.location()
	var content strings.Builder
	for i, entry := range m.renderOrder() {
		if i > 0 {
			content.WriteString("\n")
		}
		if entry.ShowDayMarker {
			chip := dayChipStyle.Render(entry.DayMarker(now, loc))
			content.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, chip) + "\n")
		}
		content.WriteString(renderBubble(entry, width))
	}

	m.viewport.SetContent(content.String())
}

// renderBubble lays out one message: time ← bubble for mine, bubble → time
// for theirs.
func renderBubble(entry timeline.Entry, width int) string {
	wrapWidth := width * 3 / 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	text := wordwrap.String(entry.Message.Text, wrapWidth)
	stamp := timeStyle.Render(entry.TimeLabel)

	if entry.Side == timeline.SideMine {
		row := lipgloss.JoinHorizontal(lipgloss.Bottom, stamp, " ", bubbleMineStyle.Render(text))
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, row)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, bubbleTheirsStyle.Render(text), " ", stamp)
}

func (m MessagesModel) productCard() string {
	p := m.chat.Product
	if p == nil {
		return ""
	}
	line := fmt.Sprintf("📦 %s\n%s", p.Title, priceStyle.Render(p.Price))
	if p.Status != "" && p.Status != models.StatusAvailable {
		line += " " + helpStyle.Render(string(p.Status))
	}
	return productCardStyle.Render(line)
}

func (m MessagesModel) View() string {
	if m.loading && len(m.messages) == 0 {
		return fmt.Sprintf("\n  %s Loading messages...\n", m.spinner.View())
	}

	s := titleStyle.Render(fmt.Sprintf("💬 %s", m.chat.Participant.Name)) + "\n"
	if card := m.productCard(); card != "" {
		s += card + "\n"
	}
	s += "\n"

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	}

	if len(m.messages) == 0 && !m.loading {
		hint := "  No messages yet. Press n to say hello"
		if m.chat.Product != nil {
			hint += fmt.Sprintf(" about %q", m.chat.Product.Title)
		}
		s += normalStyle.Render(hint+".") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	if m.composing {
		s += "\n" + inputStyle.Render("New Message:") + "\n"
		s += m.textarea.View() + "\n"
		s += helpStyle.Render("ctrl+s: send • esc: cancel")
	} else {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		s += "\n" + helpStyle.Render(fmt.Sprintf("↑↓/jk: scroll • n: new message • r: refresh • esc: back • q: quit • %d%%", scrollPercent))
	}

	return s
}
