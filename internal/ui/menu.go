package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuItem struct {
	title string
	desc  string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

const (
	menuChats    = "💬 Chats"
	menuProducts = "🛍  Products"
	menuProfile  = "👤 Profile"
)

type MenuModel struct {
	env          Env
	list         list.Model
	windowWidth  int
	windowHeight int
}

// NewMenuModel creates the main menu with Chats, Products and Profile.
func NewMenuModel(env Env) MenuModel {
	items := []list.Item{
		menuItem{title: menuChats, desc: "Talk to buyers and sellers"},
		menuItem{title: menuProducts, desc: "Browse listings near you"},
		menuItem{title: menuProfile, desc: "Your storefront profile"},
	}

	l := list.New(items, newDelegate(), 80, 14)
	l.Title = "Bazaar"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return MenuModel{
		env:          env,
		list:         l,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func newDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))
	return delegate
}

// resize replays the last known window size into a freshly built screen.
func resize(model tea.Model, width, height int) (tea.Model, tea.Cmd) {
	if width <= 0 {
		return model, nil
	}
	return model.Update(tea.WindowSizeMsg{Width: width, Height: height})
}

// navigate switches to next, carrying the window size over.
func navigate(next tea.Model, width, height int) (tea.Model, tea.Cmd) {
	sized, cmd := resize(next, width, height)
	return sized, tea.Batch(sized.Init(), cmd)
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		if msg.String() == "enter" {
			selectedItem, ok := m.list.SelectedItem().(menuItem)
			if !ok {
				return m, nil
			}

			switch selectedItem.title {
			case menuChats:
				return navigate(NewConversationsModel(m.env), m.windowWidth, m.windowHeight)
			case menuProducts:
				return navigate(NewProductsModel(m.env), m.windowWidth, m.windowHeight)
			case menuProfile:
				return navigate(NewProfileModel(m.env), m.windowWidth, m.windowHeight)
			}
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
