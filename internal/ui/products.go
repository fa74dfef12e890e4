package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/bazaar/internal/chatstore"
	"github.com/saravenpi/bazaar/internal/models"
	"github.com/saravenpi/bazaar/internal/timeline"
)

type productItem struct {
	product models.Product
	now     time.Time
}

func (i productItem) FilterValue() string { return i.product.Title }

func (i productItem) Title() string {
	title := i.product.Title
	if i.product.Liked {
		title = "♥ " + title
	}
	return title
}

func (i productItem) Description() string {
	desc := fmt.Sprintf("%s won • %s • %s", i.product.Price, i.product.Location, timeline.RelativeLabel(i.product.PostedAt, i.now))
	if i.product.ChatCount > 0 {
		desc += fmt.Sprintf(" • 💬 %d", i.product.ChatCount)
	}
	return desc
}

type productsLoadedMsg struct {
	categories []string
	products   []models.Product
	err        error
}

type chatOpenedMsg struct {
	room models.ChatRoom
	err  error
}

type ProductsModel struct {
	env          Env
	list         list.Model
	products     []models.Product
	categories   []string
	category     int
	err          error
	windowWidth  int
	windowHeight int
}

// NewProductsModel creates the product listing view.
func NewProductsModel(env Env) ProductsModel {
	l := list.New([]list.Item{}, newDelegate(), 80, 20)
	l.Title = "Products"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return ProductsModel{
		env:          env,
		list:         l,
		categories:   []string{chatstore.CategoryAll},
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ProductsModel) Init() tea.Cmd {
	return m.loadProductsCmd()
}

func (m ProductsModel) selectedCategory() string {
	if m.category < 0 || m.category >= len(m.categories) {
		return chatstore.CategoryAll
	}
	return m.categories[m.category]
}

func (m ProductsModel) loadProductsCmd() tea.Cmd {
	store, category := m.env.Store, m.selectedCategory()
	return func() tea.Msg {
		categories, err := store.Categories()
		if err != nil {
			return productsLoadedMsg{err: err}
		}
		products, err := store.ProductsIn(category)
		return productsLoadedMsg{categories: categories, products: products, err: err}
	}
}

func (m ProductsModel) openChatCmd(productID string) tea.Cmd {
	store := m.env.Store
	return func() tea.Msg {
		room, err := store.OpenForProduct(productID)
		return chatOpenedMsg{room: room, err: err}
	}
}

func (m *ProductsModel) setItems() {
	now := m.env.now()
	items := make([]list.Item, len(m.products))
	for i, p := range m.products {
		items[i] = productItem{product: p, now: now}
	}
	m.list.SetItems(items)
}

// cycleCategory moves the category tab by step, wrapping at both ends.
func (m *ProductsModel) cycleCategory(step int) {
	n := len(m.categories)
	if n == 0 {
		return
	}
	m.category = ((m.category+step)%n + n) % n
}

func (m ProductsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6)
		return m, nil

	case productsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		current := m.selectedCategory()
		m.categories = msg.categories
		m.category = 0
		for i, c := range m.categories {
			if c == current {
				m.category = i
			}
		}
		m.products = msg.products
		m.setItems()
		m.list.Title = fmt.Sprintf("Products - %d listings", len(m.products))
		return m, nil

	case chatOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.env.Log.Info().Str("room", msg.room.ID).Msg("opening chat from listing")
		return navigate(NewMessagesModel(m.env, msg.room), m.windowWidth, m.windowHeight)

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
			if m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}
			return navigate(NewMenuModel(m.env), m.windowWidth, m.windowHeight)
		case "tab", "shift+tab":
			step := 1
			if msg.String() == "shift+tab" {
				step = -1
			}
			m.cycleCategory(step)
			m.list.ResetSelected()
			return m, m.loadProductsCmd()
		case "enter":
			item, ok := m.list.SelectedItem().(productItem)
			if !ok {
				return m, nil
			}
			return m, m.openChatCmd(item.product.ID)
		case "L", " ":
			item, ok := m.list.SelectedItem().(productItem)
			if !ok {
				return m, nil
			}
			if _, err := m.env.Store.ToggleLike(item.product.ID); err != nil {
				m.err = err
				return m, nil
			}
			return m, m.loadProductsCmd()
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ProductsModel) categoryBar() string {
	tabs := make([]string, len(m.categories))
	for i, c := range m.categories {
		if i == m.category {
			tabs[i] = categoryActiveStyle.Render(c)
		} else {
			tabs[i] = categoryStyle.Render(c)
		}
	}
	return strings.Join(tabs, " ")
}

func (m ProductsModel) View() string {
	if m.err != nil {
		s := titleStyle.Render("Products") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("esc: back • q: quit")
		return s
	}

	s := m.categoryBar() + "\n\n"
	if len(m.products) == 0 {
		s += titleStyle.Render("Products") + "\n\n"
		s += normalStyle.Render(fmt.Sprintf("  No %s listings nearby.", m.selectedCategory())) + "\n"
		s += "\n" + helpStyle.Render("tab: next category • esc: back • q: quit")
		return s
	}

	s += m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: chat with seller • space/L: like • tab: category • /: search • esc: back")
	return s
}
