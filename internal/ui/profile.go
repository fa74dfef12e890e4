package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/bazaar/internal/models"
)

type ProfileModel struct {
	env          Env
	profile      models.Profile
	windowWidth  int
	windowHeight int
}

func NewProfileModel(env Env) ProfileModel {
	return ProfileModel{
		env:          env,
		profile:      env.Store.Profile(),
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ProfileModel) Init() tea.Cmd {
	return nil
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			return navigate(NewMenuModel(m.env), m.windowWidth, m.windowHeight)
		}
	}
	return m, nil
}

// temperatureBar draws the 0-100°C manner temperature as a ten-cell gauge.
func temperatureBar(temp float64) string {
	filled := int(temp / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func (m ProfileModel) View() string {
	p := m.profile
	if p.Name == "" {
		return titleStyle.Render("👤 Profile") + "\n\n" +
			normalStyle.Render("  No profile loaded.") + "\n\n" +
			helpStyle.Render("esc: back • q: quit")
	}

	name := p.Name
	if p.Verified {
		name += " ✔"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(name) + "\n")
	if p.Nickname != "" {
		b.WriteString(helpStyle.Render("@"+p.Nickname) + "\n")
	}
	b.WriteString(fmt.Sprintf("📍 %s %s\n", p.City, p.District))
	if !p.JoinDate.IsZero() {
		b.WriteString(fmt.Sprintf("Joined %s\n", p.JoinDate.In(m.env.location()).Format("January 2006")))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Manner temperature %.1f°C %s\n", p.MannerTemperature, temperatureBar(p.MannerTemperature)))
	if p.ResponseRate > 0 {
		b.WriteString(fmt.Sprintf("Response rate %d%%\n", p.ResponseRate))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Sales", p.TotalSales),
		stat("Purchases", p.TotalPurchases),
		stat("Reviews", p.TotalReviews),
	))
	b.WriteString(fmt.Sprintf("\n★ %.1f average rating", p.AverageRating))

	return profileCardStyle.Render(b.String()) + "\n\n" + helpStyle.Render("esc: back • q: quit")
}

func stat(label string, n int) string {
	return lipgloss.NewStyle().Width(12).Render(fmt.Sprintf("%d\n%s", n, label))
}
