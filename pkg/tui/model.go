// Package tui holds the interactive prompts of the CLI.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0078D4"))
	subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	special = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF99"))
	warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
)

const discountStep = 5

// DiscountModel asks for a MACC discount and previews its effect on a result.
type DiscountModel struct {
	input    textinput.Model
	bar      progress.Model
	base     *aggregate.Result
	discount int
	err      error

	Confirmed bool
	Cancelled bool
}

// NewDiscountModel starts at initial. base may be nil to disable the preview.
func NewDiscountModel(initial int, base *aggregate.Result) DiscountModel {
	ti := textinput.New()
	ti.Placeholder = "0"
	ti.CharLimit = 3
	ti.Width = 5
	ti.SetValue(strconv.Itoa(initial))
	ti.Focus()

	return DiscountModel{
		input:    ti,
		bar:      progress.New(progress.WithGradient("#0078D4", "#00FF99"), progress.WithWidth(30), progress.WithoutPercentage()),
		base:     base,
		discount: initial,
	}
}

// Discount returns the last valid value entered.
func (m DiscountModel) Discount() int { return m.discount }

func (m DiscountModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m DiscountModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.Cancelled = true
			return m, tea.Quit
		case "enter":
			if m.err == nil {
				m.Confirmed = true
				return m, tea.Quit
			}
			return m, nil
		case "up", "right":
			return m.set(min(m.discount+discountStep, config.MaxInteractiveDiscount)), nil
		case "down", "left":
			return m.set(max(m.discount-discountStep, 0)), nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.parse()
	return m, cmd
}

func (m DiscountModel) set(d int) DiscountModel {
	m.input.SetValue(strconv.Itoa(d))
	m.input.CursorEnd()
	m.discount = d
	m.err = nil
	return m
}

func (m *DiscountModel) parse() {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		m.discount, m.err = 0, nil
		return
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		m.err = fmt.Errorf("%q is not a whole number", raw)
		return
	}
	if err := config.ValidateInteractiveDiscount(d); err != nil {
		m.err = err
		return
	}
	m.discount, m.err = d, nil
}

func (m DiscountModel) View() string {
	var b strings.Builder
	b.WriteString(title.Render("? MACC discount on Azure prices (%)"))
	b.WriteString("\n\n  ")
	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(float64(m.discount) / config.MaxInteractiveDiscount))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n  " + warning.Render(m.err.Error()) + "\n")
	} else if preview := m.preview(); preview != "" {
		b.WriteString("\n" + preview)
	}

	b.WriteString("\n" + subtle.Render(fmt.Sprintf("(type 0-%d, arrows step by %d, enter to confirm, esc to cancel)", config.MaxInteractiveDiscount, discountStep)) + "\n")
	return b.String()
}

func (m DiscountModel) preview() string {
	if m.base == nil {
		return ""
	}
	r, err := aggregate.Reprice(m.base, m.discount)
	if err != nil {
		return ""
	}
	style := subtle
	switch r.Savings.Verdict {
	case aggregate.TargetCheaper:
		style = special
	case aggregate.SourceCheaper:
		style = warning
	}
	return fmt.Sprintf("  Azure %s/mo  AWS %s/mo  %s\n",
		fixed(r.SourceTotal), fixed(r.TargetTotal), style.Render(fmt.Sprintf("savings %+.2f (%.1f%%)", r.Savings.Amount, r.Savings.Percent)))
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// PromptDiscount runs the discount prompt. ok is false when the user cancelled.
func PromptDiscount(initial int, base *aggregate.Result) (discount int, ok bool, err error) {
	final, err := tea.NewProgram(NewDiscountModel(initial, base)).Run()
	if err != nil {
		return initial, false, err
	}
	m, isModel := final.(DiscountModel)
	if !isModel || m.Cancelled {
		return initial, false, nil
	}
	return m.Discount(), true, nil
}
