package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4ECDC4")
	// IncomeColor marks positive amounts.
	IncomeColor = lipgloss.Color("#2ECC71")
	// ExpenseColor marks negative amounts.
	ExpenseColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	IncomeStyle  = lipgloss.NewStyle().Foreground(IncomeColor)
	ExpenseStyle = lipgloss.NewStyle().Foreground(ExpenseColor)

	// SuccessStyle formats confirmation messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(IncomeColor)
)

// FormatTitle renders a section title.
func FormatTitle(s string) string {
	return TitleStyle.Render(s)
}

// FormatSigned renders a signed amount colored by sign.
func FormatSigned(d decimal.Decimal) string {
	s := d.StringFixed(2)
	switch {
	case d.IsPositive():
		return IncomeStyle.Render("+" + s)
	case d.IsNegative():
		return ExpenseStyle.Render(s)
	default:
		return s
	}
}
