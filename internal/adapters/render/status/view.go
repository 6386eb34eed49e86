package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/velmik/intake/internal/application"
	"github.com/velmik/intake/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(report application.Report, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Collection Status"),
		s.header.Render(fmt.Sprintf("total collected: %d", report.Total)),
	}

	lines = append(lines, s.section.Render(renderSession(report, s)))
	lines = append(lines, s.section.Render(renderRecent(report.Recent, opts, s)))
	lines = append(lines, s.section.Render(renderOperators(report.Operators, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(report application.Report, s styles) string {
	session := report.Session
	if session == nil {
		return s.empty.Render("No active session.")
	}

	bar := renderProgressBar(float64(session.Progress()), 24, s)
	meta := s.barText.Render(fmt.Sprintf("%d/%d (%d%%)", session.Current, session.Target, session.Progress()))

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.detail.Render(fmt.Sprintf("session #%d:", session.ID)),
		" ",
		bar,
		" ",
		meta,
	)

	if session.Progress() >= 100 {
		line += " " + s.warning.Render("[target reached]")
	}

	return line
}

func renderRecent(recent []domain.Transaction, opts RenderOptions, s styles) string {
	lines := []string{s.header.Render(fmt.Sprintf("recent transactions: %d", len(recent)))}

	if len(recent) == 0 {
		lines = append(lines, s.empty.Render("No transactions recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, tx := range recent {
		lines = append(lines, renderTransaction(tx, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTransaction(tx domain.Transaction, opts RenderOptions, s styles) string {
	detail := s.detail.Render(fmt.Sprintf("#%d %d %s %s @%s", tx.ID, tx.Amount, tx.Bank, tx.Phone, tx.Operator))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		detail,
		" ",
		receiptBadge(tx.Receipt, s),
		" ",
		s.pending.Render(formatCreatedRelative(tx.CreatedAt, opts.Now)),
	)
}

func renderOperators(operators []domain.OperatorAggregate, s styles) string {
	lines := []string{s.header.Render(fmt.Sprintf("operators: %d", len(operators)))}

	if len(operators) == 0 {
		lines = append(lines, s.empty.Render("No operator totals yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, agg := range operators {
		label := s.operator.Render(operatorTitle(agg.Operator))
		meta := s.detail.Render(fmt.Sprintf("%d across %d transactions", agg.TotalAmount, len(agg.Transactions)))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, " ", meta))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func receiptBadge(state domain.ReceiptState, s styles) string {
	switch state {
	case domain.ReceiptConfirmed:
		return s.confirmed.Render("[confirmed]")
	case domain.ReceiptProblem:
		return s.warning.Render("[problem]")
	default:
		return s.pending.Render("[pending]")
	}
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := clampPercent(percent) / 100.0
	filled := int(math.Round(float64(width) * fraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func operatorTitle(operator domain.Identity) string {
	if operator == domain.Unassigned {
		return string(operator)
	}
	return "@" + string(operator)
}

func formatCreatedRelative(createdAt, now time.Time) string {
	if createdAt.IsZero() {
		return "unknown"
	}
	if now.IsZero() || now.Before(createdAt) {
		return createdAt.Format("15:04")
	}

	elapsed := now.Sub(createdAt)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		minutes := int(elapsed.Minutes())
		return fmt.Sprintf("%dm ago", minutes)
	}
	if elapsed < 24*time.Hour {
		hours := int(elapsed.Hours())
		return fmt.Sprintf("%dh ago (%s)", hours, createdAt.Format("15:04"))
	}

	return createdAt.Format("15:04 on 02 Jan")
}
