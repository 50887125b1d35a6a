package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// Column widths for the resource table
var resourceColumnWidths = []int{16, 24, 30, 12}

// PrintResourceTable prints the stack's resource inventory in a styled
// box table
func PrintResourceTable(resources []pkgtypes.Resource) {
	headers := []string{"Kind", "Name", "ID", "State"}
	widths := resourceColumnWidths

	var sb strings.Builder
	writeBorder(&sb, widths, TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		cell := fmt.Sprintf(" %-*s ", widths[i], truncateStr(h, widths[i]))
		sb.WriteString(HeaderStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	writeBorder(&sb, widths, LeftT, Cross, RightT)

	for _, r := range resources {
		sb.WriteString(BorderStyle.Render(Vertical))

		cell := fmt.Sprintf(" %-*s ", widths[0], truncateStr(r.Kind, widths[0]))
		sb.WriteString(KindStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		cell = fmt.Sprintf(" %-*s ", widths[1], truncateStr(r.Name, widths[1]))
		sb.WriteString(NameStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		cell = fmt.Sprintf(" %-*s ", widths[2], truncateStr(r.ID, widths[2]))
		sb.WriteString(IDStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		sb.WriteString(formatState(r.State, widths[3]))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	writeBorder(&sb, widths, BottomLeft, BottomT, BottomRight)
	fmt.Print(sb.String())
}

// Column widths for the target health table
var targetColumnWidths = []int{22, 8, 16, 14, 30}

// PrintTargetTable prints load balancer target health
func PrintTargetTable(targets []pkgtypes.Target) {
	headers := []string{"Target", "Port", "AZ", "Health", "Reason"}
	widths := targetColumnWidths

	var sb strings.Builder
	writeBorder(&sb, widths, TopLeft, TopT, TopRight)

	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		cell := fmt.Sprintf(" %-*s ", widths[i], truncateStr(h, widths[i]))
		sb.WriteString(HeaderStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	writeBorder(&sb, widths, LeftT, Cross, RightT)

	for _, t := range targets {
		sb.WriteString(BorderStyle.Render(Vertical))

		cell := fmt.Sprintf(" %-*s ", widths[0], truncateStr(t.ID, widths[0]))
		sb.WriteString(IDStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		cell = fmt.Sprintf(" %-*d ", widths[1], t.Port)
		sb.WriteString(KindStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		cell = fmt.Sprintf(" %-*s ", widths[2], truncateStr(t.AZ, widths[2]))
		sb.WriteString(AZStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))

		sb.WriteString(formatState(t.Health, widths[3]))
		sb.WriteString(BorderStyle.Render(Vertical))

		cell = fmt.Sprintf(" %-*s ", widths[4], truncateStr(t.Reason, widths[4]))
		sb.WriteString(MutedStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	writeBorder(&sb, widths, BottomLeft, BottomT, BottomRight)
	fmt.Print(sb.String())

	printTargetSummary(targets)
}

func writeBorder(sb *strings.Builder, widths []int, left, mid, right string) {
	sb.WriteString(BorderStyle.Render(left))
	for i, w := range widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
}

func formatState(state string, width int) string {
	var indicator string
	var style lipgloss.Style

	switch state {
	case "available", "healthy", "active", "InService":
		indicator = "●"
		style = HealthyStyle
	case "missing", "unused":
		indicator = "○"
		style = MissingStyle
	case "pending", "initial", "provisioning", "draining", "degraded", "modifying", "creating", "backing-up":
		indicator = "◐"
		style = PendingStyle
	case "unhealthy", "failed":
		indicator = "●"
		style = FailedStyle
	default:
		indicator = "○"
		style = MissingStyle
	}

	text := fmt.Sprintf(" %s %-*s ", indicator, width-3, state)
	return style.Render(text)
}

func printTargetSummary(targets []pkgtypes.Target) {
	counts := make(map[string]int)
	for _, t := range targets {
		counts[t.Health]++
	}

	var parts []string
	if c := counts["healthy"]; c > 0 {
		parts = append(parts, HealthyStyle.Render(fmt.Sprintf("%d healthy", c)))
	}
	if c := counts["unhealthy"]; c > 0 {
		parts = append(parts, FailedStyle.Render(fmt.Sprintf("%d unhealthy", c)))
	}
	if c := counts["initial"]; c > 0 {
		parts = append(parts, PendingStyle.Render(fmt.Sprintf("%d initial", c)))
	}
	if c := counts["draining"]; c > 0 {
		parts = append(parts, PendingStyle.Render(fmt.Sprintf("%d draining", c)))
	}

	summary := fmt.Sprintf("  %d targets", len(targets))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}

	fmt.Println(summary)
}

func truncateStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
