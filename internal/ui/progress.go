package ui

import (
	"fmt"

	"github.com/vietdv277/stratus/internal/stack"
)

// PrintEvent renders one apply/destroy progress event as a status line
func PrintEvent(e stack.Event) {
	switch e.Action {
	case "applying":
		fmt.Printf("  %s %s...\n", PendingStyle.Render("◐"), KindStyle.Render(string(e.Kind)))
	case "destroying":
		fmt.Printf("  %s %s...\n", PendingStyle.Render("◐"), KindStyle.Render(string(e.Kind)))
	case "applied", "destroyed":
		line := fmt.Sprintf("  %s %s", HealthyStyle.Render("✓"), KindStyle.Render(string(e.Kind)))
		if e.Detail != "" {
			line += " " + MutedStyle.Render(e.Detail)
		}
		fmt.Println(line)
	case "failed":
		fmt.Printf("  %s %s %s\n", FailedStyle.Render("✗"), KindStyle.Render(string(e.Kind)), FailedStyle.Render(e.Detail))
	}
}
