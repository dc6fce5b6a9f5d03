package settings

import (
	"strings"

	"gif-portal-tui/config"
	"gif-portal-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" || settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("d") + " delete",
			styles.Key("h") + " home",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the cluster settings view
func Render(clusters []config.Cluster, selectedIdx int, programID, ledger string) string {
	h := styles.TitleStyle.Render("Cluster Settings")
	muted := styles.MutedStyle

	lines := []string{h, ""}

	if len(clusters) == 0 {
		lines = append(lines, muted.Render("No clusters configured."))
		lines = append(lines, "")
		lines = append(lines, muted.Render("Press ")+styles.Key("a")+muted.Render(" to add a cluster endpoint."))
	} else {
		lines = append(lines, muted.Render("Configured Clusters:"))
		lines = append(lines, "")

		for i, cl := range clusters {
			var marker string
			if cl.Active {
				marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
			} else {
				marker = muted.Render("○ ")
			}

			nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
			urlStyle := muted

			if i == selectedIdx {
				nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
				urlStyle = urlStyle.Background(styles.CPanel)
				marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
			}

			lines = append(lines, marker+nameStyle.Render(cl.Name))
			lines = append(lines, "  "+urlStyle.Render(cl.URL))
			lines = append(lines, "")
		}
	}

	lines = append(lines,
		muted.Render("Program  ")+lipgloss.NewStyle().Foreground(styles.CText).Render(programID),
		muted.Render("Ledger   ")+lipgloss.NewStyle().Foreground(styles.CText).Render(ledger),
	)

	return strings.Join(lines, "\n")
}
