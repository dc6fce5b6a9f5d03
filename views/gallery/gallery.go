package gallery

import (
	"fmt"
	"strings"

	"gif-portal-tui/helpers"
	"gif-portal-tui/portal"
	"gif-portal-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Mode is what the portal page is doing with the keyboard
type Mode int

const (
	ModeBrowse Mode = iota
	ModeAdding
	ModeConfirmInit
)

const cardWidth = 36

// Props carries everything the portal page needs to render
type Props struct {
	Snapshot    portal.Snapshot
	Selected    int // index into the visible entries
	Mode        Mode
	InputView   string
	Busy        bool
	SpinnerView string
	Width       int
}

// Nav returns the navigation bar for the portal view
func Nav(width int, mode Mode, snap portal.Snapshot) string {
	var keys []string
	switch {
	case mode == ModeAdding:
		keys = []string{
			styles.Key("Enter") + " submit",
			styles.Key("Ctrl+v") + " paste",
			styles.Key("Esc") + " cancel",
		}
	case mode == ModeConfirmInit:
		keys = []string{
			styles.Key("←/→") + " choose",
			styles.Key("Enter") + " confirm",
			styles.Key("Esc") + " cancel",
		}
	case !snap.Connected:
		keys = []string{
			styles.Key("c") + " connect",
			styles.Key("w") + " wallet",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}
	case !snap.Loaded:
		keys = []string{
			styles.Key("i") + " initialize",
			styles.Key("r") + " refresh",
			styles.Key("x") + " disconnect",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
		}
	default:
		keys = []string{
			styles.Key("←/→/↑/↓") + " move",
			styles.Key("Enter") + " 👍 upvote",
			styles.Key("a") + " add",
			styles.Key("y") + " copy link",
			styles.Key("r") + " refresh",
			styles.Key("x") + " disconnect",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
		}
	}
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// Columns is how many cards fit in one row of the grid
func Columns(width int) int {
	return helpers.Max(1, width/(cardWidth+2))
}

// Render renders the portal page
func Render(p Props) string {
	h := styles.TitleStyle.Render("🖼 GIF Portal")
	sub := styles.MutedStyle.Render("View your GIF collection in the metaverse ✨")
	header := h + "\n" + sub + "\n\n"

	if !p.Snapshot.Connected {
		return header + renderNotConnected()
	}
	if !p.Snapshot.Loaded {
		return header + renderInitControl(p)
	}
	return header + renderConnected(p)
}

func renderNotConnected() string {
	muted := styles.MutedStyle
	return styles.ButtonActiveStyle.Render("Connect to Wallet") + "\n\n" +
		muted.Render("Press ") + styles.Key("c") + muted.Render(" to connect your keypair wallet.")
}

// renderInitControl is the only thing shown while the ledger account is absent
func renderInitControl(p Props) string {
	button := styles.ButtonStyle
	if p.Mode != ModeConfirmInit {
		button = styles.ButtonActiveStyle
	}
	out := button.Render("Do One-Time Initialization For GIF Program Account")
	if p.Busy {
		out += "\n\n" + p.SpinnerView + " waiting for the cluster…"
	}
	return out
}

func renderConnected(p Props) string {
	var b strings.Builder

	if p.Mode == ModeAdding {
		b.WriteString(styles.PanelStyle.BorderForeground(styles.CAccent2).Render(p.InputView))
	} else {
		muted := styles.MutedStyle
		b.WriteString(muted.Render("Press ") + styles.Key("a") + muted.Render(" to submit a GIF link"))
	}
	if p.Busy {
		b.WriteString("  " + p.SpinnerView)
	}
	b.WriteString("\n\n")

	visible := portal.VisibleEntries(p.Snapshot.List)
	if len(visible) == 0 {
		b.WriteString(styles.MutedStyle.Render("No GIFs yet. Be the first!"))
		return b.String()
	}
	b.WriteString(RenderGrid(visible, p.Selected, p.Width))
	b.WriteString("\n" + styles.MutedStyle.Render(
		fmt.Sprintf("%d of %d GIFs shown", len(visible), len(p.Snapshot.List)),
	))
	return b.String()
}

// RenderGrid lays visible entries out as cards, several per row
func RenderGrid(visible []portal.Visible, selected, width int) string {
	cols := Columns(width)
	var rows []string
	for start := 0; start < len(visible); start += cols {
		end := helpers.Min(start+cols, len(visible))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, renderCard(visible[i].Entry, i == selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(e portal.GifEntry, selected bool) string {
	style := styles.CardStyle
	linkStyle := lipgloss.NewStyle().Foreground(styles.CText)
	if selected {
		style = styles.CardSelectedStyle
		linkStyle = linkStyle.Foreground(styles.CAccent2).Bold(true)
	}

	target := helpers.SanitizeText(e.Link)
	link := helpers.TruncateText(target, cardWidth-4)
	// OSC 8 so terminals can open the gif
	link = fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", target, linkStyle.Render(link))

	from := styles.MutedStyle.Render("from ") +
		helpers.FadeString(helpers.ShortenAddr(e.Submitter.String()), "#F25D94", "#EDFF82")
	votes := "👍 " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(helpers.FormatVotes(e.Upvotes))

	return style.Width(cardWidth).Render(link + "\n" + from + "\n" + votes)
}
