package details

import (
	"fmt"
	"strings"
	"time"

	"gif-portal-tui/helpers"
	"gif-portal-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Wallet is what the wallet page shows about the connected keypair
type Wallet struct {
	Detected  bool
	Connected bool
	Kind      string
	Path      string
	Address   string
	Cluster   string
	Lamports  uint64
	LoadedAt  time.Time
	ErrMsg    string
}

// Nav returns the navigation bar for the wallet view
func Nav(width int, connected bool) string {
	keys := []string{}
	if connected {
		keys = append(keys,
			styles.Key("x")+" disconnect",
			styles.Key("y")+" copy address",
			styles.Key("r")+" refresh",
		)
	} else {
		keys = append(keys, styles.Key("c")+" connect")
	}
	keys = append(keys,
		styles.Key("p")+" portal",
		styles.Key("s")+" settings",
		styles.Key("h")+" home",
		styles.Key("l")+" logger",
		styles.Key("Esc")+" back",
	)

	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// Render renders the wallet view
func Render(w Wallet, loading bool, copiedMsg string, spinnerView string) string {
	h := styles.TitleStyle.Render("Wallet")
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	if !w.Detected {
		return h + "\n\n" +
			lipgloss.NewStyle().Foreground(styles.CWarn).Render("⚠ No wallet found") + "\n\n" +
			muted.Render("Create one with ") + styles.Key("solana-keygen new") +
			muted.Render(" or pass ") + styles.Key("--keypair <path>") + muted.Render(".")
	}

	source := muted.Render(w.Kind + "  " + w.Path)

	if !w.Connected {
		button := styles.ButtonActiveStyle.MarginTop(1).Render("Connect to Wallet")
		return h + "\n" + source + "\n\n" + button + "\n\n" +
			muted.Render("Press ") + styles.Key("c") + muted.Render(" to connect.")
	}

	// explorer link as OSC 8 hyperlink
	explorerURL := ExplorerURL(w.Address, w.Cluster)
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", explorerURL, addrStyle.Render(w.Address))
	if copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	lines := []string{h, sub, source, ""}

	switch {
	case loading:
		lines = append(lines, spinnerView+" fetching balance…")
	case w.ErrMsg != "":
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.CWarn).Render("⚠ "+w.ErrMsg),
			muted.Render("Press ")+styles.Key("r")+muted.Render(" to retry."),
		)
	default:
		lines = append(lines, fmt.Sprintf("%s  %s   %s",
			lipgloss.NewStyle().Foreground(styles.CSolana).Bold(true).Render("SOL"),
			lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatSOL(w.Lamports)),
			muted.Render("on "+w.Cluster+", updated "+helpers.LoadedAt(w.LoadedAt, false)),
		))
	}

	lines = append(lines, "", helpers.GenerateQRCode(w.Address))
	return strings.Join(lines, "\n")
}

// ExplorerURL links address on the Solana explorer for the named cluster
func ExplorerURL(address, cluster string) string {
	u := "https://explorer.solana.com/address/" + address
	switch c := strings.ToLower(cluster); {
	case strings.Contains(c, "devnet"):
		return u + "?cluster=devnet"
	case strings.Contains(c, "testnet"):
		return u + "?cluster=testnet"
	}
	return u
}
