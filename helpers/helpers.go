package helpers

import (
	"fmt"
	"image/color"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/gagliardetto/solana-go"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdp/qrterminal/v3"
	"github.com/muesli/gamut"
)

// ShortenAddr shortens a base58 address for display
func ShortenAddr(addr string) string {
	if len(addr) < 12 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

// IsValidSolanaAddress checks if a string decodes to a 32 byte public key
func IsValidSolanaAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// SanitizeText removes escape sequences and control characters so remote
// text cannot drive the terminal
func SanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// TruncateText shortens s to width cells, ending in an ellipsis
func TruncateText(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// FormatSOL formats lamports as SOL with four decimals
func FormatSOL(lamports uint64) string {
	whole := lamports / solana.LAMPORTS_PER_SOL
	frac := (lamports % solana.LAMPORTS_PER_SOL) / 100_000
	return fmt.Sprintf("%s.%04d SOL", humanize.Comma(int64(whole)), frac)
}

// FormatVotes renders a vote count for the GIF grid
func FormatVotes(n uint64) string {
	return "Vote count = " + humanize.Comma(int64(n))
}

// LoadedAt formats the loaded timestamp
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// GenerateQRCode renders content as a half-block terminal QR code
func GenerateQRCode(content string) string {
	var b strings.Builder
	qrterminal.GenerateHalfBlock(content, qrterminal.M, &b)
	return b.String()
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	if s == "" {
		return ""
	}
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len([]rune(s)))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result strings.Builder
	i := 0
	for _, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result.WriteString(baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c)))
		i++
	}
	return result.String()
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Contains checks if a string slice contains a value
func Contains(slice []string, val string) bool {
	for _, item := range slice {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
