package helpers

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestShortenAddr(t *testing.T) {
	addr := "4UmsRefodnS4aDNhzKgzKXLFp9AaHPvatTUFBxq157Td"
	if got := ShortenAddr(addr); got != "4Ums…57Td" {
		t.Errorf("ShortenAddr(%q) = %q", addr, got)
	}
	if got := ShortenAddr("short"); got != "short" {
		t.Errorf("short addresses should be returned as is, got %q", got)
	}
}

func TestIsValidSolanaAddress(t *testing.T) {
	if !IsValidSolanaAddress("CLU6eaCQoupE3mXVGt9ZC5FzS5S472zSh14Yrku4kVve") {
		t.Error("expected program id to be valid")
	}
	for _, s := range []string{"", "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", "abc"} {
		if IsValidSolanaAddress(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/a.gif", "https://example.com/a.gif"},
		{"https://example.com/a.gif\x1b]0;pwned\x07", "https://example.com/a.gif"},
		{"a\x1b[2Jb", "ab"},
		{"tab\there\u009b", "tabhere"},
		{"ünïcode", "ünïcode"},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 10); got != "short" {
		t.Errorf("TruncateText kept = %q", got)
	}
	got := TruncateText(strings.Repeat("ü", 20), 8)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "…") {
		t.Errorf("TruncateText cut = %q", got)
	}
	if w := len([]rune(got)); w > 8 {
		t.Errorf("TruncateText width = %d, want at most 8", w)
	}
}

func TestFormatSOL(t *testing.T) {
	tests := []struct {
		lamports uint64
		want     string
	}{
		{0, "0.0000 SOL"},
		{1_500_000_000, "1.5000 SOL"},
		{2_000_000_000_000, "2,000.0000 SOL"},
		{123_456_789, "0.1234 SOL"},
	}
	for _, tt := range tests {
		if got := FormatSOL(tt.lamports); got != tt.want {
			t.Errorf("FormatSOL(%d) = %q, want %q", tt.lamports, got, tt.want)
		}
	}
}

func TestFormatVotes(t *testing.T) {
	if got := FormatVotes(1234); got != "Vote count = 1,234" {
		t.Errorf("FormatVotes = %q", got)
	}
}

func TestLoadedAt(t *testing.T) {
	if got := LoadedAt(time.Now(), true); got != "loading…" {
		t.Errorf("LoadedAt while loading = %q", got)
	}
	if got := LoadedAt(time.Time{}, false); got != "never" {
		t.Errorf("LoadedAt zero = %q", got)
	}
}

func TestGenerateQRCode(t *testing.T) {
	qr := GenerateQRCode("4UmsRefodnS4aDNhzKgzKXLFp9AaHPvatTUFBxq157Td")
	lines := strings.Split(strings.TrimRight(qr, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("expected a multi-line QR code, got %d lines", len(lines))
	}
}

func TestMinMax(t *testing.T) {
	if Min(2, 3) != 2 || Max(2, 3) != 3 {
		t.Error("Min/Max disagree with ordering")
	}
}
