package portal

import (
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/gagliardetto/solana-go"
)

// GifEntry is one submission stored in the ledger account
type GifEntry struct {
	Link      string
	Submitter solana.PublicKey
	Upvotes   uint64
}

// State is the application state shared by the controller and the UI.
// A nil list means the ledger account has not been loaded or does not exist.
type State struct {
	mu      sync.RWMutex
	address *string
	list    []GifEntry
	input   string
}

// NewState returns an empty state with no wallet and no list
func NewState() *State {
	return &State{}
}

// Snapshot is a consistent copy of State for rendering
type Snapshot struct {
	Address   string
	Connected bool
	List      []GifEntry
	Loaded    bool
	Input     string
}

// Snapshot copies the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Loaded: s.list != nil,
		List:   slices.Clone(s.list),
		Input:  s.input,
	}
	if s.address != nil {
		snap.Address = *s.address
		snap.Connected = true
	}
	return snap
}

// SetAddress records the connected wallet address; nil means disconnected
func (s *State) SetAddress(addr *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr == nil {
		s.address = nil
		return
	}
	a := *addr
	s.address = &a
}

// Reset forgets the session and the cached list, as after a cluster switch
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = nil
	s.list = nil
	s.input = ""
}

// Address returns the connected wallet address
func (s *State) Address() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == nil {
		return "", false
	}
	return *s.address, true
}

// List returns a copy of the cached list, nil when absent
func (s *State) List() []GifEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

func (s *State) entry(index int) (GifEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.list) {
		return GifEntry{}, false
	}
	return s.list[index], true
}

func (s *State) setList(list []GifEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list == nil {
		list = []GifEntry{}
	}
	s.list = list
}

// SetInput stores the pending submission text
func (s *State) SetInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = v
}

// Input returns the pending submission text
func (s *State) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

func (s *State) clearInput() {
	s.SetInput("")
}

// urlPattern: optional scheme, then any host-like token with a short
// alphabetic suffix. Unanchored.
var urlPattern = regexp.MustCompile(`(http(s)?://.)?(www\.)?[-a-zA-Z0-9@:%._\+~#=]{2,256}\.[a-z]{2,6}\b([-a-zA-Z0-9@:%_\+.~#?&//=]*)`)

// IsValidURL reports whether s looks like a link worth submitting. Links
// carrying control characters never are.
func IsValidURL(s string) bool {
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return false
	}
	return urlPattern.MatchString(s)
}

// Visible pairs an entry with its position in the ledger list
type Visible struct {
	Index int
	Entry GifEntry
}

// VisibleEntries filters list down to entries with a valid link
func VisibleEntries(list []GifEntry) []Visible {
	out := make([]Visible, 0, len(list))
	for i, e := range list {
		if IsValidURL(e.Link) {
			out = append(out, Visible{Index: i, Entry: e})
		}
	}
	return out
}
