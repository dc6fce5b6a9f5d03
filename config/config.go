package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Page identifies a top-level screen of the TUI
type Page int

const (
	PageHome Page = iota
	PagePortal
	PageWallet
	PageSettings
)

// Program defaults for the GIF portal deployed on devnet
const (
	DefaultProgramID     = "CLU6eaCQoupE3mXVGt9ZC5FzS5S472zSh14Yrku4kVve"
	DefaultLedgerAccount = "4UmsRefodnS4aDNhzKgzKXLFp9AaHPvatTUFBxq157Td"
	DevnetURL            = "https://api.devnet.solana.com"
)

// Config represents the application configuration
type Config struct {
	Clusters           []Cluster `json:"clusters"`
	KeypairPath        string    `json:"keypair_path"`
	ProgramID          string    `json:"program_id"`
	LedgerAccount      string    `json:"ledger_account"`
	InitAccountKeypair string    `json:"init_account_keypair,omitempty"`
	TrustedWallets     []string  `json:"trusted_wallets,omitempty"`
	Logger             bool      `json:"logger"`
}

// Cluster represents a Solana RPC endpoint
type Cluster struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// ActiveCluster returns the active cluster, or the first one if none is marked
func (c Config) ActiveCluster() (Cluster, bool) {
	for _, cl := range c.Clusters {
		if cl.Active {
			return cl, true
		}
	}
	if len(c.Clusters) > 0 {
		return c.Clusters[0], true
	}
	return Cluster{}, false
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// DefaultKeypairPath is where solana-keygen writes the default wallet
func DefaultKeypairPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "solana", "id.json")
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Clusters: []Cluster{
			{
				Name:   "Devnet",
				URL:    DevnetURL,
				Active: true,
			},
		},
		KeypairPath:   DefaultKeypairPath(),
		ProgramID:     DefaultProgramID,
		LedgerAccount: DefaultLedgerAccount,
		Logger:        false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found.
// Missing fields in an existing file are filled from the defaults.
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}

	def := DefaultConfig()
	if len(cfg.Clusters) == 0 {
		cfg.Clusters = def.Clusters
	}
	if cfg.KeypairPath == "" {
		cfg.KeypairPath = def.KeypairPath
	}
	if cfg.ProgramID == "" {
		cfg.ProgramID = def.ProgramID
	}
	if cfg.LedgerAccount == "" {
		cfg.LedgerAccount = def.LedgerAccount
	}
	return cfg
}

// Store guards a Config shared between the update loop and background commands
// and writes every change back to disk.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  Config
}

// NewStore wraps cfg, persisting to path ("" disables persistence)
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Path returns the file the store persists to
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current config
func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Clusters = slices.Clone(s.cfg.Clusters)
	cfg.TrustedWallets = slices.Clone(s.cfg.TrustedWallets)
	return cfg
}

// Update applies fn to the config and saves it
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	if s.path == "" {
		return nil
	}
	return Save(s.path, s.cfg)
}

// IsTrusted reports whether the wallet address was connected explicitly before
func (s *Store) IsTrusted(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.cfg.TrustedWallets, address)
}

// Trust records address as trusted for silent connects
func (s *Store) Trust(address string) error {
	if s.IsTrusted(address) {
		return nil
	}
	return s.Update(func(c *Config) {
		c.TrustedWallets = append(c.TrustedWallets, address)
	})
}
