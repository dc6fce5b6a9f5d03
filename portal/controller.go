// Package portal holds the GIF portal's application state and the actions
// that read and mutate the on-chain ledger.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"gif-portal-tui/anchor"
	"gif-portal-tui/rpc"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
)

var (
	// ErrRemoteUnavailable means no program client could be built
	ErrRemoteUnavailable = errors.New("remote program unavailable")
	// ErrInvalidURL means the submitted text is not a link
	ErrInvalidURL = errors.New("invalid gif link")
	// ErrNoWallet means the action needs a connected wallet
	ErrNoWallet = errors.New("no wallet connected")
	// ErrIndexOutOfRange means an upvote targeted an entry that is not cached
	ErrIndexOutOfRange = errors.New("gif index out of range")
)

// Ledger account and instruction names published by the program's IDL
const (
	AccountBase       = "baseAccount"
	InstructionInit   = "initialize"
	InstructionAdd    = "addGif"
	InstructionUpvote = "upvoteGif"
)

// Program is the subset of a program client the controller calls
type Program interface {
	Fetch(ctx context.Context, accountName string, addr solana.PublicKey) (map[string]any, error)
	RPC(ctx context.Context, name string, args []any, accounts anchor.Accounts, signers ...solana.PrivateKey) (solana.Signature, error)
}

// ClientBuilder makes a program client bound to a network provider
type ClientBuilder func(ctx context.Context, network *rpc.Provider, programID solana.PublicKey) (Program, error)

// AnchorClient fetches the program's published IDL and binds it to network
func AnchorClient(ctx context.Context, network *rpc.Provider, programID solana.PublicKey) (Program, error) {
	idl, err := anchor.FetchIDL(ctx, network, programID)
	if err != nil {
		return nil, err
	}
	return anchor.NewProgram(idl, programID, network), nil
}

// Controller runs portal actions against the ledger and keeps State in sync
type Controller struct {
	state     *State
	programID solana.PublicKey
	initKey   solana.PrivateKey
	build     ClientBuilder
	logger    *log.Logger

	mu      sync.RWMutex
	network *rpc.Provider
	ledger  solana.PublicKey
}

// Option customizes a Controller
type Option func(*Controller)

// WithClientBuilder replaces the IDL-backed client builder
func WithClientBuilder(b ClientBuilder) Option {
	return func(c *Controller) { c.build = b }
}

// WithInitKey sets the keypair that becomes the ledger account on initialize
func WithInitKey(key solana.PrivateKey) Option {
	return func(c *Controller) { c.initKey = key }
}

// WithLogger routes controller logs to l
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller for the program and its ledger account.
// Without WithInitKey a fresh init keypair is generated.
func NewController(state *State, programID, ledger solana.PublicKey, opts ...Option) *Controller {
	c := &Controller{
		state:     state,
		programID: programID,
		ledger:    ledger,
		build:     AnchorClient,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.initKey == nil {
		c.initKey = solana.NewWallet().PrivateKey
		c.logger.Warn("no init account keypair configured, generated one", "address", c.initKey.PublicKey())
	}
	return c
}

// State returns the state the controller mutates
func (c *Controller) State() *State { return c.state }

// SetNetwork installs the network provider delivered by the wallet connector
func (c *Controller) SetNetwork(p *rpc.Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.network = p
}

// Network returns the current network provider, nil before detection
func (c *Controller) Network() *rpc.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.network
}

// Ledger returns the ledger account address
func (c *Controller) Ledger() solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger
}

// SetLedger points the controller at another ledger account
func (c *Controller) SetLedger(addr solana.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger = addr
}

// InitAccount returns the address initialize would create
func (c *Controller) InitAccount() solana.PublicKey {
	return c.initKey.PublicKey()
}

// BuildClient makes a program client for the current network provider
func (c *Controller) BuildClient(ctx context.Context) (Program, error) {
	network := c.Network()
	if network == nil {
		return nil, ErrRemoteUnavailable
	}
	program, err := c.build(ctx, network, c.programID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if program == nil {
		return nil, ErrRemoteUnavailable
	}
	return program, nil
}

// RefreshList replaces the cached list with the ledger's. The cache is left
// untouched when the fetch fails.
func (c *Controller) RefreshList(ctx context.Context) error {
	program, err := c.BuildClient(ctx)
	if err != nil {
		c.logger.Error("refresh gif list", "err", err)
		return err
	}
	acc, err := program.Fetch(ctx, AccountBase, c.Ledger())
	if err != nil {
		c.logger.Error("fetch ledger account", "err", err)
		return fmt.Errorf("fetch ledger: %w", err)
	}
	list, err := decodeGifList(acc)
	if err != nil {
		c.logger.Error("decode ledger account", "err", err)
		return err
	}
	c.state.setList(list)
	c.logger.Debug("gif list refreshed", "count", len(list))
	return nil
}

// Submit adds link to the ledger and refreshes the list. Empty input is a
// no-op; any other input is cleared whatever the outcome.
func (c *Controller) Submit(ctx context.Context, link string) error {
	if link == "" {
		c.logger.Debug("no gif link given")
		return nil
	}
	defer c.state.clearInput()

	if !IsValidURL(link) {
		c.logger.Warn("rejected gif link", "link", strconv.Quote(link))
		return fmt.Errorf("%w: %q", ErrInvalidURL, link)
	}
	program, user, err := c.clientAndWallet(ctx)
	if err != nil {
		c.logger.Error("add gif", "err", err)
		return err
	}

	_, callErr := program.RPC(ctx, InstructionAdd, []any{link}, c.accounts(user))
	if callErr != nil {
		c.logger.Error("add gif", "err", callErr)
	} else {
		c.logger.Info("gif submitted", "link", link)
	}
	if err := c.RefreshList(ctx); err != nil && callErr == nil {
		return err
	}
	return callErr
}

// Upvote adds a vote to the cached entry at index and refreshes the list.
// The refresh also runs when no client or wallet is available.
func (c *Controller) Upvote(ctx context.Context, index int) error {
	entry, ok := c.state.entry(index)
	if !ok {
		c.logger.Warn("upvote", "index", index, "err", ErrIndexOutOfRange)
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	program, user, err := c.clientAndWallet(ctx)
	if err == nil {
		_, err = program.RPC(ctx, InstructionUpvote, []any{entryArg(entry)}, c.accounts(user))
	}
	if err != nil {
		c.logger.Error("upvote gif", "err", err)
	} else {
		c.logger.Info("gif upvoted", "link", strconv.Quote(entry.Link))
	}
	if refreshErr := c.RefreshList(ctx); err == nil {
		err = refreshErr
	}
	return err
}

// InitializeAccount creates the ledger account at the init keypair's
// address and returns that address
func (c *Controller) InitializeAccount(ctx context.Context) (solana.PublicKey, error) {
	program, user, err := c.clientAndWallet(ctx)
	if err != nil {
		c.logger.Error("initialize ledger", "err", err)
		return solana.PublicKey{}, err
	}
	base := c.initKey.PublicKey()
	_, err = program.RPC(ctx, InstructionInit, nil, anchor.Accounts{
		AccountBase:     base,
		"user":          user,
		"systemProgram": solana.SystemProgramID,
	}, c.initKey)
	if err != nil {
		c.logger.Error("initialize ledger", "err", err)
		return solana.PublicKey{}, err
	}
	c.logger.Info("created ledger account", "address", base)
	return base, nil
}

func (c *Controller) clientAndWallet(ctx context.Context) (Program, solana.PublicKey, error) {
	network := c.Network()
	if network == nil {
		return nil, solana.PublicKey{}, ErrRemoteUnavailable
	}
	user, ok := network.WalletKey()
	if !ok {
		return nil, solana.PublicKey{}, ErrNoWallet
	}
	program, err := c.BuildClient(ctx)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return program, user, nil
}

func (c *Controller) accounts(user solana.PublicKey) anchor.Accounts {
	return anchor.Accounts{
		AccountBase: c.Ledger(),
		"user":      user,
	}
}

func entryArg(e GifEntry) map[string]any {
	return map[string]any{
		"gifLink":     e.Link,
		"userAddress": e.Submitter,
		"upVotes":     e.Upvotes,
	}
}

func decodeGifList(acc map[string]any) ([]GifEntry, error) {
	raw, ok := acc["gifList"].([]any)
	if !ok {
		return nil, fmt.Errorf("ledger account has no gifList")
	}
	list := make([]GifEntry, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("gifList[%d]: unexpected %T", i, item)
		}
		var e GifEntry
		e.Link, _ = m["gifLink"].(string)
		e.Submitter, _ = m["userAddress"].(solana.PublicKey)
		e.Upvotes, _ = m["upVotes"].(uint64)
		list = append(list, e)
	}
	return list, nil
}
