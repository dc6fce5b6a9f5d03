// Package wallet detects a local wallet provider and tracks its connection.
package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNoProvider means no wallet provider could be detected
	ErrNoProvider = errors.New("no wallet provider detected")
	// ErrNotTrusted is returned by a trust-only connect for an unknown wallet
	ErrNotTrusted = errors.New("wallet not trusted")
	// ErrNotConnected is returned when signing without an active connection
	ErrNotConnected = errors.New("wallet not connected")
)

// EventType names a provider notification
type EventType string

const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
)

// Event is a provider notification. PublicKey is set for connect events.
type Event struct {
	Type      EventType
	PublicKey solana.PublicKey
}

// ConnectOpts controls a connect request
type ConnectOpts struct {
	// OnlyIfTrusted succeeds silently only for a wallet connected explicitly before
	OnlyIfTrusted bool
}

// Provider is a wallet that can connect, sign and notify about its state
type Provider interface {
	// Kind self-identifies the provider implementation
	Kind() string
	Connect(ctx context.Context, opts ConnectOpts) (solana.PublicKey, error)
	Disconnect(ctx context.Context) error
	// Subscribe returns a channel of notifications and a function that
	// unsubscribes and closes it
	Subscribe() (<-chan Event, func())
	PublicKey() (solana.PublicKey, bool)
	SignMessage(msg []byte) (solana.Signature, error)
}

// TrustStore remembers wallets the user connected explicitly
type TrustStore interface {
	IsTrusted(address string) bool
	Trust(address string) error
}

// Detector finds a provider in the environment
type Detector func() (Provider, error)
