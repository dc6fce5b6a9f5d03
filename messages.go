package main

import (
	"gif-portal-tui/rpc"
	"gif-portal-tui/wallet"

	"github.com/gagliardetto/solana-go"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// connectorSetupMsg reports the end of wallet detection and dialing
type connectorSetupMsg struct {
	generation int
	err        error
}

// walletAddressMsg carries the connector's address callback; nil means disconnected
type walletAddressMsg struct {
	generation int
	address    *string
}

// walletProviderMsg carries the detected wallet provider
type walletProviderMsg struct {
	generation int
	provider   wallet.Provider
}

// networkProviderMsg carries the network-bound provider, delivered once per setup
type networkProviderMsg struct {
	generation int
	network    *rpc.Provider
}

// walletActionMsg reports an explicit connect or disconnect
type walletActionMsg struct {
	action string
	err    error
}

// listRefreshedMsg reports a ledger reload
type listRefreshedMsg struct {
	err error
}

// gifSubmittedMsg reports an addGif call and its refresh
type gifSubmittedMsg struct {
	link string
	err  error
}

// gifUpvotedMsg reports an upvoteGif call and its refresh
type gifUpvotedMsg struct {
	index int
	err   error
}

// ledgerInitializedMsg reports the initialize call
type ledgerInitializedMsg struct {
	address solana.PublicKey
	err     error
}

// balanceLoadedMsg contains the wallet balance after loading
type balanceLoadedMsg struct {
	lamports uint64
	err      error
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clearStatusMsg clears transient feedback
type clearStatusMsg struct{}
