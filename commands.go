package main

import (
	"context"
	"time"

	"gif-portal-tui/config"
	"gif-portal-tui/portal"
	"gif-portal-tui/rpc"
	"gif-portal-tui/views/gallery"
	logview "gif-portal-tui/views/log"
	"gif-portal-tui/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// actionTimeout bounds a remote action including its list refresh
	actionTimeout = 2 * time.Minute
	statusTTL     = 3 * time.Second
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// listen waits for the next connector notification
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// setupConnector replaces the wallet connector with one for the active
// cluster and runs its detection in the background
func (m *model) setupConnector() tea.Cmd {
	m.generation++
	gen := m.generation
	cluster := m.clusterEndpoint()
	events := m.events
	ctx := m.ctx

	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	c := wallet.NewConnector(
		wallet.KeypairDetector(m.keypairPath, m.store),
		cluster.URL,
		wallet.WithLogger(m.logger.WithPrefix("wallet")),
		wallet.WithProviderOptions(rpc.WithConfirmTimeout(actionTimeout/2)),
		wallet.WithAddressHandler(func(addr *string) {
			send(walletAddressMsg{generation: gen, address: addr})
		}),
		wallet.WithProviderHandler(func(p wallet.Provider) {
			send(walletProviderMsg{generation: gen, provider: p})
		}),
		wallet.WithNetworkProviderHandler(func(p *rpc.Provider) {
			send(networkProviderMsg{generation: gen, network: p})
		}),
	)
	m.connector = c
	m.connecting = true
	m.setupErr = ""
	m.addLog("info", "Connecting to "+cluster.Name+" ("+cluster.URL+")")

	return func() tea.Msg {
		return connectorSetupMsg{generation: gen, err: c.Setup(ctx)}
	}
}

// closeConnector tears down a replaced connector off the update loop
func closeConnector(c *wallet.Connector) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		c.Close()
		return nil
	}
}

// connectWallet asks the provider to connect explicitly
func connectWallet(ctx context.Context, c *wallet.Connector) tea.Cmd {
	return func() tea.Msg {
		return walletActionMsg{action: "connect", err: c.Connect(ctx)}
	}
}

// disconnectWallet asks the provider to disconnect
func disconnectWallet(ctx context.Context, c *wallet.Connector) tea.Cmd {
	return func() tea.Msg {
		return walletActionMsg{action: "disconnect", err: c.Disconnect(ctx)}
	}
}

// refreshList reloads the gif list from the ledger account
func refreshList(ctx context.Context, ctrl *portal.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return listRefreshedMsg{err: ctrl.RefreshList(ctx)}
	}
}

// submitGif adds a link to the ledger
func submitGif(ctx context.Context, ctrl *portal.Controller, link string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return gifSubmittedMsg{link: link, err: ctrl.Submit(ctx, link)}
	}
}

// upvoteGif votes for the ledger entry at index
func upvoteGif(ctx context.Context, ctrl *portal.Controller, index int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return gifUpvotedMsg{index: index, err: ctrl.Upvote(ctx, index)}
	}
}

// initializeLedger creates the ledger account
func initializeLedger(ctx context.Context, ctrl *portal.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		addr, err := ctrl.InitializeAccount(ctx)
		return ledgerInitializedMsg{address: addr, err: err}
	}
}

// loadBalance fetches the wallet balance
func loadBalance(ctx context.Context, network *rpc.Provider) tea.Cmd {
	return func() tea.Msg {
		if network == nil {
			return balanceLoadedMsg{err: rpc.ErrWalletNotConnected}
		}
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		lamports, err := network.Balance(ctx)
		return balanceLoadedMsg{lamports: lamports, err: err}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{what: what}
		}
		return nil
	}
}

// clearStatusAfter waits 3 seconds then sends a message to clear feedback
func clearStatusAfter() tea.Cmd {
	return tea.Tick(statusTTL, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}
}

// setStatus shows a transient line under the page
func (m *model) setStatus(msg string, isErr bool) tea.Cmd {
	m.status = msg
	m.statusErr = isErr
	m.statusTime = time.Now()
	return clearStatusAfter()
}

// startAction counts an in-flight remote action for the busy spinner
func (m *model) startAction(cmd tea.Cmd) tea.Cmd {
	m.pending++
	return cmd
}

func (m *model) finishAction() {
	if m.pending > 0 {
		m.pending--
	}
}

// updateLogViewport refreshes the viewport content when new log output arrived
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}
	m.logViewport.Height = logview.PanelHeight(m.h)
	if n := m.logBuffer.Len(); n != m.logSeen {
		m.logSeen = n
		m.logViewport.SetContent(m.logBuffer.String())
		// Scroll to bottom to show latest entries
		m.logViewport.GotoBottom()
	}
}

// textInputActive returns true if any text input is currently active
func (m *model) textInputActive() bool {
	if m.mode == gallery.ModeAdding && m.activePage == config.PagePortal {
		return true
	}
	if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		return true
	}
	return false
}

// visibleEntries returns the gallery cards in display order
func (m *model) visibleEntries() []portal.Visible {
	return portal.VisibleEntries(m.state.List())
}

// clampSelection keeps the gallery cursor on an existing card
func (m *model) clampSelection() {
	n := len(m.visibleEntries())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
