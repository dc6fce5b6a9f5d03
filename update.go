package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gif-portal-tui/config"
	"gif-portal-tui/helpers"
	"gif-portal-tui/portal"
	"gif-portal-tui/rpc"
	"gif-portal-tui/views/gallery"
	"gif-portal-tui/views/home"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempClusterFormName string
	tempClusterFormURL  string
)

func validateClusterURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	return nil
}

func (m *model) createAddClusterForm() {
	tempClusterFormName = ""
	tempClusterFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempClusterFormName).
				Placeholder("My Devnet Node"),

			huh.NewInput().
				Title("Cluster URL").
				Description("The complete JSON-RPC URL (https://...)").
				Value(&tempClusterFormURL).
				Placeholder("https://api.devnet.solana.com").
				Validate(validateClusterURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	// Initialize the form
	m.form.Init()
}

func (m *model) createEditClusterForm(idx int) {
	clusters := m.store.Get().Clusters
	if idx < 0 || idx >= len(clusters) {
		return
	}

	cl := clusters[idx]
	tempClusterFormName = cl.Name
	tempClusterFormURL = cl.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Value(&tempClusterFormName).
				Placeholder("My Node"),

			huh.NewInput().
				Title("Cluster URL").
				Value(&tempClusterFormURL).
				Placeholder("https://...").
				Validate(validateClusterURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	// Initialize the form
	m.form.Init()
}

// -------------------- UPDATE --------------------

// Update implements tea.Model and syncs the log panel after every message
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.updateLogViewport()
	return m, cmd
}

// update feeds the active huh form first. Keys stop there; everything else
// also reaches route so ticks and async results keep flowing.
func (m *model) update(msg tea.Msg) tea.Cmd {
	var formCmd tea.Cmd

	if m.activePage == config.PageHome {
		cmd, handled := m.updateHomeForm(msg)
		if handled {
			return cmd
		}
		formCmd = cmd
	}

	if m.activePage == config.PageSettings && (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		cmd, handled := m.updateClusterForm(msg)
		if handled {
			return cmd
		}
		formCmd = cmd
	}

	return tea.Batch(formCmd, m.route(msg))
}

func (m *model) route(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return nil
		}
		m.logReady = true
		m.logSeen = -1
		m.addLog("info", "Logger enabled")
		return nil

	case connectorSetupMsg:
		if msg.generation != m.generation {
			return nil
		}
		m.connecting = false
		if msg.err != nil {
			m.setupErr = msg.err.Error()
			m.addLog("error", fmt.Sprintf("Wallet setup failed: `%s`", msg.err.Error()))
			return nil
		}
		if m.connector == nil || !m.connector.Available() {
			m.addLog("warning", "Solana wallet not found! Create a keypair with solana-keygen")
			return nil
		}
		m.addLog("success", fmt.Sprintf("Wallet detected on `%s`", m.clusterEndpoint().Name))
		return nil

	case walletProviderMsg:
		cmd := listen(m.events)
		if msg.generation != m.generation {
			return cmd
		}
		m.provider = msg.provider
		return cmd

	case networkProviderMsg:
		cmd := listen(m.events)
		if msg.generation != m.generation {
			return cmd
		}
		m.network = msg.network
		m.ctrl.SetNetwork(msg.network)
		if msg.network != nil {
			m.addLog("debug", fmt.Sprintf("Network provider ready, %s commitment", msg.network.Commitment()))
		}
		return cmd

	case walletAddressMsg:
		cmds := []tea.Cmd{listen(m.events)}
		if msg.generation != m.generation {
			return cmds[0]
		}
		m.state.SetAddress(msg.address)
		if msg.address == nil {
			m.mode = gallery.ModeBrowse
			m.selected = 0
			m.balance = 0
			m.balanceErr = ""
			m.addLog("info", "Wallet disconnected")
			return cmds[0]
		}
		m.addLog("success", fmt.Sprintf("Connected with Public Key: `%s`", *msg.address))
		cmds = append(cmds,
			m.startAction(refreshList(m.ctx, m.ctrl)),
			m.startBalance(),
		)
		return tea.Batch(cmds...)

	case walletActionMsg:
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Wallet %s failed: `%s`", msg.action, msg.err.Error()))
			return m.setStatus("⚠ "+msg.err.Error(), true)
		}
		return nil

	case listRefreshedMsg:
		m.finishAction()
		if errors.Is(msg.err, rpc.ErrAccountNotFound) {
			m.addLog("warning", "Ledger account not initialized")
			return nil
		}
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Error in getGifList: `%s`", msg.err.Error()))
			return nil
		}
		snap := m.state.Snapshot()
		m.loadedAt = time.Now()
		m.clampSelection()
		m.addLog("debug", fmt.Sprintf("Got the account, %d gifs", len(snap.List)))
		return nil

	case gifSubmittedMsg:
		m.finishAction()
		m.input.SetValue("")
		switch {
		case msg.err == nil:
			m.addLog("success", fmt.Sprintf("GIF successfully sent to program: `%s`", helpers.SanitizeText(msg.link)))
			return m.setStatus("✓ GIF submitted", false)
		case errors.Is(msg.err, portal.ErrInvalidURL):
			m.addLog("warning", fmt.Sprintf("Invalid URL: `%s`", helpers.SanitizeText(msg.link)))
			return m.setStatus("⚠ Invalid URL", true)
		default:
			m.addLog("error", fmt.Sprintf("Error sending GIF: `%s`", msg.err.Error()))
			return m.setStatus("⚠ "+msg.err.Error(), true)
		}

	case gifUpvotedMsg:
		m.finishAction()
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Error upvoting GIF #%d: `%s`", msg.index, msg.err.Error()))
			return m.setStatus("⚠ "+msg.err.Error(), true)
		}
		m.addLog("success", fmt.Sprintf("Upvoted GIF #%d", msg.index))
		return nil

	case ledgerInitializedMsg:
		m.finishAction()
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Error creating BaseAccount: `%s`", msg.err.Error()))
			return m.setStatus("⚠ "+msg.err.Error(), true)
		}
		addr := msg.address.String()
		if err := m.store.Update(func(c *config.Config) { c.LedgerAccount = addr }); err != nil {
			m.addLog("error", fmt.Sprintf("Could not save ledger account: `%s`", err.Error()))
		}
		m.ctrl.SetLedger(msg.address)
		m.addLog("success", fmt.Sprintf("Created a new BaseAccount w/ address: `%s`", addr))
		return tea.Batch(
			m.setStatus("✓ Ledger initialized", false),
			m.startAction(refreshList(m.ctx, m.ctrl)),
		)

	case balanceLoadedMsg:
		m.loadingBalance = false
		if msg.err != nil {
			m.balanceErr = msg.err.Error()
			m.addLog("error", fmt.Sprintf("Failed to load balance: `%s`", msg.err.Error()))
			return nil
		}
		m.balanceErr = ""
		m.balance = msg.lamports
		m.balanceAt = time.Now()
		m.addLog("debug", fmt.Sprintf("Balance %s SOL", helpers.FormatSOL(msg.lamports)))
		return nil

	case clipboardCopiedMsg:
		m.addLog("info", fmt.Sprintf("Copied %s to clipboard", msg.what))
		return m.setStatus("✓ Copied "+msg.what+" to clipboard", false)

	case clearStatusMsg:
		if time.Now().Sub(m.statusTime) >= statusTTL {
			m.status = ""
			m.statusErr = false
		}
		return nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		// Width accounts for border and padding
		m.logViewport.Width = max(0, msg.Width-6)
		m.input.Width = helpers.Max(20, helpers.Min(80, msg.Width-16))
		m.logSeen = -1
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		// Update log spinner too if log is enabled but not ready
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...)

	case tea.MouseMsg:
		if m.logEnabled && m.logReady && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown) {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return cmd
		}
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass everything else to the text input while it is focused
	if m.activePage == config.PagePortal && m.mode == gallery.ModeAdding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	return nil
}

// updateHomeForm drives the huh menu shown on the home page
func (m *model) updateHomeForm(msg tea.Msg) (tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q", "ctrl+c":
			return tea.Quit, true
		case "l", "L":
			return m.toggleLog(), true
		}
	}
	if m.homeForm == nil {
		m.homeForm = home.CreateForm()
	}

	form, cmd := m.homeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.homeForm = f
		if m.homeForm.State == huh.StateCompleted {
			choice := home.TempSelection
			m.homeForm = nil
			switch choice {
			case home.ChoiceWallet:
				return m.goWallet(), true
			case home.ChoiceSettings:
				m.activePage = config.PageSettings
			default:
				m.activePage = config.PagePortal
			}
			return nil, true
		}
		if m.homeForm.State == huh.StateAborted {
			m.homeForm = nil
			return tea.Quit, true
		}
	}
	_, isKey := msg.(tea.KeyMsg)
	return cmd, isKey
}

// updateClusterForm drives the add and edit cluster forms
func (m *model) updateClusterForm(msg tea.Msg) (tea.Cmd, bool) {
	// Intercept ESC key to cancel form
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.settingsMode = "list"
		m.form = nil
		return nil, true
	}

	form, cmd := m.form.Update(msg)
	_, isKey := msg.(tea.KeyMsg)
	f, ok := form.(*huh.Form)
	if !ok {
		return cmd, isKey
	}
	m.form = f

	if m.form.State == huh.StateCompleted {
		name := strings.TrimSpace(tempClusterFormName)
		url := strings.TrimSpace(tempClusterFormURL)
		mode := m.settingsMode
		idx := m.selectedClusterIdx
		m.settingsMode = "list"
		m.form = nil

		if name == "" || url == "" {
			return nil, true
		}
		reconnect := false
		err := m.store.Update(func(c *config.Config) {
			if mode == "add" {
				c.Clusters = append(c.Clusters, config.Cluster{Name: name, URL: url})
				return
			}
			if idx >= 0 && idx < len(c.Clusters) {
				reconnect = c.Clusters[idx].Active && c.Clusters[idx].URL != url
				c.Clusters[idx].Name = name
				c.Clusters[idx].URL = url
			}
		})
		if err != nil {
			m.addLog("error", fmt.Sprintf("Could not save config: `%s`", err.Error()))
			return nil, true
		}
		if mode == "add" {
			m.addLog("success", fmt.Sprintf("Added cluster: `%s` (%s)", name, url))
		} else {
			m.addLog("success", fmt.Sprintf("Updated cluster: `%s`", name))
		}
		if reconnect {
			return m.switchCluster(), true
		}
		// Return without the form's cmd to ensure we're back in list mode
		return nil, true
	}

	// Check if form was aborted (ESC pressed)
	if m.form.State == huh.StateAborted {
		m.settingsMode = "list"
		m.form = nil
		return nil, true
	}
	return cmd, isKey
}

// -------------------- KEYS --------------------

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Dialogs take every key while open
	if m.showClusterDeleteDialog {
		return m.handleClusterDeleteDialog(msg)
	}
	if m.activePage == config.PagePortal && m.mode == gallery.ModeConfirmInit {
		return m.handleInitDialog(msg)
	}

	allowMenuHotkeys := !m.textInputActive()
	// global keys
	if allowMenuHotkeys {
		switch msg.String() {
		case "ctrl+c", "q":
			return tea.Quit

		case "l", "L":
			return m.toggleLog()

		case "pageup", "pagedown":
			// Allow scrolling in log viewport when enabled
			if m.logEnabled && m.logReady {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return cmd
			}

		case "h", "H":
			m.activePage = config.PageHome
			m.homeForm = home.CreateForm()
			return nil

		case "p", "P":
			m.activePage = config.PagePortal
			return nil

		case "w", "W":
			return m.goWallet()

		case "s", "S":
			m.activePage = config.PageSettings
			return nil

		case "c", "C":
			return m.connect()

		case "x", "X":
			return m.disconnect()
		}
	} else if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	// page-specific behavior
	switch m.activePage {
	case config.PagePortal:
		return m.handlePortalKey(msg)
	case config.PageWallet:
		return m.handleWalletKey(msg)
	case config.PageSettings:
		return m.handleSettingsKey(msg)
	}
	return nil
}

func (m *model) handlePortalKey(msg tea.KeyMsg) tea.Cmd {
	if m.mode == gallery.ModeAdding {
		switch msg.String() {
		case "esc":
			m.mode = gallery.ModeBrowse
			m.input.Blur()
			m.input.SetValue("")
			m.state.SetInput("")
			return nil
		case "enter":
			link := strings.TrimSpace(m.input.Value())
			m.mode = gallery.ModeBrowse
			m.input.Blur()
			m.state.SetInput(link)
			if link == "" {
				m.addLog("info", "No gif link given!")
				return nil
			}
			m.addLog("info", fmt.Sprintf("Gif link: `%s`", helpers.SanitizeText(link)))
			return m.startAction(submitGif(m.ctx, m.ctrl, link))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.state.SetInput(m.input.Value())
		return cmd
	}

	snap := m.state.Snapshot()
	switch msg.String() {
	case "esc":
		m.activePage = config.PageHome
		m.homeForm = home.CreateForm()
		return nil
	case "r", "R":
		return m.startAction(refreshList(m.ctx, m.ctrl))
	}

	if !snap.Connected {
		return nil
	}
	if !snap.Loaded {
		if msg.String() == "i" || msg.String() == "I" || msg.String() == "enter" {
			m.mode = gallery.ModeConfirmInit
			m.initYesSelected = true
		}
		return nil
	}

	visible := portal.VisibleEntries(snap.List)
	cols := gallery.Columns(m.w)
	switch msg.String() {
	case "left":
		if m.selected > 0 {
			m.selected--
		}
	case "right":
		if m.selected < len(visible)-1 {
			m.selected++
		}
	case "up", "k":
		if m.selected-cols >= 0 {
			m.selected -= cols
		}
	case "down", "j":
		if m.selected+cols < len(visible) {
			m.selected += cols
		}
	case "a", "A":
		m.mode = gallery.ModeAdding
		m.input.SetValue(m.state.Input())
		return m.input.Focus()
	case "enter":
		if m.selected >= 0 && m.selected < len(visible) {
			v := visible[m.selected]
			m.addLog("info", fmt.Sprintf("Upvoting `%s`", helpers.SanitizeText(v.Entry.Link)))
			return m.startAction(upvoteGif(m.ctx, m.ctrl, v.Index))
		}
	case "y", "Y":
		if m.selected >= 0 && m.selected < len(visible) {
			return copyToClipboard(visible[m.selected].Entry.Link, "link")
		}
	}
	return nil
}

// handleInitDialog drives the Yes/No confirmation before creating the ledger account
func (m *model) handleInitDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab":
		m.initYesSelected = !m.initYesSelected
	case "y", "Y":
		m.initYesSelected = true
	case "n", "N":
		m.initYesSelected = false
	case "esc":
		m.mode = gallery.ModeBrowse
	case "enter":
		m.mode = gallery.ModeBrowse
		if m.initYesSelected {
			m.addLog("info", fmt.Sprintf("Initializing ledger account `%s`", m.ctrl.InitAccount()))
			return m.startAction(initializeLedger(m.ctx, m.ctrl))
		}
	case "ctrl+c":
		return tea.Quit
	}
	return nil
}

func (m *model) handleWalletKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.activePage = config.PagePortal
	case "y", "Y":
		if addr, ok := m.state.Address(); ok {
			return copyToClipboard(addr, "address")
		}
	case "r", "R":
		return m.startBalance()
	}
	return nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	// Only handle list mode controls here (form handled at top of Update)
	if m.settingsMode != "list" {
		return nil
	}
	clusters := m.store.Get().Clusters
	switch msg.String() {
	case "esc":
		m.activePage = config.PagePortal

	case "a", "A":
		m.settingsMode = "add"
		m.createAddClusterForm()

	case "e", "E":
		if len(clusters) > 0 {
			m.settingsMode = "edit"
			m.createEditClusterForm(m.selectedClusterIdx)
		}

	case "d", "D", "delete", "backspace":
		if m.selectedClusterIdx < len(clusters) {
			m.showClusterDeleteDialog = true
			m.deleteDialogYesSelected = true
		}

	case "up", "k":
		if m.selectedClusterIdx > 0 {
			m.selectedClusterIdx--
		}

	case "down", "j":
		if m.selectedClusterIdx < len(clusters)-1 {
			m.selectedClusterIdx++
		}

	case "enter", " ":
		// Set as active
		if m.selectedClusterIdx < len(clusters) {
			name := clusters[m.selectedClusterIdx].Name
			if err := m.store.Update(func(c *config.Config) {
				for i := range c.Clusters {
					c.Clusters[i].Active = i == m.selectedClusterIdx
				}
			}); err != nil {
				m.addLog("error", fmt.Sprintf("Could not save config: `%s`", err.Error()))
				return nil
			}
			m.addLog("info", fmt.Sprintf("Switched to cluster `%s`", name))
			return m.switchCluster()
		}
	}
	return nil
}

func (m *model) handleClusterDeleteDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab":
		m.deleteDialogYesSelected = !m.deleteDialogYesSelected
		return nil
	case "esc":
		m.showClusterDeleteDialog = false
		return nil
	case "enter":
		m.showClusterDeleteDialog = false
		if !m.deleteDialogYesSelected {
			return nil
		}
		idx := m.selectedClusterIdx
		var deleted config.Cluster
		if err := m.store.Update(func(c *config.Config) {
			if idx < 0 || idx >= len(c.Clusters) {
				return
			}
			deleted = c.Clusters[idx]
			c.Clusters = append(c.Clusters[:idx], c.Clusters[idx+1:]...)
		}); err != nil {
			m.addLog("error", fmt.Sprintf("Could not save config: `%s`", err.Error()))
			return nil
		}
		if m.selectedClusterIdx >= len(m.store.Get().Clusters) && m.selectedClusterIdx > 0 {
			m.selectedClusterIdx--
		}
		m.addLog("warning", fmt.Sprintf("Deleted cluster `%s`", deleted.Name))
		if deleted.Active {
			return m.switchCluster()
		}
	}
	return nil
}

// -------------------- ACTIONS --------------------

// toggleLog shows or hides the log panel and persists the choice
func (m *model) toggleLog() tea.Cmd {
	m.logEnabled = !m.logEnabled
	enabled := m.logEnabled
	if err := m.store.Update(func(c *config.Config) { c.Logger = enabled }); err != nil {
		m.addLog("error", fmt.Sprintf("Could not save config: `%s`", err.Error()))
	}
	if enabled {
		// Initialize viewport when enabling
		if m.w > 0 {
			m.logViewport.Width = m.w - 6
		}
		m.logReady = false
		return tea.Batch(initLogViewport(), m.logSpinner.Tick)
	}
	m.logReady = false
	return nil
}

func (m *model) goWallet() tea.Cmd {
	m.activePage = config.PageWallet
	if _, ok := m.state.Address(); ok && !m.loadingBalance {
		return m.startBalance()
	}
	return nil
}

func (m *model) startBalance() tea.Cmd {
	if m.network == nil {
		return nil
	}
	m.loadingBalance = true
	return loadBalance(m.ctx, m.network)
}

func (m *model) connect() tea.Cmd {
	if m.connector == nil || !m.connector.Available() {
		m.addLog("warning", "Solana wallet not found! Create a keypair with solana-keygen")
		return m.setStatus("⚠ No wallet found", true)
	}
	if m.connector.Connected() {
		return nil
	}
	return connectWallet(m.ctx, m.connector)
}

func (m *model) disconnect() tea.Cmd {
	if m.connector == nil || !m.connector.Connected() {
		return nil
	}
	return disconnectWallet(m.ctx, m.connector)
}

// switchCluster drops the current session and reconnects on the active cluster
func (m *model) switchCluster() tea.Cmd {
	old := m.connector
	m.connector = nil
	m.provider = nil
	m.network = nil
	m.ctrl.SetNetwork(nil)
	m.state.Reset()
	m.mode = gallery.ModeBrowse
	m.selected = 0
	m.balance = 0
	m.balanceErr = ""
	return tea.Batch(closeConnector(old), m.setupConnector())
}
