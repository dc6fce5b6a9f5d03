package main

import (
	"strings"

	"gif-portal-tui/config"
	"gif-portal-tui/helpers"
	"gif-portal-tui/views/details"
	"gif-portal-tui/views/gallery"
	"gif-portal-tui/views/home"
	logview "gif-portal-tui/views/log"
	"gif-portal-tui/views/settings"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

// renderConfirmDialog draws a centered Yes/No question
func (m *model) renderConfirmDialog(question string, yesSelected bool) string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString(question, "#F25D94", "#EDFF82")
	q := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	// Apply active style to the selected button
	var okButton, cancelButton string
	if yesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, q, buttons)

	// Center the dialog on screen
	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m *model) globalHeader() string {
	availableWidth := helpers.Max(0, m.w-8) // Account for panel padding

	var addrDisplay string
	if addr, ok := m.state.Address(); ok {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Wallet: " + helpers.FadeString(helpers.ShortenAddr(addr), "#F25D94", "#EDFF82"))
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Wallet: not connected")
	}

	cluster := m.clusterEndpoint()
	statusIcon := "○"
	statusColor := cError
	var statusText string
	switch {
	case m.connecting:
		statusText = "Connecting..."
	case m.setupErr != "":
		statusText = "Connection Failed"
	case m.network == nil:
		statusColor = cWarn
		statusText = cluster.Name + " (no wallet)"
	default:
		statusIcon = "●"
		statusColor = cAccent
		statusText = cluster.Name
	}

	clusterDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	// Center title
	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("gif portal", "#7EE787", "#82CFFD"))
	if m.pending > 0 {
		titleText += " " + m.spin.View()
	}

	addrWidth := lipgloss.Width(addrDisplay)
	clusterWidth := lipgloss.Width(clusterDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := addrWidth + clusterWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + clusterDisplay
	} else {
		// Three-column layout: Address | Title (centered) | Cluster
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		leftSpacer := strings.Repeat(" ", helpers.Max(1, leftPadding))
		rightSpacer := strings.Repeat(" ", helpers.Max(1, rightPadding))

		headerLine = addrDisplay + leftSpacer + titleText + rightSpacer + clusterDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

// walletView collects what the wallet page shows
func (m *model) walletView() details.Wallet {
	w := details.Wallet{
		Path:     m.keypairPath,
		Cluster:  m.clusterEndpoint().Name,
		Lamports: m.balance,
		LoadedAt: m.balanceAt,
		ErrMsg:   m.balanceErr,
	}
	if m.connector != nil {
		w.Detected = m.connector.Available()
	}
	if m.provider != nil {
		w.Kind = m.provider.Kind()
	}
	w.Address, w.Connected = m.state.Address()
	return w
}

func (m *model) View() string {
	// Dialogs replace the whole screen
	if m.showClusterDeleteDialog {
		clusters := m.store.Get().Clusters
		name := ""
		if m.selectedClusterIdx < len(clusters) {
			name = clusters[m.selectedClusterIdx].Name
		}
		return m.renderConfirmDialog("Delete cluster "+name+"?", m.deleteDialogYesSelected)
	}
	if m.activePage == config.PagePortal && m.mode == gallery.ModeConfirmInit {
		return m.renderConfirmDialog(
			"Create the GIF ledger account "+helpers.ShortenAddr(m.ctrl.InitAccount().String())+"? This costs rent.",
			m.initYesSelected,
		)
	}

	headerPanel := panelStyle.Width(helpers.Max(0, m.w-2)).Render(m.globalHeader())

	var pageContent string
	var nav string
	cfg := m.store.Get()

	switch m.activePage {
	case config.PageHome:
		if m.homeForm == nil {
			m.homeForm = home.CreateForm()
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(home.Render(m.homeForm))
		nav = home.Nav(m.w)

	case config.PagePortal:
		snap := m.state.Snapshot()
		content := gallery.Render(gallery.Props{
			Snapshot:    snap,
			Selected:    m.selected,
			Mode:        m.mode,
			InputView:   m.input.View(),
			Busy:        m.pending > 0,
			SpinnerView: m.spin.View(),
			Width:       helpers.Max(0, m.w-8),
		})
		if snap.Loaded && !m.loadedAt.IsZero() {
			content += "\n" + lipgloss.NewStyle().Foreground(cMuted).Render("updated "+helpers.LoadedAt(m.loadedAt, m.pending > 0))
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(content)
		nav = gallery.Nav(m.w, m.mode, snap)

	case config.PageWallet:
		w := m.walletView()
		copied := ""
		if !m.statusErr {
			copied = m.status
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(details.Render(w, m.loadingBalance, copied, m.spin.View()))
		nav = details.Nav(m.w, w.Connected)

	case config.PageSettings:
		var content string
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			title := "Add Cluster"
			if m.settingsMode == "edit" {
				title = "Edit Cluster"
			}
			content = titleStyle.Render(title) + "\n\n" + m.form.View()
		} else {
			content = settings.Render(cfg.Clusters, m.selectedClusterIdx, cfg.ProgramID, m.ctrl.Ledger().String())
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(content)
		nav = settings.Nav(m.w, m.settingsMode)
	}

	sections := []string{headerPanel, pageContent}
	if m.status != "" && m.activePage != config.PageWallet {
		color := cAccent
		if m.statusErr {
			color = cWarn
		}
		sections = append(sections, lipgloss.NewStyle().Foreground(color).Bold(true).Padding(0, 2).Render(m.status))
	}
	sections = append(sections, nav)

	if m.logEnabled {
		sections = append(sections, logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
