package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gif-portal-tui/config"
	"gif-portal-tui/helpers"
	"gif-portal-tui/portal"
	"gif-portal-tui/rpc"
	"gif-portal-tui/styles"
	"gif-portal-tui/views/gallery"
	logview "gif-portal-tui/views/log"
	"gif-portal-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	store       *config.Store
	keypairPath string

	// portal state and actions
	state *portal.State
	ctrl  *portal.Controller

	// wallet connector; generation discards messages from replaced connectors
	connector  *wallet.Connector
	generation int
	events     chan tea.Msg
	provider   wallet.Provider
	network    *rpc.Provider
	connecting bool
	setupErr   string

	// gallery
	mode            gallery.Mode
	selected        int
	input           textinput.Model
	pending         int
	loadedAt        time.Time
	initYesSelected bool

	// wallet page
	balance        uint64
	balanceAt      time.Time
	balanceErr     string
	loadingBalance bool

	spin spinner.Model

	// transient feedback (clipboard, action errors)
	status     string
	statusErr  bool
	statusTime time.Time

	// settings state
	settingsMode            string // "list", "add", "edit"
	selectedClusterIdx      int
	form                    *huh.Form
	showClusterDeleteDialog bool
	deleteDialogYesSelected bool

	// home form
	homeForm *huh.Form

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logview.Buffer
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
	logSeen     int

	ctx    context.Context
	cancel context.CancelFunc
}

// -------------------- INIT --------------------

// newModel creates and initializes a new model with configuration from disk
func newModel(opts options) (*model, error) {
	cfg := config.LoadOrCreate(opts.configPath)
	store := config.NewStore(opts.configPath, cfg)

	if opts.cluster != "" {
		names := make([]string, 0, len(cfg.Clusters))
		for _, cl := range cfg.Clusters {
			names = append(names, cl.Name)
		}
		if !helpers.Contains(names, opts.cluster) {
			return nil, fmt.Errorf("cluster %q is not configured in %s", opts.cluster, opts.configPath)
		}
		if err := store.Update(func(c *config.Config) { activateCluster(c, opts.cluster) }); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}

	keypairPath := cfg.KeypairPath
	if opts.keypairPath != "" {
		keypairPath = opts.keypairPath
	}

	if !helpers.IsValidSolanaAddress(cfg.ProgramID) {
		return nil, fmt.Errorf("program_id %q is not a valid address", cfg.ProgramID)
	}
	if !helpers.IsValidSolanaAddress(cfg.LedgerAccount) {
		return nil, fmt.Errorf("ledger_account %q is not a valid address", cfg.LedgerAccount)
	}
	programID := solana.MustPublicKeyFromBase58(cfg.ProgramID)
	ledger := solana.MustPublicKeyFromBase58(cfg.LedgerAccount)

	// one logger for the whole app; the panel only decides whether it is shown
	logBuffer := &logview.Buffer{}
	logger := logview.NewLogger(logBuffer)

	ctrlOpts := []portal.Option{portal.WithLogger(logger.WithPrefix("portal"))}
	if key := loadInitKey(cfg.InitAccountKeypair, logger); key != nil {
		ctrlOpts = append(ctrlOpts, portal.WithInitKey(key))
	}
	state := portal.NewState()
	ctrl := portal.NewController(state, programID, ledger, ctrlOpts...)

	// input for gif links
	in := textinput.New()
	in.Placeholder = "Enter gif link!"
	in.Prompt = "Link: "
	in.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	in.CharLimit = 512
	in.Width = 64

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	// Initialize log spinner
	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	ctx, cancel := context.WithCancel(context.Background())

	m := &model{
		activePage:   config.PagePortal,
		store:        store,
		keypairPath:  keypairPath,
		state:        state,
		ctrl:         ctrl,
		events:       make(chan tea.Msg, 32),
		mode:         gallery.ModeBrowse,
		input:        in,
		spin:         sp,
		settingsMode: "list",
		logEnabled:   cfg.Logger,
		logger:       logger,
		logBuffer:    logBuffer,
		logViewport:  vp,
		logSpinner:   logSpin,
		ctx:          ctx,
		cancel:       cancel,
	}

	return m, nil
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, listen(m.events), m.setupConnector()}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	return tea.Batch(cmds...)
}

// shutdown stops the connector once the program has exited
func (m *model) shutdown() {
	m.cancel()
	if m.connector != nil {
		m.connector.Close()
	}
}

// clusterEndpoint returns the cluster to dial. SOLANA_RPC_URL wins over the config.
func (m *model) clusterEndpoint() config.Cluster {
	if env := strings.TrimSpace(os.Getenv("SOLANA_RPC_URL")); env != "" {
		return config.Cluster{Name: "SOLANA_RPC_URL", URL: env, Active: true}
	}
	cl, ok := m.store.Get().ActiveCluster()
	if !ok {
		return config.Cluster{Name: "Devnet", URL: config.DevnetURL, Active: true}
	}
	return cl
}

// activateCluster marks the named cluster as the only active one
func activateCluster(c *config.Config, name string) {
	for i := range c.Clusters {
		c.Clusters[i].Active = strings.EqualFold(c.Clusters[i].Name, name)
	}
}

// loadInitKey reads the configured init account keypair. Without one the
// controller generates a key for this session.
func loadInitKey(path string, logger *log.Logger) solana.PrivateKey {
	if path == "" {
		return nil
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		logger.Warn("could not load init_account_keypair", "path", path, "err", err)
		return nil
	}
	return key
}
