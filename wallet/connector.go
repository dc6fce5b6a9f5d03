package wallet

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gif-portal-tui/rpc"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
)

// State is the connector's position in the wallet handshake
type State int

const (
	StateUndetected State = iota
	StateDetected
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUndetected:
		return "undetected"
	case StateDetected:
		return "detected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Dialer opens the network connection for a cluster endpoint
type Dialer func(url string) (*rpc.Client, error)

func defaultDialer(url string) (*rpc.Client, error) {
	res := rpc.Connect(url)
	return res.Client, res.Error
}

// Connector detects a wallet provider, binds it to the network and follows
// its connect/disconnect notifications. Parents learn about changes through
// the handlers passed as options.
type Connector struct {
	detect       Detector
	clusterURL   string
	expectedKind string
	dial         Dialer
	providerOpts []rpc.Option
	logger       *log.Logger

	onAddress         func(address *string)
	onProvider        func(p Provider)
	onNetworkProvider func(p *rpc.Provider)

	mu          sync.Mutex
	state       State
	provider    Provider
	network     *rpc.Provider
	pubKey      solana.PublicKey
	connected   bool
	unsubscribe func()
	done        chan struct{}
}

// Option customizes a Connector
type Option func(*Connector)

// WithAddressHandler receives the wallet address on connect and nil on disconnect
func WithAddressHandler(fn func(address *string)) Option {
	return func(c *Connector) { c.onAddress = fn }
}

// WithProviderHandler receives the detected provider
func WithProviderHandler(fn func(p Provider)) Option {
	return func(c *Connector) { c.onProvider = fn }
}

// WithNetworkProviderHandler receives the network-bound provider once, at detection
func WithNetworkProviderHandler(fn func(p *rpc.Provider)) Option {
	return func(c *Connector) { c.onNetworkProvider = fn }
}

// WithDialer replaces the network dialer
func WithDialer(d Dialer) Option {
	return func(c *Connector) { c.dial = d }
}

// WithProviderOptions are applied to the network provider built at detection
func WithProviderOptions(opts ...rpc.Option) Option {
	return func(c *Connector) { c.providerOpts = append(c.providerOpts, opts...) }
}

// WithLogger routes connector logs to l
func WithLogger(l *log.Logger) Option {
	return func(c *Connector) { c.logger = l }
}

// NewConnector creates a connector for the given cluster endpoint
func NewConnector(detect Detector, clusterURL string, opts ...Option) *Connector {
	c := &Connector{
		detect:       detect,
		clusterURL:   clusterURL,
		expectedKind: KindKeypair,
		dial:         defaultDialer,
		logger:       log.New(io.Discard),
		state:        StateUndetected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Setup runs detection once. Without a recognised provider the connector
// stays undetected and Setup returns nil. Otherwise it dials the cluster,
// publishes the providers, starts following notifications and attempts a
// trust-only connect whose failure is only logged.
func (c *Connector) Setup(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUndetected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	p, err := c.detect()
	if err != nil || p == nil {
		c.logger.Info("no wallet provider", "err", err)
		return nil
	}
	if p.Kind() != c.expectedKind {
		c.logger.Warn("ignoring wallet provider", "kind", p.Kind(), "want", c.expectedKind)
		return nil
	}

	conn, err := c.dial(c.clusterURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.clusterURL, err)
	}
	opts := append([]rpc.Option{
		rpc.WithPreflightCommitment("processed"),
		rpc.WithLogger(c.logger),
	}, c.providerOpts...)
	network := rpc.NewProvider(conn, p, opts...)

	events, unsubscribe := p.Subscribe()
	done := make(chan struct{})

	c.mu.Lock()
	c.provider = p
	c.network = network
	c.unsubscribe = unsubscribe
	c.done = done
	c.state = StateDetected
	c.mu.Unlock()

	if c.onProvider != nil {
		c.onProvider(p)
	}
	if c.onNetworkProvider != nil {
		c.onNetworkProvider(network)
	}

	go c.run(events, done)

	c.setState(StateConnecting)
	if _, err := p.Connect(ctx, ConnectOpts{OnlyIfTrusted: true}); err != nil {
		c.logger.Debug("silent connect skipped", "err", err)
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDetected
		}
		c.mu.Unlock()
	}
	return nil
}

func (c *Connector) run(events <-chan Event, done chan struct{}) {
	defer close(done)
	for ev := range events {
		c.handle(ev)
	}
}

func (c *Connector) handle(ev Event) {
	switch ev.Type {
	case EventConnect:
		c.mu.Lock()
		c.connected = true
		c.pubKey = ev.PublicKey
		c.state = StateConnected
		c.mu.Unlock()

		addr := ev.PublicKey.String()
		c.logger.Info("connect event", "address", addr)
		if c.onAddress != nil {
			c.onAddress(&addr)
		}

	case EventDisconnect:
		c.mu.Lock()
		c.connected = false
		c.pubKey = solana.PublicKey{}
		c.state = StateDisconnected
		c.mu.Unlock()

		c.logger.Info("disconnect event")
		if c.onAddress != nil {
			c.onAddress(nil)
		}
	}
}

// Connect asks the provider for an explicit connection. It does nothing while
// connected or before a provider was detected.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	p, connected := c.provider, c.connected
	c.mu.Unlock()
	if p == nil || connected {
		return nil
	}

	if _, err := p.Connect(ctx, ConnectOpts{}); err != nil {
		c.logger.Error("connect error", "err", err)
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect asks the provider to disconnect. It does nothing while disconnected.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	p, connected := c.provider, c.connected
	c.mu.Unlock()
	if p == nil || !connected {
		return nil
	}

	if err := p.Disconnect(ctx); err != nil {
		c.logger.Error("disconnect error", "err", err)
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Close unsubscribes from the provider and waits for the event loop to stop
func (c *Connector) Close() {
	c.mu.Lock()
	unsubscribe, done := c.unsubscribe, c.done
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	unsubscribe()
	<-done
}

func (c *Connector) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the current handshake state
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether a provider was detected
func (c *Connector) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider != nil
}

// Connected reports the connected flag
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Address returns the connected wallet address
func (c *Connector) Address() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", false
	}
	return c.pubKey.String(), true
}

// Network returns the network provider built at detection, if any
func (c *Connector) Network() *rpc.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.network
}
