package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gif-portal-tui/rpc"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func fakeDialer(url string) (*rpc.Client, error) {
	return rpc.NewClient(url, nil), nil
}

// addressRecorder collects every value passed to the address handler
type addressRecorder struct {
	mu    sync.Mutex
	calls []*string
	ch    chan struct{}
}

func newAddressRecorder() *addressRecorder {
	return &addressRecorder{ch: make(chan struct{}, 16)}
}

func (r *addressRecorder) handle(addr *string) {
	r.mu.Lock()
	r.calls = append(r.calls, addr)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *addressRecorder) wait(t *testing.T) *string {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("address handler not called")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func TestConnectorConnectDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	key := solana.NewWallet().PrivateKey
	provider := NewKeypairProvider("", key, newMemTrust())
	rec := newAddressRecorder()

	var gotProvider Provider
	var gotNetwork *rpc.Provider
	c := NewConnector(
		func() (Provider, error) { return provider, nil },
		"https://api.devnet.solana.com",
		WithDialer(fakeDialer),
		WithAddressHandler(rec.handle),
		WithProviderHandler(func(p Provider) { gotProvider = p }),
		WithNetworkProviderHandler(func(p *rpc.Provider) { gotNetwork = p }),
		WithProviderOptions(rpc.WithCommitment("confirmed")),
	)
	defer c.Close()

	require.NoError(t, c.Setup(context.Background()))
	assert.Equal(t, StateDetected, c.State(), "untrusted wallet stays detected after silent connect")
	assert.Same(t, provider, gotProvider)
	require.NotNil(t, gotNetwork)
	assert.Equal(t, "https://api.devnet.solana.com", gotNetwork.Conn.URL)
	assert.EqualValues(t, "confirmed", gotNetwork.Commitment())
	assert.False(t, c.Connected())

	require.NoError(t, c.Connect(context.Background()))
	addr := rec.wait(t)
	require.NotNil(t, addr)
	assert.Equal(t, key.PublicKey().String(), *addr)
	assert.Eventually(t, c.Connected, time.Second, time.Millisecond)
	assert.Equal(t, StateConnected, c.State())

	got, ok := c.Address()
	assert.True(t, ok)
	assert.Equal(t, key.PublicKey().String(), got)

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Nil(t, rec.wait(t))
	assert.False(t, c.Connected())
	assert.Equal(t, StateDisconnected, c.State())
	_, ok = c.Address()
	assert.False(t, ok)

	c.Close()
}

func TestConnectorSilentConnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	key := solana.NewWallet().PrivateKey
	provider := NewKeypairProvider("", key, newMemTrust(key.PublicKey().String()))
	rec := newAddressRecorder()

	c := NewConnector(
		func() (Provider, error) { return provider, nil },
		"fake",
		WithDialer(fakeDialer),
		WithAddressHandler(rec.handle),
	)
	require.NoError(t, c.Setup(context.Background()))

	addr := rec.wait(t)
	require.NotNil(t, addr)
	assert.Equal(t, key.PublicKey().String(), *addr)
	assert.Eventually(t, c.Connected, time.Second, time.Millisecond)

	c.Close()
}

func TestConnectorDisconnectFromAnyState(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := NewKeypairProvider("", solana.NewWallet().PrivateKey, nil)
	rec := newAddressRecorder()
	c := NewConnector(
		func() (Provider, error) { return provider, nil },
		"fake",
		WithDialer(fakeDialer),
		WithAddressHandler(rec.handle),
	)
	require.NoError(t, c.Setup(context.Background()))

	// a disconnect notification without a prior connect still resets the address
	require.NoError(t, provider.Disconnect(context.Background()))
	assert.Nil(t, rec.wait(t))
	assert.Equal(t, StateDisconnected, c.State())

	c.Close()
}

func TestConnectorGuards(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := NewKeypairProvider("", solana.NewWallet().PrivateKey, nil)
	c := NewConnector(func() (Provider, error) { return provider, nil }, "fake", WithDialer(fakeDialer))

	// before setup there is nothing to connect
	require.NoError(t, c.Connect(context.Background()))
	assert.False(t, c.Available())

	require.NoError(t, c.Setup(context.Background()))
	assert.True(t, c.Available())

	// disconnect while disconnected is a no-op
	events, unsubscribe := provider.Subscribe()
	require.NoError(t, c.Disconnect(context.Background()))
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(20 * time.Millisecond):
	}
	unsubscribe()

	c.Close()
	c.Close()
}

type foreignProvider struct{ *KeypairProvider }

func (foreignProvider) Kind() string { return "other-wallet" }

func TestConnectorUndetected(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		c := NewConnector(func() (Provider, error) { return nil, ErrNoProvider }, "fake", WithDialer(fakeDialer))
		require.NoError(t, c.Setup(context.Background()))
		assert.Equal(t, StateUndetected, c.State())
		assert.False(t, c.Available())
		c.Close()
	})

	t.Run("foreign provider kind", func(t *testing.T) {
		p := foreignProvider{NewKeypairProvider("", solana.NewWallet().PrivateKey, nil)}
		c := NewConnector(func() (Provider, error) { return p, nil }, "fake", WithDialer(fakeDialer))
		require.NoError(t, c.Setup(context.Background()))
		assert.Equal(t, StateUndetected, c.State())
		assert.Nil(t, c.Network())
	})

	t.Run("dial failure", func(t *testing.T) {
		p := NewKeypairProvider("", solana.NewWallet().PrivateKey, nil)
		boom := errors.New("boom")
		c := NewConnector(
			func() (Provider, error) { return p, nil },
			"fake",
			WithDialer(func(string) (*rpc.Client, error) { return nil, boom }),
		)
		err := c.Setup(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, StateUndetected, c.State())
	})
}
