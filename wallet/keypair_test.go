package wallet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTrust struct {
	mu      sync.Mutex
	trusted map[string]bool
}

func newMemTrust(addrs ...string) *memTrust {
	t := &memTrust{trusted: map[string]bool{}}
	for _, a := range addrs {
		t.trusted[a] = true
	}
	return t
}

func (m *memTrust) IsTrusted(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trusted[address]
}

func (m *memTrust) Trust(address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trusted[address] = true
	return nil
}

// writeKeygenFile writes key in the solana-keygen JSON format (array of 64 numbers)
func writeKeygenFile(t *testing.T, key solana.PrivateKey) string {
	t.Helper()
	nums := make([]int, len(key))
	for i, b := range key {
		nums[i] = int(b)
	}
	data, err := json.Marshal(nums)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDetect(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Detect(filepath.Join(t.TempDir(), "nope.json"), nil)
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("not a keypair", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "id.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"hello":"world"}`), 0600))
		_, err := Detect(path, nil)
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("valid keypair", func(t *testing.T) {
		key := solana.NewWallet().PrivateKey
		p, err := Detect(writeKeygenFile(t, key), nil)
		require.NoError(t, err)
		assert.Equal(t, KindKeypair, p.Kind())

		_, ok := p.PublicKey()
		assert.False(t, ok, "key is hidden until connected")
	})
}

func TestKeypairProviderTrust(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	trust := newMemTrust()
	p := NewKeypairProvider("", key, trust)
	ctx := context.Background()

	_, err := p.Connect(ctx, ConnectOpts{OnlyIfTrusted: true})
	assert.ErrorIs(t, err, ErrNotTrusted)

	pub, err := p.Connect(ctx, ConnectOpts{})
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), pub)
	assert.True(t, trust.IsTrusted(pub.String()), "explicit connect records trust")

	require.NoError(t, p.Disconnect(ctx))
	pub, err = p.Connect(ctx, ConnectOpts{OnlyIfTrusted: true})
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), pub)
}

func TestKeypairProviderEvents(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	p := NewKeypairProvider("", key, nil)
	ctx := context.Background()

	events, unsubscribe := p.Subscribe()

	_, err := p.Connect(ctx, ConnectOpts{})
	require.NoError(t, err)
	ev := <-events
	assert.Equal(t, EventConnect, ev.Type)
	assert.Equal(t, key.PublicKey(), ev.PublicKey)

	require.NoError(t, p.Disconnect(ctx))
	ev = <-events
	assert.Equal(t, EventDisconnect, ev.Type)

	unsubscribe()
	unsubscribe()
	_, open := <-events
	assert.False(t, open, "unsubscribe closes the channel")

	// no subscribers left; emitting must not block or panic
	_, err = p.Connect(ctx, ConnectOpts{})
	require.NoError(t, err)
}

func TestKeypairProviderEventsKeepLatest(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	p := NewKeypairProvider("", key, nil)
	ctx := context.Background()

	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	for i := 0; i < 3*cap(events); i++ {
		_, err := p.Connect(ctx, ConnectOpts{})
		require.NoError(t, err)
	}
	require.NoError(t, p.Disconnect(ctx))

	require.Len(t, events, cap(events))
	var last Event
	for len(events) > 0 {
		last = <-events
	}
	assert.Equal(t, EventDisconnect, last.Type)
}

func TestKeypairProviderSign(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	p := NewKeypairProvider("", key, nil)

	_, err := p.SignMessage([]byte("hello"))
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = p.Connect(context.Background(), ConnectOpts{})
	require.NoError(t, err)
	sig, err := p.SignMessage([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, sig.Verify(key.PublicKey(), []byte("hello")))
}
