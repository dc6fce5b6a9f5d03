package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// KindKeypair identifies a provider backed by a solana-keygen file
const KindKeypair = "solana-keypair"

// KeypairProvider is a wallet backed by a local keygen JSON file
type KeypairProvider struct {
	path  string
	key   solana.PrivateKey
	trust TrustStore

	mu        sync.Mutex
	connected bool
	subs      map[int]chan Event
	nextSub   int
}

// NewKeypairProvider wraps an already loaded private key
func NewKeypairProvider(path string, key solana.PrivateKey, trust TrustStore) *KeypairProvider {
	return &KeypairProvider{
		path:  path,
		key:   key,
		trust: trust,
		subs:  make(map[int]chan Event),
	}
}

// Detect loads the keypair at path. A missing or malformed file yields ErrNoProvider.
func Detect(path string, trust TrustStore) (*KeypairProvider, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoProvider, path)
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoProvider, path, err)
	}
	return NewKeypairProvider(path, key, trust), nil
}

// KeypairDetector adapts Detect to a Detector
func KeypairDetector(path string, trust TrustStore) Detector {
	return func() (Provider, error) {
		p, err := Detect(path, trust)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (k *KeypairProvider) Kind() string { return KindKeypair }

// Path returns the keypair file location
func (k *KeypairProvider) Path() string { return k.path }

// Connect makes the key available for signing and notifies subscribers.
// A trust-only connect fails with ErrNotTrusted for a wallet never connected
// explicitly; an explicit connect records the wallet as trusted.
func (k *KeypairProvider) Connect(ctx context.Context, opts ConnectOpts) (solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return solana.PublicKey{}, err
	}
	pub := k.key.PublicKey()

	if opts.OnlyIfTrusted {
		if k.trust == nil || !k.trust.IsTrusted(pub.String()) {
			return solana.PublicKey{}, ErrNotTrusted
		}
	} else if k.trust != nil {
		if err := k.trust.Trust(pub.String()); err != nil {
			return solana.PublicKey{}, fmt.Errorf("record trust: %w", err)
		}
	}

	k.mu.Lock()
	k.connected = true
	k.mu.Unlock()

	k.emit(Event{Type: EventConnect, PublicKey: pub})
	return pub, nil
}

// Disconnect drops the connection and notifies subscribers
func (k *KeypairProvider) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	k.connected = false
	k.mu.Unlock()

	k.emit(Event{Type: EventDisconnect})
	return nil
}

func (k *KeypairProvider) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	k.mu.Lock()
	id := k.nextSub
	k.nextSub++
	k.subs[id] = ch
	k.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			k.mu.Lock()
			delete(k.subs, id)
			k.mu.Unlock()
			close(ch)
		})
	}
}

func (k *KeypairProvider) PublicKey() (solana.PublicKey, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.connected {
		return solana.PublicKey{}, false
	}
	return k.key.PublicKey(), true
}

func (k *KeypairProvider) SignMessage(msg []byte) (solana.Signature, error) {
	k.mu.Lock()
	connected := k.connected
	k.mu.Unlock()
	if !connected {
		return solana.Signature{}, ErrNotConnected
	}
	return k.key.Sign(msg)
}

// emit delivers ev to every subscriber. Sends happen under the lock so an
// unsubscribe cannot close a channel mid-send. A full channel gives up its
// oldest event so the latest state always arrives.
func (k *KeypairProvider) emit(ev Event) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, ch := range k.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
