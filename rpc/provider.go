package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

var (
	// ErrWalletNotConnected is returned when the signer has no public key yet
	ErrWalletNotConnected = errors.New("wallet not connected")
	// ErrMissingSigner is returned when a required signature has no key to produce it
	ErrMissingSigner = errors.New("missing signer")
	// ErrConfirmTimeout is returned when a sent transaction is not confirmed in time
	ErrConfirmTimeout = errors.New("transaction not confirmed before timeout")
)

// Signer is the wallet side of a provider: it knows its key and signs messages
type Signer interface {
	PublicKey() (solana.PublicKey, bool)
	SignMessage(msg []byte) (solana.Signature, error)
}

// Provider binds a network connection to a wallet signer, the same pairing a
// dApp hands to a program client.
type Provider struct {
	Conn   *Client
	Wallet Signer

	commitment          solanarpc.CommitmentType
	preflightCommitment solanarpc.CommitmentType
	confirmTimeout      time.Duration
	pollInterval        time.Duration
	logger              *log.Logger
}

// Option customizes a Provider
type Option func(*Provider)

// WithCommitment sets the commitment used for reads and confirmation
func WithCommitment(c solanarpc.CommitmentType) Option {
	return func(p *Provider) { p.commitment = c }
}

// WithPreflightCommitment sets the commitment used for transaction simulation
func WithPreflightCommitment(c solanarpc.CommitmentType) Option {
	return func(p *Provider) { p.preflightCommitment = c }
}

// WithConfirmTimeout bounds how long SendAndConfirm waits for a status
func WithConfirmTimeout(d time.Duration) Option {
	return func(p *Provider) { p.confirmTimeout = d }
}

// WithPollInterval sets the delay between signature status polls
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) { p.pollInterval = d }
}

// WithLogger routes provider logs to l
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider with processed commitment by default
func NewProvider(conn *Client, wallet Signer, opts ...Option) *Provider {
	p := &Provider{
		Conn:                conn,
		Wallet:              wallet,
		commitment:          solanarpc.CommitmentProcessed,
		preflightCommitment: solanarpc.CommitmentProcessed,
		confirmTimeout:      60 * time.Second,
		pollInterval:        500 * time.Millisecond,
		logger:              log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Commitment returns the configured commitment level
func (p *Provider) Commitment() solanarpc.CommitmentType { return p.commitment }

// WalletKey returns the connected wallet key, if any
func (p *Provider) WalletKey() (solana.PublicKey, bool) {
	if p == nil || p.Wallet == nil {
		return solana.PublicKey{}, false
	}
	return p.Wallet.PublicKey()
}

// GetAccountData fetches the raw bytes of an account at the provider's commitment
func (p *Provider) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	return p.Conn.AccountData(ctx, addr, p.commitment)
}

// Balance returns the wallet's balance in lamports
func (p *Provider) Balance(ctx context.Context) (uint64, error) {
	key, ok := p.WalletKey()
	if !ok {
		return 0, ErrWalletNotConnected
	}
	res, err := p.Conn.GetBalance(ctx, key, p.commitment)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// SendAndConfirm builds a transaction paid by the wallet, signs it with the
// wallet plus any extra signers, sends it and waits for confirmation.
func (p *Provider) SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	payer, ok := p.WalletKey()
	if !ok {
		return solana.Signature{}, ErrWalletNotConnected
	}

	bh, err := p.Conn.GetLatestBlockhash(ctx, solanarpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, bh.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if err := p.sign(tx, payer, signers); err != nil {
		return solana.Signature{}, err
	}

	sig, err := p.Conn.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		PreflightCommitment: p.preflightCommitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	p.logger.Debug("transaction sent", "sig", sig.String())

	if err := p.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (p *Provider) sign(tx *solana.Transaction, payer solana.PublicKey, extra []solana.PrivateKey) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	n := int(tx.Message.Header.NumRequiredSignatures)
	tx.Signatures = make([]solana.Signature, 0, n)
	for i := 0; i < n; i++ {
		key := tx.Message.AccountKeys[i]
		if key.Equals(payer) {
			sig, err := p.Wallet.SignMessage(msg)
			if err != nil {
				return fmt.Errorf("wallet sign: %w", err)
			}
			tx.Signatures = append(tx.Signatures, sig)
			continue
		}
		signed := false
		for _, pk := range extra {
			if pk.PublicKey().Equals(key) {
				sig, err := pk.Sign(msg)
				if err != nil {
					return fmt.Errorf("sign with %s: %w", key, err)
				}
				tx.Signatures = append(tx.Signatures, sig)
				signed = true
				break
			}
		}
		if !signed {
			return fmt.Errorf("%w: %s", ErrMissingSigner, key)
		}
	}
	return nil
}

// commitment levels in increasing order of finality
var commitmentRank = map[string]int{
	string(solanarpc.CommitmentProcessed): 1,
	string(solanarpc.CommitmentConfirmed): 2,
	string(solanarpc.CommitmentFinalized): 3,
}

func (p *Provider) confirm(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	want := commitmentRank[string(p.commitment)]
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		res, err := p.Conn.GetSignatureStatuses(ctx, false, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			st := res.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, st.Err)
			}
			if commitmentRank[string(st.ConfirmationStatus)] >= want {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
