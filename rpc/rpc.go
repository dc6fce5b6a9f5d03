package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound is returned when the requested account does not exist
var ErrAccountNotFound = errors.New("account not found")

// RPCClient is the subset of the Solana JSON-RPC API the portal uses.
// *solanarpc.Client satisfies it.
type RPCClient interface {
	GetHealth(ctx context.Context) (string, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
}

// Client wraps a Solana RPC client
type Client struct {
	RPCClient
	URL string
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to a Solana RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout.
// The endpoint must answer getHealth before the client is handed out.
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := solanarpc.New(url)
	if _, err := client.GetHealth(ctx); err != nil {
		_ = client.Close()
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{
			RPCClient: client,
			URL:       url,
		},
		Error: nil,
	}
}

// NewClient wraps an already constructed RPC client without a health check
func NewClient(url string, c RPCClient) *Client {
	return &Client{RPCClient: c, URL: url}
}

// AccountData returns the raw data of an account
func (c *Client) AccountData(ctx context.Context, addr solana.PublicKey, commitment solanarpc.CommitmentType) ([]byte, error) {
	res, err := c.GetAccountInfoWithOpts(ctx, addr, &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: commitment,
	})
	if errors.Is(err, solanarpc.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}
