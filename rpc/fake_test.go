package rpc

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// fakeRPC is an in-memory RPCClient for unit tests
type fakeRPC struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	balance  uint64
	status   string
	txErr    interface{}
	sent     []*solana.Transaction
	polls    int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{accounts: map[solana.PublicKey][]byte{}, status: "confirmed"}
}

func (f *fakeRPC) GetHealth(ctx context.Context) (string, error) { return "ok", nil }

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{Blockhash: solana.Hash{1, 2, 3}},
	}, nil
}

func (f *fakeRPC) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.accounts[account]
	if !ok {
		return nil, solanarpc.ErrNotFound
	}
	return &solanarpc.GetAccountInfoResult{
		Value: &solanarpc.Account{Data: solanarpc.DataBytesOrJSONFromBytes(data)},
	}, nil
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, search bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return &solanarpc.GetSignatureStatusesResult{
		Value: []*solanarpc.SignatureStatusesResult{{
			ConfirmationStatus: solanarpc.ConfirmationStatusType(f.status),
			Err:                f.txErr,
		}},
	}, nil
}

func (f *fakeRPC) GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error) {
	return &solanarpc.GetBalanceResult{Value: f.balance}, nil
}

// keySigner signs with an in-memory private key
type keySigner struct {
	key       solana.PrivateKey
	connected bool
}

func (k *keySigner) PublicKey() (solana.PublicKey, bool) {
	if !k.connected {
		return solana.PublicKey{}, false
	}
	return k.key.PublicKey(), true
}

func (k *keySigner) SignMessage(msg []byte) (solana.Signature, error) {
	return k.key.Sign(msg)
}
