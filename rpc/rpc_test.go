package rpc

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		t.Skip("SOLANA_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)
		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}
		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}
	})

	t.Run("connection with timeout", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 10*time.Second)
		if result.Error != nil {
			t.Fatalf("Failed to connect with custom timeout: %v", result.Error)
		}
	})
}

func TestConnectUnreachable(t *testing.T) {
	result := ConnectWithTimeout("http://127.0.0.1:1", 2*time.Second)
	if result.Error == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
	if result.Client != nil {
		t.Error("expected nil client on failure")
	}
}

func TestAccountData(t *testing.T) {
	f := newFakeRPC()
	addr := solana.NewWallet().PublicKey()
	f.accounts[addr] = []byte{9, 8, 7}
	c := NewClient("fake", f)

	data, err := c.AccountData(context.Background(), addr, "processed")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, data)

	_, err = c.AccountData(context.Background(), solana.NewWallet().PublicKey(), "processed")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func testInstruction(keys ...solana.PublicKey) solana.Instruction {
	var metas solana.AccountMetaSlice
	for _, k := range keys {
		metas = append(metas, solana.NewAccountMeta(k, true, true))
	}
	return solana.NewInstruction(solana.NewWallet().PublicKey(), metas, []byte{1})
}

func TestSendAndConfirm(t *testing.T) {
	wallet := &keySigner{key: solana.NewWallet().PrivateKey, connected: true}
	extra := solana.NewWallet().PrivateKey

	t.Run("signs with wallet and extra signer", func(t *testing.T) {
		f := newFakeRPC()
		p := NewProvider(NewClient("fake", f), wallet, WithPollInterval(time.Millisecond))

		payer, _ := wallet.PublicKey()
		sig, err := p.SendAndConfirm(context.Background(), []solana.Instruction{testInstruction(payer, extra.PublicKey())}, extra)
		require.NoError(t, err)
		require.Len(t, f.sent, 1)

		tx := f.sent[0]
		assert.Equal(t, sig, tx.Signatures[0])
		assert.True(t, tx.Message.AccountKeys[0].Equals(payer), "wallet pays the fee")
		require.Len(t, tx.Signatures, 2)
		assert.NoError(t, tx.VerifySignatures())
	})

	t.Run("missing signer", func(t *testing.T) {
		f := newFakeRPC()
		p := NewProvider(NewClient("fake", f), wallet)

		payer, _ := wallet.PublicKey()
		_, err := p.SendAndConfirm(context.Background(), []solana.Instruction{testInstruction(payer, extra.PublicKey())})
		assert.ErrorIs(t, err, ErrMissingSigner)
		assert.Empty(t, f.sent)
	})

	t.Run("wallet not connected", func(t *testing.T) {
		f := newFakeRPC()
		p := NewProvider(NewClient("fake", f), &keySigner{key: wallet.key})

		_, err := p.SendAndConfirm(context.Background(), []solana.Instruction{testInstruction()})
		assert.ErrorIs(t, err, ErrWalletNotConnected)
	})

	t.Run("transaction error reported by cluster", func(t *testing.T) {
		f := newFakeRPC()
		f.txErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
		p := NewProvider(NewClient("fake", f), wallet, WithPollInterval(time.Millisecond))

		payer, _ := wallet.PublicKey()
		_, err := p.SendAndConfirm(context.Background(), []solana.Instruction{testInstruction(payer)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed")
	})

	t.Run("confirm timeout", func(t *testing.T) {
		f := newFakeRPC()
		f.status = "processed"
		p := NewProvider(NewClient("fake", f), wallet,
			WithCommitment("finalized"),
			WithConfirmTimeout(20*time.Millisecond),
			WithPollInterval(2*time.Millisecond),
		)

		payer, _ := wallet.PublicKey()
		_, err := p.SendAndConfirm(context.Background(), []solana.Instruction{testInstruction(payer)})
		assert.True(t, errors.Is(err, ErrConfirmTimeout), "got %v", err)
		assert.Greater(t, f.polls, 1)
	})
}

func TestBalance(t *testing.T) {
	f := newFakeRPC()
	f.balance = 1_500_000_000
	wallet := &keySigner{key: solana.NewWallet().PrivateKey, connected: true}
	p := NewProvider(NewClient("fake", f), wallet)

	bal, err := p.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), bal)
}
