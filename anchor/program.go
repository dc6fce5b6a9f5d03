package anchor

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gif-portal-tui/rpc"

	"github.com/gagliardetto/solana-go"
	"github.com/klauspost/compress/zlib"
)

// IDLSeed is the seed Anchor uses to derive a program's IDL account
const IDLSeed = "anchor:idl"

// ErrNoIDL means the program has not published an IDL account
var ErrNoIDL = errors.New("program has no published idl")

// AccountFetcher reads raw account data
type AccountFetcher interface {
	GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
}

// Backend is what a Program needs from the network: reads plus signed sends.
// *rpc.Provider satisfies it.
type Backend interface {
	AccountFetcher
	SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error)
}

// IDLAddress derives the account holding programID's IDL
func IDLAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	base, _, err := solana.FindProgramAddress([][]byte{}, programID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.CreateWithSeed(base, IDLSeed, programID)
}

// IDL account layout: discriminator, authority, u32 length, zlib payload
const idlHeaderLen = DiscriminatorLen + solana.PublicKeyLength + 4

// FetchIDL reads and inflates the IDL published for programID.
// It returns ErrNoIDL when the IDL account does not exist.
func FetchIDL(ctx context.Context, fetcher AccountFetcher, programID solana.PublicKey) (*IDL, error) {
	addr, err := IDLAddress(programID)
	if err != nil {
		return nil, fmt.Errorf("idl address: %w", err)
	}
	data, err := fetcher.GetAccountData(ctx, addr)
	if errors.Is(err, rpc.ErrAccountNotFound) {
		return nil, ErrNoIDL
	}
	if err != nil {
		return nil, fmt.Errorf("fetch idl account: %w", err)
	}
	return DecodeIDLAccount(data)
}

// DecodeIDLAccount parses the raw contents of an IDL account
func DecodeIDLAccount(data []byte) (*IDL, error) {
	if len(data) < idlHeaderLen {
		return nil, fmt.Errorf("idl account too short: %d bytes", len(data))
	}
	n := binary.LittleEndian.Uint32(data[idlHeaderLen-4 : idlHeaderLen])
	if int(n) > len(data)-idlHeaderLen {
		return nil, fmt.Errorf("idl payload length %d exceeds account size", n)
	}

	zr, err := zlib.NewReader(bytes.NewReader(data[idlHeaderLen : idlHeaderLen+int(n)]))
	if err != nil {
		return nil, fmt.Errorf("inflate idl: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate idl: %w", err)
	}
	return ParseIDL(raw)
}

// EncodeIDLAccount builds IDL account contents; the inverse of DecodeIDLAccount
func EncodeIDLAccount(authority solana.PublicKey, idl *IDL) ([]byte, error) {
	raw, err := json.Marshal(idl)
	if err != nil {
		return nil, err
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, idlHeaderLen, idlHeaderLen+z.Len())
	disc := AccountDiscriminator("IdlAccount")
	copy(out, disc[:])
	copy(out[DiscriminatorLen:], authority[:])
	binary.LittleEndian.PutUint32(out[idlHeaderLen-4:], uint32(z.Len()))
	return append(out, z.Bytes()...), nil
}

// Accounts maps instruction account names to addresses
type Accounts map[string]solana.PublicKey

// Program is a client for one deployed program built from its IDL
type Program struct {
	IDL     *IDL
	ID      solana.PublicKey
	Coder   *Coder
	backend Backend
}

// NewProgram binds idl to programID and a network backend
func NewProgram(idl *IDL, programID solana.PublicKey, backend Backend) *Program {
	return &Program{
		IDL:     idl,
		ID:      programID,
		Coder:   NewCoder(idl),
		backend: backend,
	}
}

// Fetch reads and decodes the account named accountName at addr
func (p *Program) Fetch(ctx context.Context, accountName string, addr solana.PublicKey) (map[string]any, error) {
	data, err := p.backend.GetAccountData(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", accountName, addr, err)
	}
	return p.Coder.DecodeAccount(accountName, data)
}

// Instruction builds the instruction name with positional args. Account metas
// follow the IDL's declared order and flags.
func (p *Program) Instruction(name string, args []any, accounts Accounts) (solana.Instruction, error) {
	ix, ok := p.IDL.Instruction(name)
	if !ok {
		return nil, fmt.Errorf("instruction %q not in idl", name)
	}
	data, err := p.Coder.EncodeInstruction(name, args)
	if err != nil {
		return nil, err
	}

	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		key, ok := accounts[acc.Name]
		if !ok {
			return nil, fmt.Errorf("instruction %s: missing account %s", name, acc.Name)
		}
		metas = append(metas, solana.NewAccountMeta(key, acc.IsMut, acc.IsSigner))
	}
	return solana.NewInstruction(p.ID, metas, data), nil
}

// RPC builds, signs, sends and confirms a single-instruction transaction
func (p *Program) RPC(ctx context.Context, name string, args []any, accounts Accounts, signers ...solana.PrivateKey) (solana.Signature, error) {
	ix, err := p.Instruction(name, args, accounts)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := p.backend.SendAndConfirm(ctx, []solana.Instruction{ix}, signers...)
	if err != nil {
		return sig, fmt.Errorf("%s: %w", name, err)
	}
	return sig, nil
}
