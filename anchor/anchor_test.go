package anchor

import (
	"context"
	"crypto/sha256"
	"math/big"
	"os"
	"testing"

	"gif-portal-tui/rpc"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestIDL(t *testing.T) *IDL {
	t.Helper()
	data, err := os.ReadFile("testdata/gif_portal.json")
	require.NoError(t, err)
	idl, err := ParseIDL(data)
	require.NoError(t, err)
	return idl
}

type fakeBackend struct {
	accounts map[solana.PublicKey][]byte
	sent     [][]solana.Instruction
	signers  [][]solana.PrivateKey
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{accounts: map[solana.PublicKey][]byte{}}
}

func (f *fakeBackend) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	data, ok := f.accounts[addr]
	if !ok {
		return nil, rpc.ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeBackend) SendAndConfirm(ctx context.Context, ixs []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	f.sent = append(f.sent, ixs)
	f.signers = append(f.signers, signers)
	return solana.Signature{1}, nil
}

func TestParseIDL(t *testing.T) {
	idl := loadTestIDL(t)

	assert.Equal(t, "myepicproject", idl.Name)
	require.Len(t, idl.Instructions, 3)

	ix, ok := idl.Instruction("upvote_gif")
	require.True(t, ok, "snake_case lookup")
	assert.Equal(t, "upvoteGif", ix.Name)
	assert.Equal(t, "ItemStruct", ix.Args[0].Type.Defined)

	acc, ok := idl.Account("baseAccount")
	require.True(t, ok, "account lookup ignores the first letter's case")
	assert.Equal(t, "vec<ItemStruct>", acc.Type.Fields[1].Type.String())

	rating, ok := idl.TypeDef("Rating")
	require.True(t, ok)
	assert.Empty(t, rating.Type.Variants[1].Fields[0].Name, "tuple variant")
	assert.Equal(t, "score", rating.Type.Variants[2].Fields[0].Name)
	assert.Equal(t, "option<string>", rating.Type.Variants[2].Fields[1].Type.String())
}

func TestParseIDLRejectsUnknownPrimitive(t *testing.T) {
	_, err := ParseIDL([]byte(`{"instructions":[{"name":"x","accounts":[],"args":[{"name":"a","type":"f64"}]}]}`))
	assert.Error(t, err)
}

func TestDiscriminators(t *testing.T) {
	// well-known tag of every Anchor `initialize` instruction
	assert.Equal(t, [8]byte{175, 175, 109, 31, 13, 152, 155, 237}, InstructionDiscriminator("initialize"))

	sum := sha256.Sum256([]byte("global:add_gif"))
	got := InstructionDiscriminator("addGif")
	assert.Equal(t, sum[:8], got[:])

	sum = sha256.Sum256([]byte("account:BaseAccount"))
	acc := AccountDiscriminator("BaseAccount")
	assert.Equal(t, sum[:8], acc[:])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "add_gif", snakeCase("addGif"))
	assert.Equal(t, "upvote_gif", snakeCase("upvoteGif"))
	assert.Equal(t, "initialize", snakeCase("initialize"))
	assert.Equal(t, "already_snake", snakeCase("already_snake"))
}

func TestAccountRoundTrip(t *testing.T) {
	coder := NewCoder(loadTestIDL(t))
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	data, err := coder.EncodeAccount("BaseAccount", map[string]any{
		"totalGifs": 2,
		"gifList": []any{
			map[string]any{"gifLink": "https://example.com/a.gif", "userAddress": alice, "upVotes": uint64(3)},
			map[string]any{"gifLink": "not a url", "userAddress": bob.String(), "upVotes": 0},
		},
	})
	require.NoError(t, err)

	acc, err := coder.DecodeAccount("BaseAccount", data)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), acc["totalGifs"])

	list, ok := acc["gifList"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	first := list[0].(map[string]any)
	assert.Equal(t, "https://example.com/a.gif", first["gifLink"])
	assert.Equal(t, alice, first["userAddress"])
	assert.Equal(t, uint64(3), first["upVotes"])

	second := list[1].(map[string]any)
	assert.Equal(t, bob, second["userAddress"])
}

func TestDecodeAccountRejectsForeignDiscriminator(t *testing.T) {
	coder := NewCoder(loadTestIDL(t))
	_, err := coder.DecodeAccount("BaseAccount", make([]byte, 32))
	assert.ErrorIs(t, err, ErrDiscriminator)

	_, err = coder.DecodeAccount("Missing", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeAccountTruncated(t *testing.T) {
	coder := NewCoder(loadTestIDL(t))
	disc := AccountDiscriminator("BaseAccount")
	data := append(disc[:], 1, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0x00)
	_, err := coder.DecodeAccount("BaseAccount", data)
	assert.Error(t, err)
}

func TestEncodeInstruction(t *testing.T) {
	coder := NewCoder(loadTestIDL(t))

	data, err := coder.EncodeInstruction("addGif", []any{"https://example.com/a.gif"})
	require.NoError(t, err)

	disc := InstructionDiscriminator("addGif")
	assert.Equal(t, disc[:], data[:8])

	dec := bin.NewBorshDecoder(data[8:])
	n, err := dec.ReadUint32(bin.LE)
	require.NoError(t, err)
	raw, err := dec.ReadNBytes(int(n))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.gif", string(raw))

	_, err = coder.EncodeInstruction("addGif", nil)
	assert.Error(t, err, "arg count is checked")

	_, err = coder.EncodeInstruction("addGif", []any{42})
	assert.Error(t, err, "arg type is checked")
}

func TestEnumAndWideIntegers(t *testing.T) {
	idl := loadTestIDL(t)
	idl.Types = append(idl.Types, TypeDef{
		Name: "Holder",
		Type: TypeBody{Kind: "struct", Fields: []Field{
			{Name: "a", Type: Type{Defined: "Rating"}},
			{Name: "b", Type: Type{Defined: "Rating"}},
			{Name: "c", Type: Type{Defined: "Rating"}},
			{Name: "big", Type: Type{Primitive: "i128"}},
			{Name: "fixed", Type: Type{Array: &Type{Primitive: "u16"}, ArrayLen: 2}},
		}},
	})
	idl.Accounts = append(idl.Accounts, TypeDef{Name: "HolderAccount", Type: TypeBody{Kind: "struct", Fields: []Field{
		{Name: "h", Type: Type{Defined: "Holder"}},
	}}})
	coder := NewCoder(idl)

	neg := big.NewInt(-5)
	data, err := coder.EncodeAccount("HolderAccount", map[string]any{"h": map[string]any{
		"a":     "Unrated",
		"b":     map[string]any{"Stars": []any{uint8(4)}},
		"c":     map[string]any{"Review": map[string]any{"score": -2, "note": nil}},
		"big":   neg,
		"fixed": []uint16{7, 8},
	}})
	require.NoError(t, err)

	acc, err := coder.DecodeAccount("HolderAccount", data)
	require.NoError(t, err)
	h := acc["h"].(map[string]any)

	assert.Equal(t, map[string]any{"Unrated": nil}, h["a"])
	assert.Equal(t, map[string]any{"Stars": []any{uint8(4)}}, h["b"])
	assert.Equal(t, map[string]any{"Review": map[string]any{"score": int16(-2), "note": nil}}, h["c"])
	assert.Equal(t, 0, neg.Cmp(h["big"].(*big.Int)))
	assert.Equal(t, []any{uint16(7), uint16(8)}, h["fixed"])
}

func TestFetchIDL(t *testing.T) {
	idl := loadTestIDL(t)
	programID := solana.MustPublicKeyFromBase58("CLU6eaCQoupE3mXVGt9ZC5FzS5S472zSh14Yrku4kVve")
	backend := newFakeBackend()

	_, err := FetchIDL(context.Background(), backend, programID)
	assert.ErrorIs(t, err, ErrNoIDL)

	addr, err := IDLAddress(programID)
	require.NoError(t, err)
	data, err := EncodeIDLAccount(solana.NewWallet().PublicKey(), idl)
	require.NoError(t, err)
	backend.accounts[addr] = data

	got, err := FetchIDL(context.Background(), backend, programID)
	require.NoError(t, err)
	assert.Equal(t, idl.Name, got.Name)
	assert.Len(t, got.Instructions, 3)
	assert.Len(t, got.Types, 2)
}

func TestDecodeIDLAccountCorrupt(t *testing.T) {
	_, err := DecodeIDLAccount([]byte{1, 2, 3})
	assert.Error(t, err)

	data := make([]byte, idlHeaderLen+4)
	data[idlHeaderLen-4] = 200
	_, err = DecodeIDLAccount(data)
	assert.Error(t, err, "length beyond account size")
}

func TestProgramRPC(t *testing.T) {
	idl := loadTestIDL(t)
	programID := solana.NewWallet().PublicKey()
	backend := newFakeBackend()
	program := NewProgram(idl, programID, backend)

	baseAccount := solana.NewWallet()
	user := solana.NewWallet().PublicKey()

	_, err := program.RPC(context.Background(), "initialize", nil, Accounts{
		"baseAccount":   baseAccount.PublicKey(),
		"user":          user,
		"systemProgram": solana.SystemProgramID,
	}, baseAccount.PrivateKey)
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	ix := backend.sent[0][0]
	assert.Equal(t, programID, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 3)
	assert.Equal(t, baseAccount.PublicKey(), metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, solana.SystemProgramID, metas[2].PublicKey)
	assert.False(t, metas[2].IsWritable)
	assert.Equal(t, []solana.PrivateKey{baseAccount.PrivateKey}, backend.signers[0])

	_, err = program.RPC(context.Background(), "addGif", []any{"x"}, Accounts{"user": user})
	assert.ErrorContains(t, err, "missing account baseAccount")

	_, err = program.RPC(context.Background(), "deleteGif", nil, nil)
	assert.Error(t, err)
}

func TestProgramFetch(t *testing.T) {
	idl := loadTestIDL(t)
	backend := newFakeBackend()
	program := NewProgram(idl, solana.NewWallet().PublicKey(), backend)
	ledger := solana.NewWallet().PublicKey()

	_, err := program.Fetch(context.Background(), "baseAccount", ledger)
	assert.ErrorIs(t, err, rpc.ErrAccountNotFound)

	data, err := program.Coder.EncodeAccount("BaseAccount", map[string]any{"totalGifs": 0, "gifList": []any{}})
	require.NoError(t, err)
	backend.accounts[ledger] = data

	acc, err := program.Fetch(context.Background(), "baseAccount", ledger)
	require.NoError(t, err)
	assert.Equal(t, []any{}, acc["gifList"])
}
