package anchor

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DiscriminatorLen is the size of the Anchor account/instruction tag
const DiscriminatorLen = 8

var (
	// ErrDiscriminator is returned when account data carries another type's tag
	ErrDiscriminator = errors.New("account discriminator mismatch")
	// ErrUnknownType is returned for references the IDL does not define
	ErrUnknownType = errors.New("unknown type")
)

// InstructionDiscriminator is sha256("global:<snake_name>")[:8]
func InstructionDiscriminator(name string) [DiscriminatorLen]byte {
	return discriminator("global:" + snakeCase(name))
}

// AccountDiscriminator is sha256("account:<Name>")[:8]
func AccountDiscriminator(name string) [DiscriminatorLen]byte {
	return discriminator("account:" + name)
}

func discriminator(preimage string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [DiscriminatorLen]byte
	copy(out[:], sum[:DiscriminatorLen])
	return out
}

// Coder translates between Go values and Borsh bytes using an IDL's layouts.
//
// Decoded values use these Go types: bool, uint8…uint64, int8…int64,
// *big.Int (128-bit), string, []byte, solana.PublicKey, []any (vec, array),
// nil or the inner value (option), map[string]any (struct) and
// map[string]any{variant: fields} (enum).
type Coder struct {
	idl *IDL
}

// NewCoder returns a coder for idl
func NewCoder(idl *IDL) *Coder {
	return &Coder{idl: idl}
}

// EncodeInstruction serializes the discriminator and positional args of name
func (c *Coder) EncodeInstruction(name string, args []any) ([]byte, error) {
	ix, ok := c.idl.Instruction(name)
	if !ok {
		return nil, fmt.Errorf("instruction %q not in idl", name)
	}
	if len(args) != len(ix.Args) {
		return nil, fmt.Errorf("instruction %q takes %d args, got %d", name, len(ix.Args), len(args))
	}

	buf := new(bytes.Buffer)
	disc := InstructionDiscriminator(ix.Name)
	buf.Write(disc[:])
	enc := bin.NewBorshEncoder(buf)
	for i, f := range ix.Args {
		if err := c.encode(enc, f.Type, args[i]); err != nil {
			return nil, fmt.Errorf("arg %s: %w", f.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// EncodeAccount serializes an account struct including its discriminator
func (c *Coder) EncodeAccount(name string, value map[string]any) ([]byte, error) {
	def, ok := c.idl.Account(name)
	if !ok {
		return nil, fmt.Errorf("%w: account %q", ErrUnknownType, name)
	}
	buf := new(bytes.Buffer)
	disc := AccountDiscriminator(def.Name)
	buf.Write(disc[:])
	if err := c.encodeDef(bin.NewBorshEncoder(buf), def, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeAccount checks the discriminator of data and decodes the account struct
func (c *Coder) DecodeAccount(name string, data []byte) (map[string]any, error) {
	def, ok := c.idl.Account(name)
	if !ok {
		return nil, fmt.Errorf("%w: account %q", ErrUnknownType, name)
	}
	want := AccountDiscriminator(def.Name)
	if len(data) < DiscriminatorLen || !bytes.Equal(data[:DiscriminatorLen], want[:]) {
		return nil, fmt.Errorf("%w: want %s", ErrDiscriminator, def.Name)
	}

	v, err := c.decodeDef(bin.NewBorshDecoder(data[DiscriminatorLen:]), def)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", def.Name, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode %s: account is not a struct", def.Name)
	}
	return m, nil
}

func (c *Coder) encode(enc *bin.Encoder, t Type, v any) error {
	switch {
	case t.Primitive != "":
		return encodePrimitive(enc, t.Primitive, v)

	case t.Option != nil:
		if isNil(v) {
			return enc.WriteBool(false)
		}
		if err := enc.WriteBool(true); err != nil {
			return err
		}
		return c.encode(enc, *t.Option, v)

	case t.Vec != nil:
		items, err := asSlice(v)
		if err != nil {
			return err
		}
		if err := enc.WriteUint32(uint32(len(items)), bin.LE); err != nil {
			return err
		}
		for _, item := range items {
			if err := c.encode(enc, *t.Vec, item); err != nil {
				return err
			}
		}
		return nil

	case t.Array != nil:
		items, err := asSlice(v)
		if err != nil {
			return err
		}
		if len(items) != t.ArrayLen {
			return fmt.Errorf("array wants %d items, got %d", t.ArrayLen, len(items))
		}
		for _, item := range items {
			if err := c.encode(enc, *t.Array, item); err != nil {
				return err
			}
		}
		return nil

	case t.Defined != "":
		def, ok := c.idl.TypeDef(t.Defined)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownType, t.Defined)
		}
		return c.encodeDef(enc, def, v)
	}
	return fmt.Errorf("empty type")
}

func (c *Coder) encodeDef(enc *bin.Encoder, def TypeDef, v any) error {
	switch def.Type.Kind {
	case "struct":
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s wants map[string]any, got %T", def.Name, v)
		}
		for _, f := range def.Type.Fields {
			fv, ok := m[f.Name]
			if !ok {
				return fmt.Errorf("%s: missing field %s", def.Name, f.Name)
			}
			if err := c.encode(enc, f.Type, fv); err != nil {
				return fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
			}
		}
		return nil

	case "enum":
		var variant string
		var fields any
		switch ev := v.(type) {
		case string:
			variant = ev
		case map[string]any:
			if len(ev) != 1 {
				return fmt.Errorf("%s: enum value needs exactly one variant", def.Name)
			}
			for k, fv := range ev {
				variant, fields = k, fv
			}
		default:
			return fmt.Errorf("%s: unsupported enum value %T", def.Name, v)
		}
		for i, vr := range def.Type.Variants {
			if vr.Name != variant {
				continue
			}
			if err := enc.WriteByte(byte(i)); err != nil {
				return err
			}
			return c.encodeVariantFields(enc, def.Name, vr, fields)
		}
		return fmt.Errorf("%s: unknown variant %q", def.Name, variant)
	}
	return fmt.Errorf("%s: unsupported kind %q", def.Name, def.Type.Kind)
}

func (c *Coder) encodeVariantFields(enc *bin.Encoder, owner string, vr Variant, fields any) error {
	if len(vr.Fields) == 0 {
		return nil
	}
	if vr.Fields[0].Name == "" {
		items, err := asSlice(fields)
		if err != nil {
			return fmt.Errorf("%s::%s: %w", owner, vr.Name, err)
		}
		if len(items) != len(vr.Fields) {
			return fmt.Errorf("%s::%s wants %d values", owner, vr.Name, len(vr.Fields))
		}
		for i, f := range vr.Fields {
			if err := c.encode(enc, f.Type, items[i]); err != nil {
				return err
			}
		}
		return nil
	}
	m, ok := fields.(map[string]any)
	if !ok {
		return fmt.Errorf("%s::%s wants map[string]any fields", owner, vr.Name)
	}
	for _, f := range vr.Fields {
		if err := c.encode(enc, f.Type, m[f.Name]); err != nil {
			return fmt.Errorf("%s::%s.%s: %w", owner, vr.Name, f.Name, err)
		}
	}
	return nil
}

func (c *Coder) decode(dec *bin.Decoder, t Type) (any, error) {
	switch {
	case t.Primitive != "":
		return decodePrimitive(dec, t.Primitive)

	case t.Option != nil:
		present, err := dec.ReadBool()
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, nil
		}
		return c.decode(dec, *t.Option)

	case t.Vec != nil:
		n, err := dec.ReadUint32(bin.LE)
		if err != nil {
			return nil, err
		}
		if int(n) > dec.Remaining() {
			return nil, fmt.Errorf("vec length %d exceeds remaining %d bytes", n, dec.Remaining())
		}
		out := make([]any, 0, n)
		for i := uint32(0); i < n; i++ {
			item, err := c.decode(dec, *t.Vec)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, item)
		}
		return out, nil

	case t.Array != nil:
		out := make([]any, 0, t.ArrayLen)
		for i := 0; i < t.ArrayLen; i++ {
			item, err := c.decode(dec, *t.Array)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil

	case t.Defined != "":
		def, ok := c.idl.TypeDef(t.Defined)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, t.Defined)
		}
		return c.decodeDef(dec, def)
	}
	return nil, fmt.Errorf("empty type")
}

func (c *Coder) decodeDef(dec *bin.Decoder, def TypeDef) (any, error) {
	switch def.Type.Kind {
	case "struct":
		out := make(map[string]any, len(def.Type.Fields))
		for _, f := range def.Type.Fields {
			v, err := c.decode(dec, f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
			}
			out[f.Name] = v
		}
		return out, nil

	case "enum":
		idx, err := dec.ReadByte()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(def.Type.Variants) {
			return nil, fmt.Errorf("%s: variant index %d out of range", def.Name, idx)
		}
		vr := def.Type.Variants[idx]
		if len(vr.Fields) == 0 {
			return map[string]any{vr.Name: nil}, nil
		}
		if vr.Fields[0].Name == "" {
			items := make([]any, 0, len(vr.Fields))
			for _, f := range vr.Fields {
				v, err := c.decode(dec, f.Type)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			return map[string]any{vr.Name: items}, nil
		}
		fields := make(map[string]any, len(vr.Fields))
		for _, f := range vr.Fields {
			v, err := c.decode(dec, f.Type)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = v
		}
		return map[string]any{vr.Name: fields}, nil
	}
	return nil, fmt.Errorf("%s: unsupported kind %q", def.Name, def.Type.Kind)
}

func encodePrimitive(enc *bin.Encoder, p string, v any) error {
	switch p {
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("bool wants bool, got %T", v)
		}
		return enc.WriteBool(b)
	case "u8":
		n, err := asUint(v, 8)
		if err != nil {
			return err
		}
		return enc.WriteByte(byte(n))
	case "u16":
		n, err := asUint(v, 16)
		if err != nil {
			return err
		}
		return enc.WriteUint16(uint16(n), bin.LE)
	case "u32":
		n, err := asUint(v, 32)
		if err != nil {
			return err
		}
		return enc.WriteUint32(uint32(n), bin.LE)
	case "u64":
		n, err := asUint(v, 64)
		if err != nil {
			return err
		}
		return enc.WriteUint64(n, bin.LE)
	case "i8":
		n, err := asInt(v, 8)
		if err != nil {
			return err
		}
		return enc.WriteByte(byte(int8(n)))
	case "i16":
		n, err := asInt(v, 16)
		if err != nil {
			return err
		}
		return enc.WriteInt16(int16(n), bin.LE)
	case "i32":
		n, err := asInt(v, 32)
		if err != nil {
			return err
		}
		return enc.WriteInt32(int32(n), bin.LE)
	case "i64":
		n, err := asInt(v, 64)
		if err != nil {
			return err
		}
		return enc.WriteInt64(n, bin.LE)
	case "u128", "i128":
		return encode128(enc, p == "i128", v)
	case "string":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("string wants string, got %T", v)
		}
		return writeBytesWithLen(enc, []byte(s))
	case "bytes":
		b, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("bytes wants []byte, got %T", v)
		}
		return writeBytesWithLen(enc, b)
	case "publicKey":
		pk, err := asPublicKey(v)
		if err != nil {
			return err
		}
		return enc.WriteBytes(pk[:], false)
	}
	return fmt.Errorf("unsupported primitive %q", p)
}

func writeBytesWithLen(enc *bin.Encoder, b []byte) error {
	if err := enc.WriteUint32(uint32(len(b)), bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}

func decodePrimitive(dec *bin.Decoder, p string) (any, error) {
	switch p {
	case "bool":
		return dec.ReadBool()
	case "u8":
		return dec.ReadByte()
	case "u16":
		return dec.ReadUint16(bin.LE)
	case "u32":
		return dec.ReadUint32(bin.LE)
	case "u64":
		return dec.ReadUint64(bin.LE)
	case "i8":
		b, err := dec.ReadByte()
		return int8(b), err
	case "i16":
		return dec.ReadInt16(bin.LE)
	case "i32":
		return dec.ReadInt32(bin.LE)
	case "i64":
		return dec.ReadInt64(bin.LE)
	case "u128", "i128":
		raw, err := dec.ReadNBytes(16)
		if err != nil {
			return nil, err
		}
		return decode128(raw, p == "i128"), nil
	case "string":
		raw, err := readBytesWithLen(dec)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	case "bytes":
		return readBytesWithLen(dec)
	case "publicKey":
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		return solana.PublicKeyFromBytes(raw), nil
	}
	return nil, fmt.Errorf("unsupported primitive %q", p)
}

func readBytesWithLen(dec *bin.Decoder) ([]byte, error) {
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	if int(n) > dec.Remaining() {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, dec.Remaining())
	}
	return dec.ReadNBytes(int(n))
}

// 128-bit integers are little-endian two's complement on the wire
func decode128(raw []byte, signed bool) *big.Int {
	be := make([]byte, len(raw))
	for i := range raw {
		be[len(raw)-1-i] = raw[i]
	}
	n := new(big.Int).SetBytes(be)
	if signed && be[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return n
}

func encode128(enc *bin.Encoder, signed bool, v any) error {
	var n *big.Int
	switch x := v.(type) {
	case *big.Int:
		n = new(big.Int).Set(x)
	default:
		if signed {
			i, err := asInt(v, 64)
			if err != nil {
				return err
			}
			n = big.NewInt(i)
		} else {
			u, err := asUint(v, 64)
			if err != nil {
				return err
			}
			n = new(big.Int).SetUint64(u)
		}
	}
	if n.Sign() < 0 {
		if !signed {
			return fmt.Errorf("negative value for u128")
		}
		n.Add(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	if n.BitLen() > 128 {
		return fmt.Errorf("value overflows 128 bits")
	}
	be := n.FillBytes(make([]byte, 16))
	le := make([]byte, 16)
	for i := range be {
		le[15-i] = be[i]
	}
	return enc.WriteBytes(le, false)
}

func asUint(v any, bits int) (uint64, error) {
	rv := reflect.ValueOf(v)
	var n uint64
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = rv.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, fmt.Errorf("negative value %d for u%d", rv.Int(), bits)
		}
		n = uint64(rv.Int())
	default:
		return 0, fmt.Errorf("u%d wants an integer, got %T", bits, v)
	}
	if bits < 64 && n >= 1<<bits {
		return 0, fmt.Errorf("value %d overflows u%d", n, bits)
	}
	return n, nil
}

func asInt(v any, bits int) (int64, error) {
	rv := reflect.ValueOf(v)
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > 1<<63-1 {
			return 0, fmt.Errorf("value %d overflows i%d", rv.Uint(), bits)
		}
		n = int64(rv.Uint())
	default:
		return 0, fmt.Errorf("i%d wants an integer, got %T", bits, v)
	}
	if bits < 64 {
		lim := int64(1) << (bits - 1)
		if n < -lim || n >= lim {
			return 0, fmt.Errorf("value %d overflows i%d", n, bits)
		}
	}
	return n, nil
}

func asPublicKey(v any) (solana.PublicKey, error) {
	switch pk := v.(type) {
	case solana.PublicKey:
		return pk, nil
	case *solana.PublicKey:
		if pk == nil {
			return solana.PublicKey{}, fmt.Errorf("nil public key")
		}
		return *pk, nil
	case string:
		return solana.PublicKeyFromBase58(pk)
	}
	return solana.PublicKey{}, fmt.Errorf("publicKey wants solana.PublicKey, got %T", v)
}

func asSlice(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("want a slice, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
