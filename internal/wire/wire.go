// Package wire implements a bit-precise codec for type-variable-access
// streams: the on-disk ".bits" sibling of a fixture's points-to table,
// built on github.com/funvibe/funbit's bitstring builder/matcher. Access
// sizes and offsets are whole bytes, as in tvar.TypeVariableAccess.
package wire

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/typesketch/tysketch/internal/tvar"
)

// Access mirrors tvar.TypeVariableAccess in a form independent of the
// variable manager (a raw name rather than a minted TypeVariable), since
// the wire format only ever carries already-resolved variable names.
type Access struct {
	VarName    string
	AccessSize int64
	HasOffset  bool
	Offset     int64
}

// Encode serializes accesses into a single bitstring: a 32-bit count,
// followed by each access as a length-prefixed UTF-8 name, a 64-bit
// unsigned access size, a 1-bit offset-presence flag, and (when present)
// a 32-bit signed offset.
func Encode(accesses []Access) ([]byte, error) {
	b := funbit.NewBuilder()
	funbit.AddInteger(b, len(accesses), funbit.WithSize(32))
	for _, a := range accesses {
		name := []byte(a.VarName)
		funbit.AddInteger(b, len(name), funbit.WithSize(16))
		funbit.AddBinary(b, name, funbit.WithSize(uint(len(name)*8)))
		funbit.AddInteger(b, a.AccessSize, funbit.WithSize(64))
		offsetFlag := 0
		if a.HasOffset {
			offsetFlag = 1
		}
		funbit.AddInteger(b, offsetFlag, funbit.WithSize(1))
		if a.HasOffset {
			funbit.AddInteger(b, a.Offset, funbit.WithSize(32), funbit.WithSigned(true))
		}
	}
	bs, err := funbit.Build(b)
	if err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	return bs.ToBytes(), nil
}

// Decode parses the format Encode produces.
func Decode(data []byte) ([]Access, error) {
	bs := funbit.NewBitStringFromBytes(data)
	m := funbit.NewMatcher()

	var count uint
	funbit.Integer(m, &count, funbit.WithSize(32))
	if _, err := funbit.Match(m, bs); err != nil {
		return nil, fmt.Errorf("wire: decode count: %w", err)
	}

	out := make([]Access, 0, count)
	consumed := uint(32)
	for i := uint(0); i < count; i++ {
		rest, err := funbit.ExtractBits(data, consumed, uint(len(data))*8-consumed)
		if err != nil {
			return nil, fmt.Errorf("wire: decode access %d: %w", i, err)
		}
		restBs := funbit.NewBitStringFromBits(rest, uint(len(rest))*8)

		var nameLen uint
		var name []byte
		var accessSize uint64
		var offsetFlag uint

		fm := funbit.NewMatcher()
		funbit.Integer(fm, &nameLen, funbit.WithSize(16))
		funbit.Binary(fm, &name, funbit.WithSize(nameLen*8))
		funbit.Integer(fm, &accessSize, funbit.WithSize(64))
		funbit.Integer(fm, &offsetFlag, funbit.WithSize(1))
		if _, err := funbit.Match(fm, restBs); err != nil {
			return nil, fmt.Errorf("wire: decode access %d fields: %w", i, err)
		}

		fieldBits := 16 + nameLen*8 + 64 + 1
		a := Access{VarName: string(name), AccessSize: int64(accessSize)}
		if offsetFlag == 1 {
			offRest, err := funbit.ExtractBits(rest, fieldBits, uint(len(rest))*8-fieldBits)
			if err != nil {
				return nil, fmt.Errorf("wire: decode access %d offset: %w", i, err)
			}
			offBs := funbit.NewBitStringFromBits(offRest, uint(len(offRest))*8)
			var offset int64
			om := funbit.NewMatcher()
			funbit.Integer(om, &offset, funbit.WithSize(32), funbit.WithSigned(true))
			if _, err := funbit.Match(om, offBs); err != nil {
				return nil, fmt.Errorf("wire: decode access %d offset value: %w", i, err)
			}
			a.HasOffset = true
			a.Offset = offset
			fieldBits += 32
		}
		out = append(out, a)
		consumed += fieldBits
	}
	return out, nil
}

// ToTypeVariableAccesses resolves each decoded Access into a
// tvar.TypeVariableAccess, minting a fresh tvar.TypeVariable for each
// VarName.
func ToTypeVariableAccesses(accesses []Access) []tvar.TypeVariableAccess {
	out := make([]tvar.TypeVariableAccess, len(accesses))
	for i, a := range accesses {
		out[i] = tvar.TypeVariableAccess{
			Var:        tvar.New(a.VarName),
			AccessSize: a.AccessSize,
			HasOffset:  a.HasOffset,
			Offset:     a.Offset,
		}
	}
	return out
}
