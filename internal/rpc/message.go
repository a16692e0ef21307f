// Package rpc is the gRPC front end for building sketches remotely: one
// fixed service, SketchService.BuildSketches, taking a batch of fixture
// documents and returning their rendered sketches. The schema is fixed
// at compile time, so messages are hand-written structs wired directly
// to google.golang.org/protobuf's low-level wire codec instead of a
// generated descriptor.
package rpc

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// FixtureBatch is the request message: a run id and a set of named
// fixture documents (file name -> raw YAML/JSON bytes).
type FixtureBatch struct {
	RunID    string
	Fixtures map[string][]byte
}

// SketchBatch is the response message: the same run id and a set of
// rendered sketches (fixture-relative Tid string -> Graphviz source).
type SketchBatch struct {
	RunID      string
	Renderings map[string]string
}

const (
	fieldRunID   = protowire.Number(1)
	fieldEntries = protowire.Number(2)
	fieldKey     = protowire.Number(1)
	fieldValue   = protowire.Number(2)
)

func marshalEntry(key string, value []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, key)
	b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
	b = protowire.AppendBytes(b, value)
	return b
}

func consumeEntry(b []byte) (key string, value []byte, n int, err error) {
	off := 0
	for off < len(b) {
		num, typ, tagLen := protowire.ConsumeTag(b[off:])
		if tagLen < 0 {
			return "", nil, 0, fmt.Errorf("rpc: bad entry tag: %w", protowire.ParseError(tagLen))
		}
		off += tagLen
		switch {
		case num == fieldKey && typ == protowire.BytesType:
			s, l := protowire.ConsumeString(b[off:])
			if l < 0 {
				return "", nil, 0, fmt.Errorf("rpc: bad entry key: %w", protowire.ParseError(l))
			}
			key = s
			off += l
		case num == fieldValue && typ == protowire.BytesType:
			v, l := protowire.ConsumeBytes(b[off:])
			if l < 0 {
				return "", nil, 0, fmt.Errorf("rpc: bad entry value: %w", protowire.ParseError(l))
			}
			value = append([]byte(nil), v...)
			off += l
		default:
			l := protowire.ConsumeFieldValue(num, typ, b[off:])
			if l < 0 {
				return "", nil, 0, fmt.Errorf("rpc: bad entry field: %w", protowire.ParseError(l))
			}
			off += l
		}
	}
	return key, value, off, nil
}

// Marshal encodes b as run_id (field 1, string) followed by one
// length-delimited field-2 submessage per fixture entry.
func (b *FixtureBatch) Marshal() ([]byte, error) {
	var out []byte
	out = protowire.AppendTag(out, fieldRunID, protowire.BytesType)
	out = protowire.AppendString(out, b.RunID)

	names := make([]string, 0, len(b.Fixtures))
	for name := range b.Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out = protowire.AppendTag(out, fieldEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, marshalEntry(name, b.Fixtures[name]))
	}
	return out, nil
}

// Unmarshal parses the format Marshal produces.
func (b *FixtureBatch) Unmarshal(data []byte) error {
	b.Fixtures = make(map[string][]byte)
	off := 0
	for off < len(data) {
		num, typ, tagLen := protowire.ConsumeTag(data[off:])
		if tagLen < 0 {
			return fmt.Errorf("rpc: bad fixture batch tag: %w", protowire.ParseError(tagLen))
		}
		off += tagLen
		switch {
		case num == fieldRunID && typ == protowire.BytesType:
			s, l := protowire.ConsumeString(data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad run id: %w", protowire.ParseError(l))
			}
			b.RunID = s
			off += l
		case num == fieldEntries && typ == protowire.BytesType:
			sub, l := protowire.ConsumeBytes(data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad fixture entry: %w", protowire.ParseError(l))
			}
			name, value, _, err := consumeEntry(sub)
			if err != nil {
				return err
			}
			b.Fixtures[name] = value
			off += l
		default:
			l := protowire.ConsumeFieldValue(num, typ, data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad fixture batch field: %w", protowire.ParseError(l))
			}
			off += l
		}
	}
	return nil
}

func marshalStringEntry(key, value string) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, key)
	b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
	b = protowire.AppendString(b, value)
	return b
}

func consumeStringEntry(b []byte) (key, value string, err error) {
	off := 0
	for off < len(b) {
		num, typ, tagLen := protowire.ConsumeTag(b[off:])
		if tagLen < 0 {
			return "", "", fmt.Errorf("rpc: bad entry tag: %w", protowire.ParseError(tagLen))
		}
		off += tagLen
		switch {
		case num == fieldKey && typ == protowire.BytesType:
			s, l := protowire.ConsumeString(b[off:])
			if l < 0 {
				return "", "", fmt.Errorf("rpc: bad entry key: %w", protowire.ParseError(l))
			}
			key = s
			off += l
		case num == fieldValue && typ == protowire.BytesType:
			s, l := protowire.ConsumeString(b[off:])
			if l < 0 {
				return "", "", fmt.Errorf("rpc: bad entry value: %w", protowire.ParseError(l))
			}
			value = s
			off += l
		default:
			l := protowire.ConsumeFieldValue(num, typ, b[off:])
			if l < 0 {
				return "", "", fmt.Errorf("rpc: bad entry field: %w", protowire.ParseError(l))
			}
			off += l
		}
	}
	return key, value, nil
}

// Marshal encodes r the same way FixtureBatch does, with string-valued
// entries rather than byte-valued ones.
func (r *SketchBatch) Marshal() ([]byte, error) {
	var out []byte
	out = protowire.AppendTag(out, fieldRunID, protowire.BytesType)
	out = protowire.AppendString(out, r.RunID)

	tids := make([]string, 0, len(r.Renderings))
	for tid := range r.Renderings {
		tids = append(tids, tid)
	}
	sort.Strings(tids)

	for _, tid := range tids {
		out = protowire.AppendTag(out, fieldEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, marshalStringEntry(tid, r.Renderings[tid]))
	}
	return out, nil
}

// Unmarshal parses the format Marshal produces.
func (r *SketchBatch) Unmarshal(data []byte) error {
	r.Renderings = make(map[string]string)
	off := 0
	for off < len(data) {
		num, typ, tagLen := protowire.ConsumeTag(data[off:])
		if tagLen < 0 {
			return fmt.Errorf("rpc: bad sketch batch tag: %w", protowire.ParseError(tagLen))
		}
		off += tagLen
		switch {
		case num == fieldRunID && typ == protowire.BytesType:
			s, l := protowire.ConsumeString(data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad run id: %w", protowire.ParseError(l))
			}
			r.RunID = s
			off += l
		case num == fieldEntries && typ == protowire.BytesType:
			sub, l := protowire.ConsumeBytes(data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad sketch entry: %w", protowire.ParseError(l))
			}
			tid, value, err := consumeStringEntry(sub)
			if err != nil {
				return err
			}
			r.Renderings[tid] = value
			off += l
		default:
			l := protowire.ConsumeFieldValue(num, typ, data[off:])
			if l < 0 {
				return fmt.Errorf("rpc: bad sketch batch field: %w", protowire.ParseError(l))
			}
			off += l
		}
	}
	return nil
}
