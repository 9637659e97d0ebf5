package kvaggregate

import (
	"errors"
	"fmt"

	"github.com/dogmatiq/psikit/aggregate"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the record encoding.
const (
	contributionsField protowire.Number = 1
	lockedField        protowire.Number = 2
	elementField       protowire.Number = 3
)

// marshalRecord returns the binary representation of r.
//
// Elements are written in lexical order so that equal records have equal
// encodings.
func marshalRecord(r aggregate.Record) []byte {
	var data []byte

	data = protowire.AppendTag(data, contributionsField, protowire.VarintType)
	data = protowire.AppendVarint(data, uint64(r.Contributions))

	if r.Locked {
		data = protowire.AppendTag(data, lockedField, protowire.VarintType)
		data = protowire.AppendVarint(data, protowire.EncodeBool(true))
	}

	for _, v := range r.Intersection.Sorted() {
		data = protowire.AppendTag(data, elementField, protowire.BytesType)
		data = protowire.AppendString(data, v)
	}

	return data
}

// unmarshalRecord parses the binary representation of a record.
//
// Unknown fields are skipped.
func unmarshalRecord(data []byte) (aggregate.Record, error) {
	r := aggregate.Record{
		Intersection: aggregate.Elements{},
	}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return aggregate.Record{}, protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == contributionsField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return aggregate.Record{}, protowire.ParseError(n)
			}
			r.Contributions = uint(v)
			data = data[n:]

		case num == lockedField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return aggregate.Record{}, protowire.ParseError(n)
			}
			r.Locked = protowire.DecodeBool(v)
			data = data[n:]

		case num == elementField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return aggregate.Record{}, protowire.ParseError(n)
			}
			r.Intersection[v] = struct{}{}
			data = data[n:]

		case num == contributionsField, num == lockedField, num == elementField:
			return aggregate.Record{}, fmt.Errorf("field %d has unexpected wire type %d", num, typ)

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return aggregate.Record{}, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}

	if r.Contributions == 0 {
		return aggregate.Record{}, errors.New("record has no contributions")
	}

	return r, nil
}
