package cyvalue

import (
	"hash/fnv"
	"math"
	"strconv"
)

// Hash produces a stable group-key hash for a Value, used by the runtime's
// aggregation contexts (SPEC_FULL §4.5, §9 "Open question: float hashing").
//
// A Float whose fractional part is exactly zero hashes as its truncated
// int64 so that RETURN 2.0, count(*) and RETURN 2, count(*) land in the same
// bucket; every other float hashes via its raw IEEE-754 bit pattern.
func Hash(v Value) uint64 {
	h := fnv.New64a()
	writeHash(h, v)
	return h.Sum64()
}

func writeHash(h interface{ Write([]byte) (int, error) }, v Value) {
	switch v.Kind {
	case KindNull:
		h.Write([]byte{0})
	case KindBool:
		if v.Bool {
			h.Write([]byte{1, 1})
		} else {
			h.Write([]byte{1, 0})
		}
	case KindInt:
		h.Write([]byte{2})
		h.Write([]byte(strconv.FormatInt(v.Int, 10)))
	case KindFloat:
		h.Write([]byte{2})
		if v.Float == math.Trunc(v.Float) {
			h.Write([]byte(strconv.FormatInt(int64(v.Float), 10)))
		} else {
			bits := math.Float64bits(v.Float)
			h.Write([]byte{
				byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24),
				byte(bits >> 32), byte(bits >> 40), byte(bits >> 48), byte(bits >> 56),
			})
		}
	case KindString:
		h.Write([]byte{3})
		h.Write([]byte(v.String))
	case KindList:
		h.Write([]byte{4})
		for _, e := range v.List {
			writeHash(h, e)
		}
	case KindMap:
		h.Write([]byte{5})
		for _, k := range sortedKeys(v.Map) {
			h.Write([]byte(k))
			writeHash(h, v.Map[k])
		}
	case KindNode:
		h.Write([]byte{6})
		h.Write([]byte(strconv.FormatUint(v.Node, 10)))
	case KindRelationship:
		h.Write([]byte{7})
		h.Write([]byte(strconv.FormatUint(v.RelID, 10)))
	default:
		h.Write([]byte{8})
	}
}
