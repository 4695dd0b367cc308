// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: keycodec.go — aggregation key encoder/decoder
//
// Purpose:
//   - Encodes a snapshot's effective node-id list plus any key-attribute
//     immediates into the byte string the trie is indexed by, and
//     decodes that byte string back into the pieces flush needs to
//     re-emit an aggregated snapshot.
//   - Layout: varint(toc) varint(node)... [varint(bitfield)
//     varint(value)...], where toc = 2*numNodes + (1 if any immediate
//     present else 0).
//
// Notes:
//   - Truncation on overflow is intentional, not an error: if a
//     candidate immediate would push the encoding past MaxKeyLen, it is
//     dropped from the key (and the bitfield) and the remaining
//     immediates are still tried; if node ids alone overflow, only the
//     first fitting prefix survives. The caller never sees a failure —
//     it sees a shorter key, which still groups correctly, just more
//     coarsely.
// ─────────────────────────────────────────────────────────────────────────────

package keycodec

import "aggregate/varint"

// MaxKeyLen bounds every encoded key.
const MaxKeyLen = 128

// Immediate is one key-attribute immediate entry selected for encoding,
// identified by its position in the configured key-attribute list
// (not by a raw attribute id — that indirection lives in the caller).
type Immediate struct {
	KeyIndex int    // index into the configured key-attribute list
	Value    uint64 // the value's bit pattern, reinterpreted as u64
}

// Encode builds the key bytes for nodeIDs (already in the order the
// caller wants preserved — see aggregatedb for when that's ascending
// vs. walk order) plus the given key immediates (must already be
// sorted ascending by KeyIndex; Encode does not sort them).
//
// The result never exceeds MaxKeyLen; inputs that would overflow it are
// truncated per the rules above.
func Encode(nodeIDs []uint64, immediates []Immediate) []byte {
	// Encode the node-id prefix first, keeping only as many ids as fit
	// (leaving room for the toc varint itself, which is emitted last
	// once we know how many nodes actually fit).
	nodeBuf := make([]byte, 0, MaxKeyLen)
	kept := 0
	for _, id := range nodeIDs {
		need := varint.AppendedLen(id)
		// Count the toc varint this many nodes would need (without
		// immediates), so a nodes-only key can fill MaxKeyLen exactly.
		tocNeed := varint.AppendedLen(uint64(kept+1) * 2)
		if tocNeed+len(nodeBuf)+need > MaxKeyLen {
			break
		}
		nodeBuf = varint.Encode(nodeBuf, id)
		kept++
	}

	// Encode immediates, dropping any (and its bitfield bit) that would
	// overflow, while still trying the rest.
	immBuf := make([]byte, 0, MaxKeyLen)
	var bitfield uint64
	tocLen := varint.AppendedLen(uint64(kept)*2 + 1) // worst case: with immediates
	for _, im := range immediates {
		valBuf := varint.Encode(nil, im.Value)
		candidateBitfield := bitfield | (uint64(1) << uint(im.KeyIndex))
		bfLen := varint.AppendedLen(candidateBitfield)

		total := tocLen + len(nodeBuf) + bfLen + len(immBuf) + len(valBuf)
		if total > MaxKeyLen {
			continue
		}
		bitfield = candidateBitfield
		immBuf = append(immBuf, valBuf...)
	}

	hasImmediates := bitfield != 0
	toc := uint64(kept)*2
	if hasImmediates {
		toc++
	}

	out := varint.Encode(make([]byte, 0, MaxKeyLen), toc)
	out = append(out, nodeBuf...)
	if hasImmediates {
		out = varint.Encode(out, bitfield)
		out = append(out, immBuf...)
	}
	return out
}

// Decoded is the structured form of a decoded key, ready for re-emit.
type Decoded struct {
	NodeIDs    []uint64
	Immediates []Immediate
}

// Decode parses key produced by Encode. maxNodes bounds how many node
// ids are returned (a cap on re-emitted snapshot size); extra node ids
// in the toc beyond maxNodes are skipped over (their varints are still
// consumed) rather than causing a decoding error.
func Decode(key []byte, maxNodes int) (Decoded, bool) {
	pos := 0
	toc, ok := varint.Decode(key, &pos)
	if !ok {
		return Decoded{}, false
	}

	numNodes := int(toc / 2)
	hasImmediates := toc%2 == 1

	var d Decoded
	for i := 0; i < numNodes; i++ {
		v, ok := varint.Decode(key, &pos)
		if !ok {
			return Decoded{}, false
		}
		if i < maxNodes {
			d.NodeIDs = append(d.NodeIDs, v)
		}
	}

	if hasImmediates {
		bitfield, ok := varint.Decode(key, &pos)
		if !ok {
			return Decoded{}, false
		}
		for k := 0; k < 64; k++ {
			if bitfield&(uint64(1)<<uint(k)) == 0 {
				continue
			}
			v, ok := varint.Decode(key, &pos)
			if !ok {
				return Decoded{}, false
			}
			d.Immediates = append(d.Immediates, Immediate{KeyIndex: k, Value: v})
		}
	}

	return d, true
}
