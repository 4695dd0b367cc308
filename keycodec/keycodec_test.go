package keycodec

import (
	"reflect"
	"testing"
)

func TestRoundTripNodesOnly(t *testing.T) {
	nodes := []uint64{1, 2, 300, 70000}
	key := Encode(nodes, nil)
	if len(key) > MaxKeyLen {
		t.Fatalf("encoded key exceeds MaxKeyLen: %d", len(key))
	}
	d, ok := Decode(key, 80)
	if !ok {
		t.Fatal("decode failed")
	}
	if !reflect.DeepEqual(d.NodeIDs, nodes) {
		t.Fatalf("got %v, want %v", d.NodeIDs, nodes)
	}
	if len(d.Immediates) != 0 {
		t.Fatalf("expected no immediates, got %v", d.Immediates)
	}
}

func TestRoundTripWithImmediates(t *testing.T) {
	nodes := []uint64{10, 20}
	imms := []Immediate{{KeyIndex: 0, Value: 111}, {KeyIndex: 3, Value: 222}}
	key := Encode(nodes, imms)
	d, ok := Decode(key, 80)
	if !ok {
		t.Fatal("decode failed")
	}
	if !reflect.DeepEqual(d.NodeIDs, nodes) {
		t.Fatalf("nodes: got %v, want %v", d.NodeIDs, nodes)
	}
	if !reflect.DeepEqual(d.Immediates, imms) {
		t.Fatalf("immediates: got %v, want %v", d.Immediates, imms)
	}
}

func TestEmptyKey(t *testing.T) {
	key := Encode(nil, nil)
	d, ok := Decode(key, 80)
	if !ok {
		t.Fatal("decode failed")
	}
	if len(d.NodeIDs) != 0 || len(d.Immediates) != 0 {
		t.Fatalf("expected empty decode, got %+v", d)
	}
}

func TestMaxKeyLenBoundary(t *testing.T) {
	// 12 node ids each requiring up to 5 bytes comfortably fits; push
	// enough big ids to approach MaxKeyLen and confirm no overflow.
	nodes := make([]uint64, 20)
	for i := range nodes {
		nodes[i] = uint64(1) << 40 // 6-byte varints
	}
	key := Encode(nodes, nil)
	if len(key) > MaxKeyLen {
		t.Fatalf("key length %d exceeds MaxKeyLen %d", len(key), MaxKeyLen)
	}
}

func TestOversizedNodeListTruncates(t *testing.T) {
	nodes := make([]uint64, 200)
	for i := range nodes {
		nodes[i] = uint64(1) << 40
	}
	key := Encode(nodes, nil)
	if len(key) > MaxKeyLen {
		t.Fatalf("key length %d exceeds MaxKeyLen %d", len(key), MaxKeyLen)
	}
	d, ok := Decode(key, 200)
	if !ok {
		t.Fatal("decode of truncated key failed")
	}
	if len(d.NodeIDs) >= len(nodes) {
		t.Fatalf("expected truncation, got %d of %d nodes retained", len(d.NodeIDs), len(nodes))
	}
	// Retained prefix must match the input prefix exactly.
	for i, v := range d.NodeIDs {
		if v != nodes[i] {
			t.Fatalf("retained node %d = %d, want %d (prefix must be preserved)", i, v, nodes[i])
		}
	}
}

func TestOversizedImmediatesDropsOverflow(t *testing.T) {
	nodes := make([]uint64, 15)
	for i := range nodes {
		nodes[i] = uint64(1) << 40
	}
	var imms []Immediate
	for i := 0; i < 10; i++ {
		imms = append(imms, Immediate{KeyIndex: i, Value: uint64(1) << 40})
	}
	key := Encode(nodes, imms)
	if len(key) > MaxKeyLen {
		t.Fatalf("key length %d exceeds MaxKeyLen %d", len(key), MaxKeyLen)
	}
	d, ok := Decode(key, 80)
	if !ok {
		t.Fatal("decode failed")
	}
	if len(d.Immediates) >= len(imms) {
		t.Fatalf("expected some immediates dropped, got %d of %d", len(d.Immediates), len(imms))
	}
}

func TestDecodeRespectsMaxNodes(t *testing.T) {
	nodes := []uint64{1, 2, 3, 4, 5}
	key := Encode(nodes, nil)
	d, ok := Decode(key, 3)
	if !ok {
		t.Fatal("decode failed")
	}
	if len(d.NodeIDs) != 3 {
		t.Fatalf("got %d node ids, want 3 (capped by maxNodes)", len(d.NodeIDs))
	}
}

func TestDecodeMalformedBuffer(t *testing.T) {
	if _, ok := Decode([]byte{0x80}, 80); ok {
		t.Fatal("expected decode failure on truncated varint")
	}
}
