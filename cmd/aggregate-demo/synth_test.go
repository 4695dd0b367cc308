package main

import (
	"math/rand"
	"testing"

	"aggregate/hostapi"
)

func TestSynthesizeSnapshotWithoutKeyAttributesUsesPlainNode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dur := hostapi.Attribute{ID: 5, Name: "time.inclusive.duration", Type: hostapi.TypeDouble}

	snap := synthesizeSnapshot(rng, 0, nil, []hostapi.Attribute{dur})
	if len(snap.Nodes) != 1 || snap.Nodes[0].AttributeID != hostapi.InvalidID {
		t.Fatal("expected a plain leaf node with no key attribute attached")
	}
	if len(snap.Immediates) != 1 || snap.Immediates[0].AttributeID != dur.ID {
		t.Fatalf("expected one immediate for the aggregation attribute, got %+v", snap.Immediates)
	}
}

func TestSynthesizeSnapshotWithKeyAttributeTagsLeaf(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	loopID := hostapi.Attribute{ID: 9, Name: "loop.id", Type: hostapi.TypeInt64}

	snap := synthesizeSnapshot(rng, 2, []hostapi.Attribute{loopID}, nil)
	if snap.Nodes[0].AttributeID != loopID.ID {
		t.Fatalf("leaf AttributeID=%d, want %d", snap.Nodes[0].AttributeID, loopID.ID)
	}
	if snap.Nodes[0].Value.AsDouble() != 2 {
		t.Fatalf("leaf Value=%v, want 2", snap.Nodes[0].Value.AsDouble())
	}
}
