package kernel

import (
	"math"
	"testing"
)

func TestZeroInitialState(t *testing.T) {
	k := Zero()
	if k.Count != 0 {
		t.Fatalf("Count=%d, want 0", k.Count)
	}
	if !math.IsInf(k.Min, 1) {
		t.Fatalf("Min=%v, want +Inf", k.Min)
	}
	if !math.IsInf(k.Max, -1) {
		t.Fatalf("Max=%v, want -Inf", k.Max)
	}
}

func TestAddTracksExtremesAndSum(t *testing.T) {
	k := Zero()
	for _, v := range []float64{10, 30, -5, 2} {
		k.Add(v)
	}
	if k.Count != 4 {
		t.Fatalf("Count=%d, want 4", k.Count)
	}
	if k.Min != -5 {
		t.Fatalf("Min=%v, want -5", k.Min)
	}
	if k.Max != 30 {
		t.Fatalf("Max=%v, want 30", k.Max)
	}
	if k.Sum != 37 {
		t.Fatalf("Sum=%v, want 37", k.Sum)
	}
}

func TestAddSingleNegativeValue(t *testing.T) {
	// A lone negative observation must be reflected in both Min and Max.
	k := Zero()
	k.Add(-100)
	if k.Min != -100 || k.Max != -100 {
		t.Fatalf("Min=%v Max=%v, want both -100", k.Min, k.Max)
	}
}
