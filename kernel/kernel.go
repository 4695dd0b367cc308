// Package kernel implements the fixed-size aggregation kernel that backs
// every trie terminal: a running {count, min, max, sum} over the double
// values observed for one aggregation attribute at one key.
//
// Max must start at negative infinity, not the smallest positive
// normal double: initializing it to a small positive value would make
// every negative observation compare smaller than the "minimum",
// silently corrupting Max for negative-valued attributes.
package kernel

import "math"

// Kernel is the {count, min, max, sum} running summary.
type Kernel struct {
	Count uint32
	Min   float64
	Max   float64
	Sum   float64
}

// Zero returns a freshly initialized kernel.
func Zero() Kernel {
	return Kernel{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Add folds one observation into the kernel.
//
//go:nosplit
//go:inline
func (k *Kernel) Add(val float64) {
	if val < k.Min {
		k.Min = val
	}
	if val > k.Max {
		k.Max = val
	}
	k.Sum += val
	k.Count++
}
